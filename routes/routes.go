package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/controllers"
	"github.com/khoilion/store-be/middleware"
	"github.com/khoilion/store-be/models"
)

// Controllers bundles the handlers mounted under /api.
type Controllers struct {
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	Cart       *controllers.CartController
	Upload     *controllers.UploadController
	Auth       *controllers.AuthController
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts every API route. Catalog reads are public, writes and
// uploads need an admin, and the cart needs any signed-in user.
func RegisterRoutes(r *gin.Engine, ctrls Controllers, auth gin.HandlerFunc) {
	admin := []gin.HandlerFunc{auth, middleware.RequireRoles(models.RoleAdmin)}
	shopper := []gin.HandlerFunc{auth, middleware.RequireRoles(models.RoleUser, models.RoleAdmin)}

	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", ctrls.Auth.Register)
		users.POST("/login", ctrls.Auth.Login)
		users.GET("/me", auth, ctrls.Auth.Me)
	}

	products := api.Group("/products")
	{
		products.GET("", ctrls.Products.GetProducts)
		products.GET("/:id", ctrls.Products.GetProduct)
		products.POST("", append(admin, ctrls.Products.CreateProduct)...)
		products.PUT("/:id", append(admin, ctrls.Products.UpdateProduct)...)
		products.DELETE("/:id", append(admin, ctrls.Products.DeleteProduct)...)
	}

	categories := api.Group("/categoryProduct")
	{
		categories.GET("", ctrls.Categories.GetCategories)
		categories.GET("/:id", ctrls.Categories.GetCategory)
		categories.POST("", append(admin, ctrls.Categories.CreateCategory)...)
		categories.PUT("/:id", append(admin, ctrls.Categories.UpdateCategory)...)
		categories.DELETE("/:id", append(admin, ctrls.Categories.DeleteCategory)...)
	}

	cart := api.Group("/cart", shopper...)
	{
		cart.GET("", ctrls.Cart.GetCart)
		cart.POST("/add", ctrls.Cart.AddToCart)
		cart.PUT("/update", ctrls.Cart.UpdateCartItem)
		cart.DELETE("/remove/:productId", ctrls.Cart.RemoveFromCart)
		cart.DELETE("/clear", ctrls.Cart.ClearCart)
	}

	upload := api.Group("/upload", admin...)
	{
		upload.GET("/presigned-url", ctrls.Upload.GetPresignedURL)
	}
}

// RegisterHealth exposes GET /health, reporting 503 when a dependency is down.
func RegisterHealth(r *gin.Engine, deps map[string]Pinger) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}

		body := gin.H{"status": "OK", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "DEGRADED"
		}
		c.JSON(status, body)
	})
}
