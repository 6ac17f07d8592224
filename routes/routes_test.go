package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoilion/store-be/controllers"
	"github.com/khoilion/store-be/middleware"
	"github.com/khoilion/store-be/routes"
	"github.com/khoilion/store-be/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// The handlers are never reached in these tests, so nil services are fine.
func newRouter(t *testing.T) (*gin.Engine, *services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService("routes-secret", time.Hour)
	require.NoError(t, err)

	rv := controllers.NewRequestValidator()
	r := gin.New()
	routes.RegisterRoutes(r, routes.Controllers{
		Products:   controllers.NewProductController(nil, rv),
		Categories: controllers.NewCategoryController(nil, rv),
		Cart:       controllers.NewCartController(nil, rv),
		Upload:     controllers.NewUploadController(nil),
		Auth:       controllers.NewAuthController(nil, rv),
	}, middleware.AuthMiddleware(middleware.AuthConfig{Tokens: tokens}))
	return r, tokens
}

func request(r *gin.Engine, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_Protection(t *testing.T) {
	r, tokens := newRouter(t)
	userToken, err := tokens.GenerateAccessToken("u-1", "user")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/cart", ""))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/products", ""))
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodPost, "/api/products", userToken))
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodDelete, "/api/categoryProduct/abc", userToken))
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/api/upload/presigned-url", userToken))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/users/me", ""))
}

func TestRoutes_AdminReachesHandlers(t *testing.T) {
	r, tokens := newRouter(t)
	adminToken, err := tokens.GenerateAccessToken("a-1", "admin")
	require.NoError(t, err)

	// uuid check runs before the service is touched
	assert.Equal(t, http.StatusBadRequest, request(r, http.MethodDelete, "/api/products/not-a-uuid", adminToken))
}

func TestHealth(t *testing.T) {
	r := gin.New()
	routes.RegisterHealth(r, map[string]routes.Pinger{
		"mongo": pingFunc(func(context.Context) error { return nil }),
	})
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", ""))

	down := gin.New()
	routes.RegisterHealth(down, map[string]routes.Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})
	assert.Equal(t, http.StatusServiceUnavailable, request(down, http.MethodGet, "/health", ""))
}
