package controllers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/controllers"
	"github.com/khoilion/store-be/middleware"
	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testUserID    = "5f1d7c2a-3b4e-4f60-8a9b-0c1d2e3f4a01"
	testProductID = "8c3b1a2d-4e5f-4a6b-9c7d-1e2f3a4b5c02"
)

// --- product ---

type mockProductService struct {
	listFn   func(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
	getFn    func(ctx context.Context, id string) (*models.Product, error)
	addFn    func(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error)
	updateFn func(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockProductService) GetProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	return m.listFn(ctx, q)
}
func (m *mockProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockProductService) AddProduct(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error) {
	return m.addFn(ctx, req)
}
func (m *mockProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockProductService) DeleteProduct(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- category ---

type mockCategoryService struct {
	createFn func(ctx context.Context, req models.CategoryCreateRequest) (*models.Category, error)
	getFn    func(ctx context.Context, id string) (*models.Category, error)
	listFn   func(ctx context.Context) ([]*models.Category, error)
	updateFn func(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error)
	deleteFn func(ctx context.Context, id string) (int64, error)
}

func (m *mockCategoryService) CreateCategory(ctx context.Context, req models.CategoryCreateRequest) (*models.Category, error) {
	return m.createFn(ctx, req)
}
func (m *mockCategoryService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return m.getFn(ctx, id)
}
func (m *mockCategoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return m.listFn(ctx)
}
func (m *mockCategoryService) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockCategoryService) DeleteCategory(ctx context.Context, id string) (int64, error) {
	return m.deleteFn(ctx, id)
}

// --- cart ---

type mockCartService struct {
	addFn    func(ctx context.Context, userID string, req models.AddToCartRequest, key string) (*models.Cart, error)
	getFn    func(ctx context.Context, userID string) (*models.Cart, error)
	updateFn func(ctx context.Context, userID string, req models.UpdateCartItemRequest) (*models.Cart, error)
	removeFn func(ctx context.Context, userID, productID string) (*models.Cart, error)
	clearFn  func(ctx context.Context, userID string) error
}

func (m *mockCartService) AddToCart(ctx context.Context, userID string, req models.AddToCartRequest, key string) (*models.Cart, error) {
	return m.addFn(ctx, userID, req, key)
}
func (m *mockCartService) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	return m.getFn(ctx, userID)
}
func (m *mockCartService) UpdateCartItem(ctx context.Context, userID string, req models.UpdateCartItemRequest) (*models.Cart, error) {
	return m.updateFn(ctx, userID, req)
}
func (m *mockCartService) RemoveFromCart(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return m.removeFn(ctx, userID, productID)
}
func (m *mockCartService) ClearCart(ctx context.Context, userID string) error {
	return m.clearFn(ctx, userID)
}

// --- upload / auth ---

type mockUploadService struct {
	presignFn func(ctx context.Context, objectName, contentType string, expires time.Duration) (*services.PresignedUpload, error)
}

func (m *mockUploadService) PresignUpload(ctx context.Context, objectName, contentType string, expires time.Duration) (*services.PresignedUpload, error) {
	return m.presignFn(ctx, objectName, contentType, expires)
}

type mockAuthService struct {
	registerFn func(ctx context.Context, username, password string) (*models.User, error)
	loginFn    func(ctx context.Context, username, password string) (*services.LoginResult, error)
	meFn       func(ctx context.Context, userID string) (*models.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return m.registerFn(ctx, username, password)
}
func (m *mockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	return m.loginFn(ctx, username, password)
}
func (m *mockAuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return m.meFn(ctx, userID)
}

// withUser stands in for the auth middleware.
func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserContextKey, userID)
			c.Set(middleware.RoleContextKey, models.RoleUser)
		}
		c.Next()
	}
}

var _ controllers.CartServiceAPI = (*mockCartService)(nil)
