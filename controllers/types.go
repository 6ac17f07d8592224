package controllers

import (
	"context"
	"time"

	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/services"
)

// ProductServiceAPI is the catalog surface the product handlers need.
type ProductServiceAPI interface {
	GetProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	AddProduct(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CategoryServiceAPI interface {
	CreateCategory(ctx context.Context, req models.CategoryCreateRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) (int64, error)
}

type CartServiceAPI interface {
	AddToCart(ctx context.Context, userID string, req models.AddToCartRequest, idempotencyKey string) (*models.Cart, error)
	GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error)
	UpdateCartItem(ctx context.Context, userID string, req models.UpdateCartItemRequest) (*models.Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type UploadServiceAPI interface {
	PresignUpload(ctx context.Context, objectName, contentType string, expires time.Duration) (*services.PresignedUpload, error)
}

type AuthServiceAPI interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}
