package repository

import (
	"context"
	"errors"

	"github.com/khoilion/store-be/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate key")
)

// Update maps use storage field names (the bson / dynamodbav tag names).
const (
	FieldName           = "name"
	FieldStatus         = "status"
	FieldDescription    = "description"
	FieldPrice          = "price"
	FieldDiscount       = "discount"
	FieldQuantity       = "quantity"
	FieldImages         = "images"
	FieldCategoryID     = "category_id"
	FieldVariants       = "variants"
	FieldSpecifications = "specifications"
	FieldUpdatedAt      = "updated_at"
)

// ProductRepo is implemented by the Mongo repository and the DynamoDB adapter.
type ProductRepo interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Product, error)
	Find(ctx context.Context, q models.ProductQuery) ([]*models.Product, error)
	Count(ctx context.Context, q models.ProductQuery) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	FindIDsByCategory(ctx context.Context, categoryID string) ([]string, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// Reserve moves quantity from available to reserved only if the product is IN_STOCK
	// and has at least quantity available; otherwise ErrInsufficientStock.
	Reserve(ctx context.Context, id string, quantity int) error
	// Release is the inverse of Reserve, bounded by the reserved count.
	Release(ctx context.Context, id string, quantity int) error
	EnsureIndexes(ctx context.Context) error
}

type CategoryRepo interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	FindAll(ctx context.Context) ([]*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type CartRepo interface {
	FindByUserID(ctx context.Context, userID string) (*models.Cart, error)
	FindByID(ctx context.Context, id string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	UpdateTotals(ctx context.Context, cartID string, totalAmount float64, totalItems int) error

	FindItems(ctx context.Context, cartID string) ([]*models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID string) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID string, quantity int, totalPrice float64) error
	DeleteItem(ctx context.Context, itemID string) error
	DeleteItems(ctx context.Context, cartID string) (int64, error)
	FindItemsByProducts(ctx context.Context, productIDs []string) ([]*models.CartItem, error)
	EnsureIndexes(ctx context.Context) error
}

type UserRepo interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
