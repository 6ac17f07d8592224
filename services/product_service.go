package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/common/logger"
	"github.com/khoilion/store-be/events"
	"github.com/khoilion/store-be/models"
	awspkg "github.com/khoilion/store-be/pkg/aws"
	"github.com/khoilion/store-be/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// CartPurger removes deleted products from carts.
type CartPurger interface {
	PurgeProducts(ctx context.Context, productIDs []string) (int, error)
}

type ProductService struct {
	products   repository.ProductRepo
	categories repository.CategoryRepo
	purger     CartPurger
	emitter    *events.Emitter
	metrics    *awspkg.MetricsClient
	logger     *zap.Logger
}

func NewProductService(
	products repository.ProductRepo,
	categories repository.CategoryRepo,
	purger CartPurger,
	emitter *events.Emitter,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		purger:     purger,
		emitter:    emitter,
		metrics:    metrics,
		logger:     logger,
	}
}

// NormalizeProductQuery applies defaults and rejects out-of-range values.
func NormalizeProductQuery(q models.ProductQuery) (models.ProductQuery, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy = repository.SortNewest
	}
	switch {
	case q.Page < 1:
		return q, apperrors.Validation("page must be at least 1")
	case q.Limit < 1 || q.Limit > MaxPageSize:
		return q, apperrors.Validation("limit must be between 1 and 100")
	case !pageInRange(q.Page, q.Limit):
		return q, apperrors.Validation("page is out of range")
	case !repository.IsSupportedSort(q.SortBy):
		return q, apperrors.Validation("invalid sortBy value")
	case q.Status != "" && !q.Status.Valid():
		return q, apperrors.Validation("invalid status value")
	case q.MinPrice != nil && *q.MinPrice < 0, q.MaxPrice != nil && *q.MaxPrice < 0:
		return q, apperrors.Validation("price filters must be non-negative")
	case q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice:
		return q, apperrors.Validation("minPrice cannot be greater than maxPrice")
	case q.MinDiscount != nil && *q.MinDiscount < 0:
		return q, apperrors.Validation("minDiscount must be non-negative")
	}
	if q.CategoryID != "" {
		if _, err := uuid.Parse(q.CategoryID); err != nil {
			return q, apperrors.Validation("invalid categoryId")
		}
	}
	return q, nil
}

// GetProducts fetches one page and the total match count concurrently.
func (s *ProductService) GetProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	q, err := NormalizeProductQuery(q)
	if err != nil {
		return nil, err
	}

	var (
		products []*models.Product
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.Find(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internal(ctx, s.logger, "Failed to query products", err)
	}

	return &models.ProductPage{
		Products:   products,
		Pagination: models.NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, internal(ctx, s.logger, "Failed to load product", err)
	}
	return product, nil
}

func (s *ProductService) AddProduct(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("Name is required")
	}
	if !req.Status.Valid() {
		return nil, apperrors.Validation("invalid status value")
	}
	if req.Price < 0 || req.Quantity < 0 || (req.Discount != nil && *req.Discount < 0) {
		return nil, apperrors.Validation("price, discount and quantity must be non-negative")
	}
	if err := validateVariants(req.Variants); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, req.CategoryProductID, "Category not found"); err != nil {
		return nil, err
	}

	// Millisecond precision is what Mongo keeps, so every backend orders on the same value.
	now := time.Now().UTC().Truncate(time.Millisecond)
	product := &models.Product{
		ID:             newProductID(),
		Name:           name,
		Status:         req.Status,
		Description:    req.Description,
		Price:          req.Price,
		Discount:       req.Discount,
		Quantity:       req.Quantity,
		Images:         models.ParseImages(req.Images),
		CategoryID:     req.CategoryProductID,
		Variants:       req.Variants,
		Specifications: req.Specifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, internal(ctx, s.logger, "Failed to create product", err)
	}

	logger.FromContext(ctx, s.logger).Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("category_id", product.CategoryID))
	s.metrics.RecordCount(ctx, awspkg.MetricProductsCreated, 1, nil)
	s.emitter.Emit(events.New(events.ProductCreated, product.ID, product))
	return product, nil
}

// UpdateProduct applies a partial patch: absent fields are kept, null clears nullable
// fields, values overwrite.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	updates, err := s.productUpdates(ctx, patch)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.products.Update(ctx, id, updates); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("Product not found")
			}
			return nil, internal(ctx, s.logger, "Failed to update product", err)
		}
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		s.emitter.Emit(events.New(events.ProductUpdated, id, product))
	}
	return product, nil
}

func (s *ProductService) productUpdates(ctx context.Context, p models.ProductPatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if p.Name.Null || name == "" {
			return nil, apperrors.Validation("Name cannot be empty")
		}
		updates[repository.FieldName] = name
	}
	if p.Status.Set {
		if p.Status.Null || !p.Status.Value.Valid() {
			return nil, apperrors.Validation("invalid status value")
		}
		updates[repository.FieldStatus] = p.Status.Value
	}
	if p.Description.Set {
		updates[repository.FieldDescription] = p.Description.Ptr()
	}
	if p.Price.Set {
		if p.Price.Null || p.Price.Value < 0 {
			return nil, apperrors.Validation("price must be a non-negative number")
		}
		updates[repository.FieldPrice] = p.Price.Value
	}
	if p.Discount.Set {
		if !p.Discount.Null && p.Discount.Value < 0 {
			return nil, apperrors.Validation("discount must be non-negative")
		}
		updates[repository.FieldDiscount] = p.Discount.Ptr()
	}
	if p.Quantity.Set {
		if p.Quantity.Null || p.Quantity.Value < 0 {
			return nil, apperrors.Validation("quantity must be a non-negative integer")
		}
		updates[repository.FieldQuantity] = p.Quantity.Value
	}
	if p.CategoryProductID.Set {
		if p.CategoryProductID.Null {
			return nil, apperrors.Validation("categoryProductId cannot be null")
		}
		if err := s.requireCategory(ctx, p.CategoryProductID.Value, "New category not found"); err != nil {
			return nil, err
		}
		updates[repository.FieldCategoryID] = p.CategoryProductID.Value
	}
	if p.Images.Set {
		images := []string{}
		if !p.Images.Null {
			images = models.ParseImages(p.Images.Value)
		}
		updates[repository.FieldImages] = images
	}
	if p.Specifications.Set {
		updates[repository.FieldSpecifications] = p.Specifications.Ptr()
	}
	if p.Variants.Set {
		if p.Variants.Null {
			updates[repository.FieldVariants] = []models.Variant(nil)
		} else {
			if err := validateVariants(p.Variants.Value); err != nil {
				return nil, err
			}
			updates[repository.FieldVariants] = p.Variants.Value
		}
	}
	return updates, nil
}

// DeleteProduct removes the product and purges it from every cart.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return internal(ctx, s.logger, "Failed to delete product", err)
	}
	if _, err := s.purger.PurgeProducts(ctx, []string{id}); err != nil {
		return err
	}

	s.metrics.RecordCount(ctx, awspkg.MetricProductsDeleted, 1, nil)
	s.emitter.Emit(events.New(events.ProductDeleted, id, nil))
	return nil
}

// DeleteByCategory removes every product in the category and purges them from carts.
// It returns the number of products deleted.
func (s *ProductService) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	ids, err := s.products.FindIDsByCategory(ctx, categoryID)
	if err != nil {
		return 0, internal(ctx, s.logger, "Failed to list category products", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := s.products.DeleteMany(ctx, ids)
	if err != nil {
		return 0, internal(ctx, s.logger, "Failed to delete category products", err)
	}
	carts, err := s.purger.PurgeProducts(ctx, ids)
	if err != nil {
		return deleted, err
	}

	logger.FromContext(ctx, s.logger).Info("Deleted category products",
		zap.String("category_id", categoryID),
		zap.Int64("products", deleted),
		zap.Int("carts_updated", carts))
	s.metrics.RecordCount(ctx, awspkg.MetricProductsDeleted, float64(deleted), nil)
	for _, id := range ids {
		s.emitter.Emit(events.New(events.ProductDeleted, id, nil))
	}
	return deleted, nil
}

func (s *ProductService) requireCategory(ctx context.Context, id, notFoundMsg string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation("invalid categoryProductId")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(notFoundMsg)
		}
		return internal(ctx, s.logger, "Failed to load category", err)
	}
	return nil
}

// newProductID returns a time-ordered UUIDv7. Sorts break created_at ties on the id, so
// products created within the same millisecond still list in insertion order.
func newProductID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// pageInRange rejects pages whose offset would overflow.
func pageInRange(page, limit int) bool {
	_, ok := repository.PageOffset(page, limit)
	return ok
}

func validateVariants(variants []models.Variant) error {
	for _, v := range variants {
		if strings.TrimSpace(v.Storage) == "" {
			return apperrors.Validation("variant storage is required")
		}
		if v.Price < 0 || v.Quantity < 0 {
			return apperrors.Validation("variant price and quantity must be non-negative")
		}
	}
	return nil
}
