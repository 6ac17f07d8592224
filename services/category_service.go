package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/common/logger"
	"github.com/khoilion/store-be/events"
	"github.com/khoilion/store-be/models"
	awspkg "github.com/khoilion/store-be/pkg/aws"
	"github.com/khoilion/store-be/repository"
)

// CategoryProducts deletes the products that belong to a category.
type CategoryProducts interface {
	DeleteByCategory(ctx context.Context, categoryID string) (int64, error)
}

type CategoryService struct {
	categories repository.CategoryRepo
	products   CategoryProducts
	emitter    *events.Emitter
	metrics    *awspkg.MetricsClient
	logger     *zap.Logger
}

func NewCategoryService(
	categories repository.CategoryRepo,
	products CategoryProducts,
	emitter *events.Emitter,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categories: categories,
		products:   products,
		emitter:    emitter,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, req models.CategoryCreateRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("Name is required")
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Category already exists")
		}
		return nil, internal(ctx, s.logger, "Failed to create category", err)
	}
	return category, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Category not found")
		}
		return nil, internal(ctx, s.logger, "Failed to load category", err)
	}
	return category, nil
}

// ListCategories returns every category ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to list categories", err)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	current, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return nil, apperrors.Validation("Name cannot be empty")
		}
		if !strings.EqualFold(name, current.Name) {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		updates[repository.FieldName] = name
	}
	if patch.Description.Set {
		updates[repository.FieldDescription] = patch.Description.Ptr()
	}
	if len(updates) == 0 {
		return current, nil
	}

	if err := s.categories.Update(ctx, id, updates); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Category not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Conflict("Category already exists")
		}
		return nil, internal(ctx, s.logger, "Failed to update category", err)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory cascades: the category's products are deleted and purged from carts
// before the category itself goes. It returns how many products were removed.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) (int64, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return 0, err
	}

	removed, err := s.products.DeleteByCategory(ctx, id)
	if err != nil {
		return 0, err
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return removed, apperrors.NotFound("Category not found")
		}
		return removed, internal(ctx, s.logger, "Failed to delete category", err)
	}

	logger.FromContext(ctx, s.logger).Info("Category deleted",
		zap.String("category_id", id),
		zap.Int64("products_removed", removed))
	s.metrics.RecordCount(ctx, awspkg.MetricCategoryCascades, 1, nil)
	s.emitter.Emit(events.New(events.CategoryDeleted, id, map[string]interface{}{
		"productsRemoved": removed,
	}))
	return removed, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return internal(ctx, s.logger, "Failed to check category name", err)
	case existing.ID != selfID:
		return apperrors.Conflict("Category already exists")
	}
	return nil
}
