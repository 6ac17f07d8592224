package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/common/logger"
	"github.com/khoilion/store-be/events"
	"github.com/khoilion/store-be/models"
	awspkg "github.com/khoilion/store-be/pkg/aws"
	"github.com/khoilion/store-be/repository"
)

const idempotencyScopeCartAdd = "cart-add"

// IdempotencyStore remembers keyed requests that already succeeded.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string) ([]byte, bool, error)
	Save(ctx context.Context, scope, key string, payload []byte) error
}

// CartService owns cart and cart-item lifecycles. Every public operation runs under the
// user's cart lock, and totals are always recomputed from the stored items.
type CartService struct {
	carts      repository.CartRepo
	products   repository.ProductRepo
	categories repository.CategoryRepo
	users      repository.UserRepo
	locker     Locker
	idem       IdempotencyStore
	emitter    *events.Emitter
	metrics    *awspkg.MetricsClient
	logger     *zap.Logger
}

type CartServiceOption func(*CartService)

func WithIdempotency(store IdempotencyStore) CartServiceOption {
	return func(s *CartService) { s.idem = store }
}

func WithCartEvents(e *events.Emitter) CartServiceOption {
	return func(s *CartService) { s.emitter = e }
}

func WithCartMetrics(m *awspkg.MetricsClient) CartServiceOption {
	return func(s *CartService) { s.metrics = m }
}

// NewCartService wires the cart engine. users may be nil when identities come from a
// trusted gateway and no user store is consulted.
func NewCartService(
	carts repository.CartRepo,
	products repository.ProductRepo,
	categories repository.CategoryRepo,
	users repository.UserRepo,
	locker Locker,
	logger *zap.Logger,
	opts ...CartServiceOption,
) *CartService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	s := &CartService{
		carts:      carts,
		products:   products,
		categories: categories,
		users:      users,
		locker:     locker,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CartService) lock(ctx context.Context, userID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "cart:"+userID)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to acquire cart lock", err)
	}
	return unlock, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one when none exists.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.getOrCreateCart(ctx, userID)
}

func (s *CartService) getOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internal(ctx, s.logger, "Failed to load cart", err)
	}

	if s.users != nil {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("User not found")
			}
			return nil, internal(ctx, s.logger, "Failed to load user", err)
		}
	}

	now := time.Now().UTC()
	cart = &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     []models.CartItem{},
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance created it first.
			return s.carts.FindByUserID(ctx, userID)
		}
		return nil, internal(ctx, s.logger, "Failed to create cart", err)
	}
	return cart, nil
}

// AddToCart reserves quantity units of the product and adds them to the user's cart.
// A request carrying an idempotency key that already succeeded returns the current cart.
func (s *CartService) AddToCart(ctx context.Context, userID string, req models.AddToCartRequest, idempotencyKey string) (*models.Cart, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be greater than 0")
	}

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.seen(ctx, userID, idempotencyKey) {
		cart, err := s.getOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.populate(ctx, cart)
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, internal(ctx, s.logger, "Failed to load product", err)
	}
	if product.Status != models.ProductStatusInStock {
		s.metrics.RecordCount(ctx, awspkg.MetricStockRejected, 1, map[string]string{"reason": "out_of_stock"})
		return nil, apperrors.OutOfStock("Product is out of stock")
	}
	if product.Quantity < req.Quantity {
		s.metrics.RecordCount(ctx, awspkg.MetricStockRejected, 1, map[string]string{"reason": "insufficient"})
		return nil, insufficientStock(product.Quantity)
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.reserve(ctx, product.ID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.upsertItem(ctx, cart.ID, product, req.Quantity); err != nil {
		s.release(ctx, product.ID, req.Quantity)
		return nil, internal(ctx, s.logger, "Failed to save cart item", err)
	}

	cart, err = s.recomputeTotals(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.remember(ctx, userID, idempotencyKey, cart.ID)
	s.metrics.RecordCount(ctx, awspkg.MetricCartItemsAdded, float64(req.Quantity), nil)
	s.emitter.Emit(events.New(events.CartItemAdded, userID, map[string]interface{}{
		"cartId":    cart.ID,
		"productId": product.ID,
		"quantity":  req.Quantity,
	}))

	return s.populate(ctx, cart)
}

// upsertItem grows an existing line at its stored unit price, or adds a new line priced
// at the product's current price.
func (s *CartService) upsertItem(ctx context.Context, cartID string, product *models.Product, quantity int) error {
	item, err := s.carts.FindItem(ctx, cartID, product.ID)
	switch {
	case err == nil:
		newQuantity := item.Quantity + quantity
		return s.carts.UpdateItem(ctx, item.ID, newQuantity, lineTotal(item.Price, newQuantity))
	case errors.Is(err, repository.ErrNotFound):
		now := time.Now().UTC()
		return s.carts.InsertItem(ctx, &models.CartItem{
			ID:         uuid.NewString(),
			CartID:     cartID,
			ProductID:  product.ID,
			Quantity:   quantity,
			Price:      product.Price,
			TotalPrice: lineTotal(product.Price, quantity),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	default:
		return err
	}
}

// UpdateCartItem sets the line's quantity. Zero or less removes the line.
func (s *CartService) UpdateCartItem(ctx context.Context, userID string, req models.UpdateCartItemRequest) (*models.Cart, error) {
	if req.Quantity == nil {
		return nil, apperrors.Validation("Quantity is required")
	}
	quantity := *req.Quantity

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if quantity <= 0 {
		return s.removeFromCart(ctx, userID, req.ProductID)
	}

	cart, item, err := s.findLine(ctx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}

	delta := quantity - item.Quantity
	switch {
	case delta > 0:
		if err := s.reserve(ctx, item.ProductID, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		s.release(ctx, item.ProductID, -delta)
	}

	if err := s.carts.UpdateItem(ctx, item.ID, quantity, lineTotal(item.Price, quantity)); err != nil {
		if delta > 0 {
			s.release(ctx, item.ProductID, delta)
		}
		return nil, internal(ctx, s.logger, "Failed to update cart item", err)
	}

	cart, err = s.recomputeTotals(ctx, cart)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

// RemoveFromCart deletes the line and returns its units to stock.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) (*models.Cart, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.removeFromCart(ctx, userID, productID)
}

func (s *CartService) removeFromCart(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, item, err := s.findLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found in cart")
		}
		return nil, internal(ctx, s.logger, "Failed to delete cart item", err)
	}
	s.release(ctx, item.ProductID, item.Quantity)

	cart, err = s.recomputeTotals(ctx, cart)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

func (s *CartService) findLine(ctx context.Context, userID, productID string) (*models.Cart, *models.CartItem, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("Product not found in cart")
		}
		return nil, nil, internal(ctx, s.logger, "Failed to load cart", err)
	}
	item, err := s.carts.FindItem(ctx, cart.ID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("Product not found in cart")
		}
		return nil, nil, internal(ctx, s.logger, "Failed to load cart item", err)
	}
	return cart, item, nil
}

// GetCartByUserID returns the populated cart, creating an empty one when needed.
func (s *CartService) GetCartByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

// ClearCart removes every line, releasing reserved stock, and zeroes the totals.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Cart not found")
		}
		return internal(ctx, s.logger, "Failed to load cart", err)
	}

	items, err := s.carts.FindItems(ctx, cart.ID)
	if err != nil {
		return internal(ctx, s.logger, "Failed to load cart items", err)
	}
	if _, err := s.carts.DeleteItems(ctx, cart.ID); err != nil {
		return internal(ctx, s.logger, "Failed to clear cart items", err)
	}
	for _, item := range items {
		s.release(ctx, item.ProductID, item.Quantity)
	}
	if _, err := s.recomputeTotals(ctx, cart); err != nil {
		return err
	}

	s.emitter.Emit(events.New(events.CartCleared, userID, map[string]interface{}{
		"cartId":       cart.ID,
		"itemsRemoved": len(items),
	}))
	return nil
}

// PurgeProducts drops lines that reference deleted products and recomputes each affected
// cart under its owner's lock. Stock is not released since the products are gone.
func (s *CartService) PurgeProducts(ctx context.Context, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	items, err := s.carts.FindItemsByProducts(ctx, productIDs)
	if err != nil {
		return 0, internal(ctx, s.logger, "Failed to find cart items for products", err)
	}

	byCart := make(map[string][]*models.CartItem)
	for _, item := range items {
		byCart[item.CartID] = append(byCart[item.CartID], item)
	}

	for cartID, lines := range byCart {
		if err := s.purgeCart(ctx, cartID, lines); err != nil {
			return 0, err
		}
	}
	return len(byCart), nil
}

func (s *CartService) purgeCart(ctx context.Context, cartID string, lines []*models.CartItem) error {
	cart, err := s.carts.FindByID(ctx, cartID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internal(ctx, s.logger, "Failed to load cart", err)
	}

	unlock, err := s.lock(ctx, cart.UserID)
	if err != nil {
		return err
	}
	defer unlock()

	for _, line := range lines {
		if err := s.carts.DeleteItem(ctx, line.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return internal(ctx, s.logger, "Failed to purge cart item", err)
		}
	}
	_, err = s.recomputeTotals(ctx, cart)
	return err
}

// recomputeTotals sums the stored lines and persists the result on the cart.
func (s *CartService) recomputeTotals(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	items, err := s.carts.FindItems(ctx, cart.ID)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to load cart items", err)
	}

	amount := decimal.Zero
	count := 0
	for _, item := range items {
		amount = amount.Add(decimal.NewFromFloat(item.TotalPrice))
		count += item.Quantity
	}
	total := amount.Round(2).InexactFloat64()

	if err := s.carts.UpdateTotals(ctx, cart.ID, total, count); err != nil {
		return nil, internal(ctx, s.logger, "Failed to update cart totals", err)
	}

	updated := *cart
	updated.TotalAmount = total
	updated.TotalItems = count
	updated.UpdatedAt = time.Now().UTC()
	return &updated, nil
}

// populate attaches items, their products and each product's category.
func (s *CartService) populate(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	items, err := s.carts.FindItems(ctx, cart.ID)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to load cart items", err)
	}

	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to load cart products", err)
	}

	categoryIDs := make([]string, 0, len(products))
	for _, p := range products {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	categories, err := s.categories.FindByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, internal(ctx, s.logger, "Failed to load product categories", err)
	}

	categoryByID := make(map[string]*models.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}
	productByID := make(map[string]*models.Product, len(products))
	for _, p := range products {
		p.Category = categoryByID[p.CategoryID]
		productByID[p.ID] = p
	}

	out := *cart
	out.Items = make([]models.CartItem, 0, len(items))
	for _, item := range items {
		line := *item
		line.Product = productByID[item.ProductID]
		out.Items = append(out.Items, line)
	}
	return &out, nil
}

func (s *CartService) reserve(ctx context.Context, productID string, quantity int) error {
	err := s.products.Reserve(ctx, productID, quantity)
	if err == nil {
		s.metrics.RecordCount(ctx, awspkg.MetricStockReserved, float64(quantity), nil)
		return nil
	}
	if !errors.Is(err, repository.ErrInsufficientStock) {
		return internal(ctx, s.logger, "Failed to reserve stock", err)
	}

	s.metrics.RecordCount(ctx, awspkg.MetricStockRejected, 1, map[string]string{"reason": "insufficient"})
	product, ferr := s.products.FindByID(ctx, productID)
	switch {
	case errors.Is(ferr, repository.ErrNotFound):
		return apperrors.NotFound("Product not found")
	case ferr != nil:
		return internal(ctx, s.logger, "Failed to load product", ferr)
	case product.Status != models.ProductStatusInStock:
		return apperrors.OutOfStock("Product is out of stock")
	default:
		return insufficientStock(product.Quantity)
	}
}

// release returns units to stock. A failure leaves stock low but never corrupts the
// cart, so it is logged rather than surfaced.
func (s *CartService) release(ctx context.Context, productID string, quantity int) {
	if err := s.products.Release(ctx, productID, quantity); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to release reserved stock",
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
		return
	}
	s.metrics.RecordCount(ctx, awspkg.MetricStockReleased, float64(quantity), nil)
}

// cartAddScope keys idempotency per user, so equal keys from different users never collide.
func cartAddScope(userID string) string {
	return idempotencyScopeCartAdd + ":" + userID
}

func (s *CartService) seen(ctx context.Context, userID, key string) bool {
	if s.idem == nil || key == "" {
		return false
	}
	_, found, err := s.idem.Get(ctx, cartAddScope(userID), key)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("Idempotency lookup failed", zap.Error(err))
		return false
	}
	return found
}

func (s *CartService) remember(ctx context.Context, userID, key, cartID string) {
	if s.idem == nil || key == "" {
		return
	}
	if err := s.idem.Save(ctx, cartAddScope(userID), key, []byte(cartID)); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Idempotency save failed", zap.Error(err))
	}
}

func lineTotal(price float64, quantity int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

func insufficientStock(available int) error {
	return apperrors.InsufficientStock(fmt.Sprintf("Only %d items available in stock", available))
}
