package services_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/khoilion/store-be/models"
	"github.com/khoilion/store-be/repository"
)

// --- in-memory product store ---

type memProducts struct {
	mu       sync.Mutex
	products map[string]*models.Product
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{products: map[string]*models.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) get(id string) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

func (m *memProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindByIDs(_ context.Context, ids []string) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProducts) all() []*models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

func (m *memProducts) Find(_ context.Context, q models.ProductQuery) ([]*models.Product, error) {
	page, _ := repository.ApplyProductQuery(m.all(), q)
	return page, nil
}

func (m *memProducts) Count(_ context.Context, q models.ProductQuery) (int64, error) {
	q.Limit = 0
	_, total := repository.ApplyProductQuery(m.all(), q)
	return total, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memProducts) Update(_ context.Context, id string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case repository.FieldName:
			p.Name = v.(string)
		case repository.FieldStatus:
			p.Status = v.(models.ProductStatus)
		case repository.FieldDescription:
			p.Description = v.(*string)
		case repository.FieldPrice:
			p.Price = v.(float64)
		case repository.FieldDiscount:
			p.Discount = v.(*float64)
		case repository.FieldQuantity:
			p.Quantity = v.(int)
		case repository.FieldImages:
			p.Images = v.([]string)
		case repository.FieldCategoryID:
			p.CategoryID = v.(string)
		case repository.FieldVariants:
			p.Variants = v.([]models.Variant)
		case repository.FieldSpecifications:
			p.Specifications = v.(*string)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memProducts) FindIDsByCategory(_ context.Context, categoryID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for id, p := range m.products {
		if p.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memProducts) DeleteMany(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.products[id]; ok {
			delete(m.products, id)
			n++
		}
	}
	return n, nil
}

func (m *memProducts) Reserve(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Status != models.ProductStatusInStock || p.Quantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= quantity
	p.Reserved += quantity
	return nil
}

func (m *memProducts) Release(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Reserved < quantity {
		return repository.ErrNotFound
	}
	p.Quantity += quantity
	p.Reserved -= quantity
	return nil
}

func (m *memProducts) EnsureIndexes(context.Context) error { return nil }

// --- in-memory category store ---

type memCategories struct {
	mu         sync.Mutex
	categories map[string]*models.Category
}

func newMemCategories(categories ...*models.Category) *memCategories {
	m := &memCategories{categories: map[string]*models.Category{}}
	for _, c := range categories {
		m.categories[c.ID] = c
	}
	return m
}

func (m *memCategories) FindByID(_ context.Context, id string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategories) FindByIDs(_ context.Context, ids []string) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Category{}
	for _, id := range ids {
		if c, ok := m.categories[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCategories) FindByName(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCategories) FindAll(_ context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Category{}
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCategories) Create(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memCategories) Update(_ context.Context, id string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates[repository.FieldName]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates[repository.FieldDescription]; ok {
		c.Description = v.(*string)
	}
	return nil
}

func (m *memCategories) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memCategories) EnsureIndexes(context.Context) error { return nil }

// --- in-memory cart store ---

type memCarts struct {
	mu        sync.Mutex
	carts     map[string]*models.Cart
	items     map[string]*models.CartItem
	seq       int
	insertErr error
}

func newMemCarts() *memCarts {
	return &memCarts{carts: map[string]*models.Cart{}, items: map[string]*models.CartItem{}}
}

func (m *memCarts) FindByUserID(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCarts) FindByID(_ context.Context, id string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCarts) Create(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.carts {
		if existing.UserID == c.UserID {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	m.carts[c.ID] = &cp
	return nil
}

func (m *memCarts) UpdateTotals(_ context.Context, cartID string, amount float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[cartID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TotalAmount, c.TotalItems = amount, count
	return nil
}

func (m *memCarts) FindItems(_ context.Context, cartID string) ([]*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.CartItem{}
	for _, it := range m.items {
		if it.CartID == cartID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCarts) FindItem(_ context.Context, cartID, productID string) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCarts) InsertItem(_ context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.seq++
	cp := *item
	// Sequential ids keep FindItems in insertion order.
	cp.ID = fmt.Sprintf("item-%03d", m.seq)
	item.ID = cp.ID
	m.items[cp.ID] = &cp
	return nil
}

func (m *memCarts) UpdateItem(_ context.Context, itemID string, quantity int, totalPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	it.Quantity, it.TotalPrice = quantity, totalPrice
	return nil
}

func (m *memCarts) DeleteItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[itemID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *memCarts) DeleteItems(_ context.Context, cartID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, it := range m.items {
		if it.CartID == cartID {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memCarts) FindItemsByProducts(_ context.Context, productIDs []string) ([]*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range productIDs {
		wanted[id] = true
	}
	out := []*models.CartItem{}
	for _, it := range m.items {
		if wanted[it.ProductID] {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCarts) EnsureIndexes(context.Context) error { return nil }

// --- in-memory user store ---

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: map[string]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

// --- idempotency ---

type memIdem struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func (m *memIdem) Get(_ context.Context, scope, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[scope+":"+key]
	return v, ok, nil
}

func (m *memIdem) Save(_ context.Context, scope, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string][]byte{}
	}
	m.keys[scope+":"+key] = payload
	return nil
}
