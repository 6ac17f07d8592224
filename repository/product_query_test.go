package repository

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/khoilion/store-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func productSet(n int) []*models.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.Product{
			ID:        fmt.Sprintf("p-%02d", i),
			Name:      fmt.Sprintf("Item %02d", i),
			Status:    models.ProductStatusInStock,
			Price:     float64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestApplyProductQueryLastPage(t *testing.T) {
	page, total := ApplyProductQuery(productSet(25), models.ProductQuery{Page: 3, Limit: 10})
	assert.Equal(t, int64(25), total)
	require.Len(t, page, 5)

	p := models.NewPagination(3, 10, total)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
}

func TestApplyProductQueryPageBeyondEnd(t *testing.T) {
	page, total := ApplyProductQuery(productSet(5), models.ProductQuery{Page: 4, Limit: 10})
	assert.Equal(t, int64(5), total)
	assert.Empty(t, page)
}

func TestApplyProductQueryHugePageIsEmpty(t *testing.T) {
	page, total := ApplyProductQuery(productSet(25), models.ProductQuery{Page: math.MaxInt/10 + 7, Limit: 10})
	assert.Equal(t, int64(25), total)
	assert.Empty(t, page)
}

func TestPageOffset(t *testing.T) {
	off, ok := PageOffset(3, 10)
	assert.True(t, ok)
	assert.Equal(t, 20, off)

	off, ok = PageOffset(0, 10)
	assert.True(t, ok)
	assert.Equal(t, 0, off)

	_, ok = PageOffset(math.MaxInt/10+7, 10)
	assert.False(t, ok)

	_, ok = PageOffset(math.MaxInt, 100)
	assert.False(t, ok)
}

func TestSortProductsByName(t *testing.T) {
	products := []*models.Product{{ID: "1", Name: "b"}, {ID: "2", Name: "A"}, {ID: "3", Name: "c"}}
	SortProducts(products, SortNameAsc)
	assert.Equal(t, []string{"A", "b", "c"}, []string{products[0].Name, products[1].Name, products[2].Name})

	SortProducts(products, SortNameDesc)
	assert.Equal(t, "c", products[0].Name)
}

func TestSortProductsNewestFirst(t *testing.T) {
	products := productSet(3)
	SortProducts(products, "")
	assert.Equal(t, "p-02", products[0].ID)
	assert.Equal(t, "p-00", products[2].ID)

	SortProducts(products, SortOldest)
	assert.Equal(t, "p-00", products[0].ID)
}

func TestSortProductsPriceTieBreaksByCreation(t *testing.T) {
	products := productSet(3)
	for _, p := range products {
		p.Price = 10
	}
	products[1].Price = 5
	SortProducts(products, SortPriceDesc)
	assert.Equal(t, []string{"p-00", "p-02", "p-01"}, []string{products[0].ID, products[1].ID, products[2].ID})
}

func TestMatchProductDiscount(t *testing.T) {
	none := &models.Product{Name: "none"}
	zero := &models.Product{Name: "zero", Discount: fptr(0)}
	some := &models.Product{Name: "some", Discount: fptr(15)}

	without := models.ProductQuery{HasDiscount: bptr(false)}
	assert.True(t, MatchProduct(none, without))
	assert.True(t, MatchProduct(zero, without))
	assert.False(t, MatchProduct(some, without))

	with := models.ProductQuery{HasDiscount: bptr(true), MinDiscount: fptr(10)}
	assert.False(t, MatchProduct(none, with))
	assert.True(t, MatchProduct(some, with))

	assert.False(t, MatchProduct(some, models.ProductQuery{MinDiscount: fptr(20)}))
}

func TestMatchProductNameAndPrice(t *testing.T) {
	p := &models.Product{Name: "Galaxy Phone", Price: 499, CategoryID: "c-1", Status: models.ProductStatusInStock}
	assert.True(t, MatchProduct(p, models.ProductQuery{Name: "phone", MinPrice: fptr(100), MaxPrice: fptr(499)}))
	assert.False(t, MatchProduct(p, models.ProductQuery{MaxPrice: fptr(498)}))
	assert.False(t, MatchProduct(p, models.ProductQuery{CategoryID: "c-2"}))
	assert.False(t, MatchProduct(p, models.ProductQuery{Status: models.ProductStatusOutOfStock}))
}

func TestBuildProductFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildProductFilter(models.ProductQuery{}))
	assert.Equal(t, bson.M{"category_id": "c-1"}, buildProductFilter(models.ProductQuery{CategoryID: "c-1"}))

	f := buildProductFilter(models.ProductQuery{CategoryID: "c-1", MinPrice: fptr(10), HasDiscount: bptr(false)})
	clauses, ok := f["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, clauses, 3)
	assert.Contains(t, clauses[2], "$or")
}

func TestBuildProductSortDefaultsToNewest(t *testing.T) {
	s := buildProductSort("")
	require.Len(t, s, 2)
	assert.Equal(t, "created_at", s[0].Key)
	assert.Equal(t, -1, s[0].Value)
	assert.True(t, IsSupportedSort(SortPriceAsc))
	assert.False(t, IsSupportedSort("rating"))
}
