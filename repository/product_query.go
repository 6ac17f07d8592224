package repository

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/khoilion/store-be/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortNewest    = "newest"
	SortOldest    = "oldest"
)

// IsSupportedSort reports whether s is a known sort key.
func IsSupportedSort(s string) bool {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortNewest, SortOldest:
		return true
	}
	return false
}

// buildProductFilter ANDs every requested predicate. hasDiscount=false matches a null,
// missing or zero discount.
func buildProductFilter(q models.ProductQuery) bson.M {
	var clauses []bson.M

	if q.CategoryID != "" {
		clauses = append(clauses, bson.M{"category_id": q.CategoryID})
	}
	if q.Status != "" {
		clauses = append(clauses, bson.M{"status": q.Status})
	}
	if name := strings.TrimSpace(q.Name); name != "" {
		clauses = append(clauses, bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}})
	}
	if q.MinPrice != nil {
		clauses = append(clauses, bson.M{"price": bson.M{"$gte": *q.MinPrice}})
	}
	if q.MaxPrice != nil {
		clauses = append(clauses, bson.M{"price": bson.M{"$lte": *q.MaxPrice}})
	}
	if q.HasDiscount != nil {
		if *q.HasDiscount {
			clauses = append(clauses, bson.M{"discount": bson.M{"$gt": 0}})
		} else {
			clauses = append(clauses, bson.M{"$or": bson.A{
				bson.M{"discount": nil},
				bson.M{"discount": 0},
			}})
		}
	}
	if q.MinDiscount != nil {
		clauses = append(clauses, bson.M{"discount": bson.M{"$gte": *q.MinDiscount}})
	}

	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	default:
		return bson.M{"$and": clauses}
	}
}

// buildProductSort orders by one key, breaking ties by creation order then id. created_at
// is stored at millisecond precision and product ids are UUIDv7, so the id tie-break
// keeps insertion order within a millisecond.
func buildProductSort(sortBy string) bson.D {
	switch sortBy {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortNameAsc:
		return bson.D{{Key: "name", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortNameDesc:
		return bson.D{{Key: "name", Value: -1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// MatchProduct is the in-memory equivalent of buildProductFilter.
func MatchProduct(p *models.Product, q models.ProductQuery) bool {
	if q.CategoryID != "" && p.CategoryID != q.CategoryID {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if name := strings.TrimSpace(q.Name); name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	discount := 0.0
	if p.Discount != nil {
		discount = *p.Discount
	}
	if q.HasDiscount != nil && (discount > 0) != *q.HasDiscount {
		return false
	}
	if q.MinDiscount != nil && (p.Discount == nil || *p.Discount < *q.MinDiscount) {
		return false
	}
	return true
}

// SortProducts is the in-memory equivalent of buildProductSort. Name comparison is
// case-insensitive to match the collation used by the Mongo repository.
func SortProducts(products []*models.Product, sortBy string) {
	byCreation := func(a, b *models.Product) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}

	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch sortBy {
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case SortNameAsc, SortNameDesc:
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				if sortBy == SortNameAsc {
					return an < bn
				}
				return an > bn
			}
		case SortOldest:
		default:
			return byCreation(b, a)
		}
		return byCreation(a, b)
	})
}

// PageOffset returns the number of rows before page. ok is false when the offset does
// not fit in an int, which callers treat as a page past the end.
func PageOffset(page, limit int) (offset int, ok bool) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return 0, true
	}
	if page-1 > (math.MaxInt-limit)/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

// ApplyProductQuery filters, sorts and pages an in-memory product set. It returns the
// page and the number of matches before paging.
func ApplyProductQuery(all []*models.Product, q models.ProductQuery) ([]*models.Product, int64) {
	matched := make([]*models.Product, 0, len(all))
	for _, p := range all {
		if MatchProduct(p, q) {
			matched = append(matched, p)
		}
	}
	SortProducts(matched, q.SortBy)

	total := int64(len(matched))
	if q.Limit <= 0 {
		return matched, total
	}
	start, ok := PageOffset(q.Page, q.Limit)
	if !ok || start < 0 || start >= len(matched) {
		return []*models.Product{}, total
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}
