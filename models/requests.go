package models

// ProductCreateRequest is the body of POST /products. Images is a comma-joined URL list.
type ProductCreateRequest struct {
	Name              string        `json:"name" validate:"required"`
	Status            ProductStatus `json:"status" validate:"required"`
	Description       *string       `json:"description"`
	Price             float64       `json:"price" validate:"gte=0"`
	Discount          *float64      `json:"discount" validate:"omitempty,gte=0"`
	Quantity          int           `json:"quantity" validate:"gte=0"`
	CategoryProductID string        `json:"categoryProductId" validate:"required,uuid"`
	Images            string        `json:"images"`
	Specifications    *string       `json:"specifications"`
	Variants          []Variant     `json:"variants" validate:"omitempty,dive"`
}

// ProductPatch is the body of PUT /products/:id with absent/null/value semantics per field.
type ProductPatch struct {
	Name              Optional[string]        `json:"name"`
	Status            Optional[ProductStatus] `json:"status"`
	Description       Optional[string]        `json:"description"`
	Price             Optional[float64]       `json:"price"`
	Discount          Optional[float64]       `json:"discount"`
	Quantity          Optional[int]           `json:"quantity"`
	CategoryProductID Optional[string]        `json:"categoryProductId"`
	Images            Optional[string]        `json:"images"`
	Specifications    Optional[string]        `json:"specifications"`
	Variants          Optional[[]Variant]     `json:"variants"`
}

type CategoryCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description"`
}

type CategoryPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateCartItemRequest.Quantity is a pointer so a missing field is rejected instead of
// decoding to 0, which would remove the line.
type UpdateCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0"`
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProductQuery is the parsed form of GET /products.
type ProductQuery struct {
	CategoryID  string
	Status      ProductStatus
	Name        string
	MinPrice    *float64
	MaxPrice    *float64
	HasDiscount *bool
	MinDiscount *float64
	SortBy      string
	Page        int
	Limit       int
}

// Pagination is the metadata returned alongside a product page.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination derives page metadata; totalPages is ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		ItemsPerPage:    limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
