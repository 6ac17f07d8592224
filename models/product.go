package models

import (
	"strings"
	"time"
)

type ProductStatus string

const (
	ProductStatusInStock      ProductStatus = "IN_STOCK"
	ProductStatusOutOfStock   ProductStatus = "OUT_OF_STOCK"
	ProductStatusDiscontinued ProductStatus = "DISCONTINUED"
)

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusInStock, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

// Variant is a purchasable configuration of a product, e.g. a storage size.
type Variant struct {
	Storage  string  `json:"storage" bson:"storage" dynamodbav:"storage" validate:"required"`
	Price    float64 `json:"price" bson:"price" dynamodbav:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" bson:"quantity" dynamodbav:"quantity" validate:"gte=0"`
}

type Product struct {
	ID             string        `json:"id" bson:"_id"`
	Name           string        `json:"name" bson:"name"`
	Status         ProductStatus `json:"status" bson:"status"`
	Description    *string       `json:"description" bson:"description"`
	Price          float64       `json:"price" bson:"price"`
	Discount       *float64      `json:"discount" bson:"discount"`
	Quantity       int           `json:"quantity" bson:"quantity"`
	Reserved       int           `json:"reserved" bson:"reserved"`
	Images         []string      `json:"images" bson:"images"`
	CategoryID     string        `json:"categoryId" bson:"category_id"`
	Variants       []Variant     `json:"variants" bson:"variants"`
	Specifications *string       `json:"specifications" bson:"specifications"`
	CreatedAt      time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updated_at"`

	// Populated on cart reads only.
	Category *Category `json:"category,omitempty" bson:"-"`
}

// ParseImages splits a comma-joined URL string into trimmed, non-empty entries.
func ParseImages(raw string) []string {
	images := []string{}
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			images = append(images, s)
		}
	}
	return images
}
