package models

import "time"

// Cart holds denormalized totals that always mirror its stored items.
type Cart struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"userId" bson:"user_id"`
	TotalAmount float64   `json:"totalAmount" bson:"total_amount"`
	TotalItems  int       `json:"totalItems" bson:"total_items"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`

	Items []CartItem `json:"items" bson:"-"`
}

// CartItem keeps the unit price captured when the product was first added.
type CartItem struct {
	ID         string    `json:"id" bson:"_id"`
	CartID     string    `json:"cartId" bson:"cart_id"`
	ProductID  string    `json:"productId" bson:"product_id"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Price      float64   `json:"price" bson:"price"`
	TotalPrice float64   `json:"totalPrice" bson:"total_price"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at"`

	Product *Product `json:"product,omitempty" bson:"-"`
}
