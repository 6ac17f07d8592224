package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/models"
)

const IdempotencyHeader = "Idempotency-Key"

type CartController struct {
	service   CartServiceAPI
	validator *RequestValidator
}

func NewCartController(s CartServiceAPI, rv *RequestValidator) *CartController {
	return &CartController{service: s, validator: rv}
}

// AddToCart adds quantity of a product to the caller's cart. A repeated
// Idempotency-Key returns the current cart without adding again.
func (ctrl *CartController) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.AddToCartRequest
	if !ctrl.validator.BindJSON(c, &req) {
		return
	}

	cart, err := ctrl.service.AddToCart(c.Request.Context(), userID, req, c.GetHeader(IdempotencyHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := ctrl.service.GetCartByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdateCartItemRequest
	if !ctrl.validator.BindJSON(c, &req) {
		return
	}

	cart, err := ctrl.service.UpdateCartItem(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}

	cart, err := ctrl.service.RemoveFromCart(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.service.ClearCart(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}
