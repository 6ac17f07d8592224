package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/models"
)

type ProductController struct {
	service   ProductServiceAPI
	validator *RequestValidator
}

func NewProductController(s ProductServiceAPI, rv *RequestValidator) *ProductController {
	return &ProductController{service: s, validator: rv}
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req models.ProductCreateRequest
	if !ctrl.validator.BindJSON(c, &req) {
		return
	}

	product, err := ctrl.service.AddProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists one page of the catalog with filters and sort applied.
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	query, err := ctrl.validator.ParseProductQuery(c)
	if err != nil {
		badRequest(c, err.Error(), nil)
		return
	}

	page, err := ctrl.service.GetProducts(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct applies a partial update; absent fields are untouched and
// explicit nulls clear nullable fields.
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.ProductPatch
	if !ctrl.validator.BindJSON(c, &patch) {
		return
	}

	product, err := ctrl.service.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
