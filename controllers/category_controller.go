package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/models"
)

type CategoryController struct {
	service   CategoryServiceAPI
	validator *RequestValidator
}

func NewCategoryController(s CategoryServiceAPI, rv *RequestValidator) *CategoryController {
	return &CategoryController{service: s, validator: rv}
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CategoryCreateRequest
	if !ctrl.validator.BindJSON(c, &req) {
		return
	}

	category, err := ctrl.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	categories, err := ctrl.service.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	category, err := ctrl.service.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch models.CategoryPatch
	if !ctrl.validator.BindJSON(c, &patch) {
		return
	}

	category, err := ctrl.service.UpdateCategory(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes the category together with its products.
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	removed, err := ctrl.service.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Category deleted successfully",
		"productsRemoved": removed,
	})
}
