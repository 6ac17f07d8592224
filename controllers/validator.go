package controllers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/khoilion/store-be/models"
)

// RequestValidator binds and validates request bodies and catalog query strings.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// BindJSON decodes the body into dst and runs struct validation.
// It writes the 400 response itself and reports whether the caller may proceed.
func (rv *RequestValidator) BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body", err)
		return false
	}
	if err := rv.validate.Struct(dst); err != nil {
		badRequest(c, "Validation failed", err)
		return false
	}
	return true
}

// ParseProductQuery reads the GET /products filters. Range and enum checks
// happen in the service so every entry point shares them.
func (rv *RequestValidator) ParseProductQuery(c *gin.Context) (models.ProductQuery, error) {
	q := models.ProductQuery{
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
		Status:     models.ProductStatus(strings.TrimSpace(c.Query("status"))),
		Name:       strings.TrimSpace(c.Query("name")),
		SortBy:     strings.TrimSpace(c.Query("sortBy")),
	}

	var err error
	if q.Page, err = parseInt(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = parseInt(c, "limit"); err != nil {
		return q, err
	}
	if q.MinPrice, err = parseFloat(c, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parseFloat(c, "maxPrice"); err != nil {
		return q, err
	}
	if q.MinDiscount, err = parseFloat(c, "minDiscount"); err != nil {
		return q, err
	}
	if raw := strings.TrimSpace(c.Query("hasDiscount")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid boolean value for 'hasDiscount'")
		}
		q.HasDiscount = &v
	}
	return q, nil
}

func parseInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value", key)
	}
	return v, nil
}

func parseFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value", key)
	}
	return &v, nil
}
