package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoilion/store-be/models"
)

type AuthController struct {
	service   AuthServiceAPI
	validator *RequestValidator
}

func NewAuthController(s AuthServiceAPI, rv *RequestValidator) *AuthController {
	return &AuthController{service: s, validator: rv}
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var req models.CredentialsRequest
	if !ctrl.validator.BindJSON(c, &req) {
		return
	}

	user, err := ctrl.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ctrl *AuthController) Login(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := ctrl.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ctrl *AuthController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := ctrl.service.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
