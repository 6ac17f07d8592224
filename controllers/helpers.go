package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/khoilion/store-be/common/errors"
	"github.com/khoilion/store-be/middleware"
)

// respondError writes the public message for err with its mapped status.
// Services have already logged anything unexpected.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusCode(err), gin.H{"error": apperrors.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string, details error) {
	body := gin.H{"error": msg}
	if details != nil {
		body["details"] = details.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// pathUUID reads a uuid path parameter, answering 400 when malformed.
func pathUUID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "Invalid UUID format", nil)
		return "", false
	}
	return id, true
}

func currentUser(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
