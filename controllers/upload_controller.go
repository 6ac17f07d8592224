package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	service UploadServiceAPI
}

func NewUploadController(s UploadServiceAPI) *UploadController {
	return &UploadController{service: s}
}

// GetPresignedURL issues a signed PUT URL for a product image.
// An unparsable or non-positive expires falls back to the default.
func (ctrl *UploadController) GetPresignedURL(c *gin.Context) {
	var expires time.Duration
	if raw := c.Query("expires"); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
			expires = time.Duration(secs) * time.Second
		}
	}

	upload, err := ctrl.service.PresignUpload(c.Request.Context(), c.Query("objectName"), c.Query("contentType"), expires)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
