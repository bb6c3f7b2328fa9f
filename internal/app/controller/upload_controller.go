package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gausamvardhan/storefront-backend/internal/errors"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
	"github.com/gausamvardhan/storefront-backend/internal/storage"
)

type UploadController struct {
	uploader storage.ImageUploader
}

func NewUploadController(uploader storage.ImageUploader) *UploadController {
	return &UploadController{
		uploader: uploader,
	}
}

type PresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// GeneratePresignedURL issues a direct upload URL for a product image (admin)
// POST /api/v1/admin/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}

	resp, err := ctrl.uploader.PresignProductImage(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		var notAllowed *storage.ErrContentTypeNotAllowed
		if errors.As(err, &notAllowed) {
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG and WEBP images are allowed")
			return
		}
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename": req.Filename,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"key": resp.Key,
	})
	c.JSON(http.StatusOK, resp)
}
