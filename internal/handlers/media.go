package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modelviewer/internal/middleware"
	"modelviewer/internal/service"
)

type uploadResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	MimeType  string    `json:"mimeType"`
	Status    string    `json:"status"`
	Extension string    `json:"extension"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h HandlerSet) UploadMedia(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		User:   user,
		File:   file,
		Header: header,
	})
	if err != nil {
		status, code := uploadError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("upload failed")
		}
		c.JSON(status, gin.H{"error": code})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"asset": uploadResponse{
			ID:        result.Asset.ID,
			Filename:  result.Asset.Filename,
			URL:       result.URL,
			Kind:      string(result.Asset.Kind),
			MimeType:  result.Asset.MimeType,
			Status:    string(result.Asset.Status),
			Extension: result.Asset.Extension,
			SizeBytes: result.Asset.SizeBytes,
			CreatedAt: result.Asset.CreatedAt,
		},
	})
}

func uploadError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, service.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type"
	case errors.Is(err, service.ErrTypeNotAllowed):
		return http.StatusUnsupportedMediaType, "type_not_allowed"
	case errors.Is(err, service.ErrTypeMismatch):
		return http.StatusBadRequest, "type_mismatch"
	case errors.Is(err, service.ErrEmptyFile):
		return http.StatusBadRequest, "empty_file"
	case errors.Is(err, service.ErrInvalidUpload):
		return http.StatusBadRequest, "invalid_upload"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// UploadMimes lists the extensions the upload form accepts.
func (h HandlerSet) UploadMimes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mimes": h.uploads.AcceptedTypes(c.Request.Context()),
	})
}
