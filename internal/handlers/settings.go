package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings": h.settings.GetDefaults(c.Request.Context()),
	})
}

// SaveSettings takes the settings page form and replaces the stored record.
func (h HandlerSet) SaveSettings(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_form"})
		return
	}

	saved, err := h.settings.SaveDefaults(c.Request.Context(), c.Request.PostForm)
	if err != nil {
		h.log.Error().Err(err).Msg("save settings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings": saved,
	})
}

// ResetSettings drops the stored record so every key reads its fallback.
func (h HandlerSet) ResetSettings(c *gin.Context) {
	if err := h.settings.Reset(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("reset settings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.Status(http.StatusNoContent)
}
