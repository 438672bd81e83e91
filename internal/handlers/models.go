package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"modelviewer/internal/middleware"
	"modelviewer/internal/repository"
	"modelviewer/internal/sanitize"
	"modelviewer/internal/service"
)

// nonceField is the form field carrying the anti-forgery token when the
// header is not set.
const nonceField = "wp3d_model_nonce"

type createModelRequest struct {
	Title string `json:"title"`
}

func (h HandlerSet) CreateModel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.models.Create(c.Request.Context(), req.Title, user)
	if err != nil {
		h.modelError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"model":     item,
		"shortcode": service.Shortcode(item.ID),
	})
}

func (h HandlerSet) ListModels(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 20
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	items, err := h.models.List(c.Request.Context(), user, limit, offset)
	if err != nil {
		h.modelError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
	})
}

func (h HandlerSet) GetModel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	record, err := h.models.EditableRecord(c.Request.Context(), id, user)
	if err != nil {
		h.modelError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model":     record,
		"shortcode": service.Shortcode(id),
	})
}

// ModelToken issues the anti-forgery token required by SaveModel.
func (h HandlerSet) ModelToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	nonce, err := h.models.IssueNonce(c.Request.Context(), id, user)
	if err != nil {
		h.modelError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":  nonce,
		"header": middleware.NonceHeader,
	})
}

// SaveModel stores the edit form of one item. Autosave requests are
// acknowledged without writing anything.
func (h HandlerSet) SaveModel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_form"})
		return
	}
	form := c.Request.PostForm

	input := service.SaveRecordInput{
		Form:     form,
		Nonce:    c.GetHeader(middleware.NonceHeader),
		Autosave: sanitize.Bool(form.Get("autosave")) || sanitize.Bool(c.Query("autosave")),
	}
	if input.Nonce == "" {
		input.Nonce = form.Get(nonceField)
	}
	if form.Has("title") {
		title := form.Get("title")
		input.Title = &title
	}

	if err := h.models.SaveRecord(c.Request.Context(), id, input, user); err != nil {
		h.modelError(c, err)
		return
	}

	record, err := h.models.EditableRecord(c.Request.Context(), id, user)
	if err != nil {
		h.modelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model": record,
	})
}

func (h HandlerSet) DeleteModel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	if err := h.models.Delete(c.Request.Context(), id, user); err != nil {
		h.modelError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ModelSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fields": h.models.Schema(),
	})
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func (h HandlerSet) modelError(c *gin.Context, err error) {
	var authErr *service.AuthError
	switch {
	case errors.As(err, &authErr):
		switch authErr.Reason {
		case service.AuthReasonAutosave:
			c.Status(http.StatusNoContent)
		case service.AuthReasonInvalidNonce:
			c.JSON(http.StatusBadRequest, gin.H{"error": string(authErr.Reason)})
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": string(authErr.Reason)})
		}
	case errors.Is(err, service.ErrInvalidAssetRef):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_asset", "message": err.Error()})
	case errors.Is(err, repository.ErrModelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "model_not_found"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("model request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
