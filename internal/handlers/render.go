package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"modelviewer/internal/viewer"
)

// instanceParam numbers embeds sharing one page so that each gets its own
// viewer ID.
const instanceParam = "instance"

// Embed renders the viewer of one stored item as an HTML fragment. Query
// parameters override the stored settings the same way shortcode attributes do.
func (h HandlerSet) Embed(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	query := c.Request.URL.Query()
	instance, ok := parseInstance(query.Get(instanceParam))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_instance"})
		return
	}
	query.Del(instanceParam)

	overrides := make(map[string]string, len(query))
	for key := range query {
		overrides[key] = query.Get(key)
	}

	markup := h.render.RenderItem(c.Request.Context(), id, overrides, instance)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

type shortcodeRequest struct {
	Content string `json:"content"`
}

// RenderShortcode expands every viewer shortcode in a piece of content.
func (h HandlerSet) RenderShortcode(c *gin.Context) {
	var req shortcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html": h.render.RenderShortcodes(c.Request.Context(), req.Content),
	})
}

type blockRequest struct {
	Attributes viewer.BlockAttributes `json:"attributes"`
	Instance   int                    `json:"instance"`
}

func (h HandlerSet) RenderBlock(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Instance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_instance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html": h.render.RenderBlock(c.Request.Context(), req.Attributes, max(req.Instance, 1)),
	})
}

func parseInstance(raw string) (int, bool) {
	if raw == "" {
		return 1, true
	}
	instance, err := strconv.Atoi(raw)
	if err != nil || instance < 1 {
		return 0, false
	}
	return instance, true
}
