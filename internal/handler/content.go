package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/service"
)

// ContentHandler serves the post list and tag catalog.
type ContentHandler struct {
	svc    *service.ThumbService
	logger infralogger.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(svc *service.ThumbService, log infralogger.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, logger: log}
}

// Posts handles GET /api/v1/posts?tags=a&tags=b. Each tags value is one
// whole tag title, so titles may contain commas.
func (h *ContentHandler) Posts(c *gin.Context) {
	posts, err := h.svc.Posts(parseTags(c.QueryArray("tags")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// Tags handles GET /api/v1/tags.
func (h *ContentHandler) Tags(c *gin.Context) {
	tags, err := h.svc.Tags()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

func parseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		if tag := strings.TrimSpace(v); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
