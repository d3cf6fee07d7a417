package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/middleware"
	"github.com/jameskolean/blog-thumbs/internal/service"
)

// ThumbHandler serves rating reads and vote intake.
type ThumbHandler struct {
	svc    *service.ThumbService
	logger infralogger.Logger
}

// NewThumbHandler creates a ThumbHandler.
func NewThumbHandler(svc *service.ThumbService, log infralogger.Logger) *ThumbHandler {
	return &ThumbHandler{svc: svc, logger: log}
}

// List handles GET /api/v1/thumbs and the legacy /functions/all-thumbs-up.
func (h *ThumbHandler) List(c *gin.Context) {
	thumbs, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, thumbs)
}

// Get handles GET /api/v1/thumbs/:slug. Unrated slugs are 404.
func (h *ThumbHandler) Get(c *gin.Context) {
	thumb, err := h.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if thumb == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not rated"})
		return
	}
	c.JSON(http.StatusOK, thumb)
}

// LegacyGet handles GET /functions/thumbs-up?slug=. Unrated slugs return
// 200 with a null body, as the serverless function did.
func (h *ThumbHandler) LegacyGet(c *gin.Context) {
	thumb, err := h.svc.Get(c.Request.Context(), c.Query("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, thumb)
}

// Up handles POST /api/v1/thumbs/:slug/up.
func (h *ThumbHandler) Up(c *gin.Context) {
	h.vote(c, domain.Up)
}

// Down handles POST /api/v1/thumbs/:slug/down.
func (h *ThumbHandler) Down(c *gin.Context) {
	h.vote(c, domain.Down)
}

func (h *ThumbHandler) vote(c *gin.Context, dir domain.Direction) {
	slug := c.Param("slug")
	if err := h.svc.Vote(c.Request.Context(), slug, dir, middleware.IsBot(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"slug": slug, "direction": dir})
}
