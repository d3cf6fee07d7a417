package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infrajwt "github.com/jameskolean/blog-thumbs/infrastructure/jwt"
	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/sse"
	"github.com/jameskolean/blog-thumbs/internal/service"
)

// AdminHandler serves operator endpoints behind JWT auth.
type AdminHandler struct {
	svc    *service.ThumbService
	broker sse.Broker
	logger infralogger.Logger
}

// NewAdminHandler creates an AdminHandler. broker may be nil.
func NewAdminHandler(svc *service.ThumbService, broker sse.Broker, log infralogger.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, broker: broker, logger: log}
}

// Flush handles POST /api/v1/admin/flush.
func (h *AdminHandler) Flush(c *gin.Context) {
	n, err := h.svc.Flush(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	subject := ""
	if claims, ok := infrajwt.GetClaims(c); ok {
		subject = claims.Subject
	}
	h.logger.Info("Manual flush",
		infralogger.Int("votes", n),
		infralogger.String("subject", subject),
	)
	c.JSON(http.StatusOK, gin.H{"flushed": n})
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats := h.svc.Stats()
	clients := 0
	if h.broker != nil {
		clients = h.broker.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"buffer_depth":    stats.BufferDepth,
		"buffer_capacity": stats.BufferCapacity,
		"posts":           stats.Posts,
		"tags":            stats.Tags,
		"sse_clients":     clients,
	})
}
