package api

import (
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/jameskolean/blog-thumbs/infrastructure/gin"
	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/sse"
	"github.com/jameskolean/blog-thumbs/internal/handler"
	"github.com/jameskolean/blog-thumbs/internal/middleware"
	"github.com/jameskolean/blog-thumbs/internal/service"
	"github.com/jameskolean/blog-thumbs/internal/telemetry"
)

// Deps holds everything the routes need.
type Deps struct {
	Service   *service.ThumbService
	Broker    sse.Broker
	Metrics   *telemetry.Metrics
	Logger    infralogger.Logger
	JWTSecret string

	MaxVotes        int
	RateLimitWindow time.Duration
	SSEHeartbeat    time.Duration
	// Done stops the rate limiter's cleanup goroutine.
	Done <-chan struct{}
}

// SetupRoutes configures all API routes.
// Health routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, deps Deps) {
	thumbs := handler.NewThumbHandler(deps.Service, deps.Logger)
	content := handler.NewContentHandler(deps.Service, deps.Logger)
	admin := handler.NewAdminHandler(deps.Service, deps.Broker, deps.Logger)

	if deps.Metrics != nil {
		router.Use(deps.Metrics.HTTP.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/thumbs", thumbs.List)
	v1.GET("/thumbs/:slug", thumbs.Get)
	v1.GET("/posts", content.Posts)
	v1.GET("/tags", content.Tags)
	if deps.Broker != nil {
		v1.GET("/events", sse.Handler(deps.Broker, deps.SSEHeartbeat, deps.Logger,
			sse.WithTypes(service.EventThumbsUpdated)))
	}

	// Votes with bot filter and rate limiting
	votes := v1.Group("/thumbs/:slug")
	votes.Use(middleware.BotFilter())
	votes.Use(middleware.RateLimiter(deps.MaxVotes, deps.RateLimitWindow, deps.Done))
	votes.POST("/up", thumbs.Up)
	votes.POST("/down", thumbs.Down)

	adminGroup := infragin.ProtectedGroup(v1, "/admin", deps.JWTSecret)
	adminGroup.POST("/flush", admin.Flush)
	adminGroup.GET("/stats", admin.Stats)

	// Paths of the original serverless functions
	legacy := router.Group("/functions")
	legacy.GET("/all-thumbs-up", thumbs.List)
	legacy.GET("/thumbs-up", thumbs.LegacyGet)
}
