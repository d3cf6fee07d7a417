// Package api assembles the blog-thumbs HTTP server.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/jameskolean/blog-thumbs/infrastructure/gin"
	"github.com/jameskolean/blog-thumbs/internal/config"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// NewServer creates a new HTTP server. Zero values in deps fall back to cfg.
func NewServer(cfg *config.Config, deps Deps, checks ...HealthCheck) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(deps.Logger).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout)

	for _, check := range checks {
		builder = check(builder)
	}

	if deps.MaxVotes == 0 {
		deps.MaxVotes = cfg.RateLimit.MaxVotes
	}
	if deps.RateLimitWindow == 0 {
		deps.RateLimitWindow = cfg.RateLimit.Window
	}
	if deps.SSEHeartbeat == 0 {
		deps.SSEHeartbeat = cfg.Events.Heartbeat
	}
	if deps.JWTSecret == "" {
		deps.JWTSecret = cfg.Auth.JWTSecret
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, deps)
		}).
		Build()
}

// HealthCheck adds a dependency check to the server builder.
type HealthCheck func(*infragin.ServerBuilder) *infragin.ServerBuilder
