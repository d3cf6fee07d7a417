package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/jameskolean/blog-thumbs/infrastructure/gin"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

func TestHealth_AllChecksPass(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName:    "blog-thumbs",
		ServiceVersion: "test",
		Checks: map[string]infragin.HealthChecker{
			"database": infragin.PingHealthChecker("database", infragin.HealthStatusUnhealthy,
				func(context.Context) error { return nil }),
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)

	var body infragin.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, infragin.HealthStatusHealthy, body.Status)
	assert.Equal(t, "blog-thumbs", body.Service)
	assert.Equal(t, infragin.HealthStatusHealthy, body.Checks["database"].Status)
}

func TestHealth_FailingCheckIsUnavailable(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName: "blog-thumbs",
		Checks: map[string]infragin.HealthChecker{
			"redis": infragin.PingHealthChecker("redis", infragin.HealthStatusUnhealthy,
				func(context.Context) error { return errors.New("connection refused") }),
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth_MemoryEndpoint(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{ServiceName: "blog-thumbs"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/memory", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "num_goroutine")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://jameskolean.tech"},
	}))
	router.POST("/api/v1/thumbs/:slug/up", func(c *ginpkg.Context) { c.Status(http.StatusAccepted) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/thumbs/hello/up", http.NoBody)
	req.Header.Set("Origin", "https://jameskolean.tech")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://jameskolean.tech", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/thumbs/hello/up", http.NoBody)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
