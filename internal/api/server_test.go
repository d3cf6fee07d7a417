package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/jameskolean/blog-thumbs/infrastructure/gin"
	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/infrastructure/sse"
	"github.com/jameskolean/blog-thumbs/internal/api"
	"github.com/jameskolean/blog-thumbs/internal/config"
	"github.com/jameskolean/blog-thumbs/internal/service"
	"github.com/jameskolean/blog-thumbs/internal/storage"
	"github.com/jameskolean/blog-thumbs/internal/telemetry"
)

func newTestServer(t *testing.T, checks ...api.HealthCheck) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	require.NoError(t, loadDefaults(cfg))
	cfg.Service.Port = 18070
	cfg.RateLimit.MaxVotes = 2

	log := infralogger.NewNop()
	buf := storage.NewBuffer(10)
	metrics := telemetry.New(buf.Len)
	svc := service.NewThumbService(storage.NewMemoryRepository(), buf, log, service.WithRecorder(metrics))

	broker := sse.NewBroker(log, sse.WithMaxClients(1))
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	srv := api.NewServer(cfg, api.Deps{
		Service: svc,
		Broker:  broker,
		Metrics: metrics,
		Logger:  log,
		Done:    done,
	}, checks...)
	return srv.Router()
}

// loadDefaults loads a missing file so only defaults apply.
func loadDefaults(cfg *config.Config) error {
	loaded, err := config.Load("testdata/does-not-exist.yml")
	if err != nil {
		return err
	}
	*cfg = *loaded
	cfg.Storage.Driver = config.DriverMemory
	return nil
}

func request(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.RemoteAddr = "10.0.0.1:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/none.env")
	r := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/thumbs", http.StatusOK},
		{http.MethodGet, "/functions/all-thumbs-up", http.StatusOK},
		{http.MethodGet, "/functions/thumbs-up?slug=hello", http.StatusOK},
		{http.MethodGet, "/api/v1/thumbs/hello", http.StatusNotFound},
		{http.MethodGet, "/api/v1/posts", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/v1/thumbs/hello/up", http.StatusAccepted},
		{http.MethodPost, "/api/v1/thumbs/hello/down", http.StatusAccepted},
		{http.MethodPost, "/api/v1/thumbs/hello/up", http.StatusTooManyRequests},
		{http.MethodPost, "/api/v1/admin/flush", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		w := request(r, tt.method, tt.path)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}

	w := request(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `blog_thumbs_votes_total{direction="up",result="accepted"} 1`))
}

func TestHealthCheckFailure(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/none.env")
	failing := func(b *infragin.ServerBuilder) *infragin.ServerBuilder {
		return b.WithDatabaseHealthCheck(func(context.Context) error {
			return errors.New("connection refused")
		})
	}
	r := newTestServer(t, failing)

	w := request(r, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEventsStream(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/none.env")
	r := newTestServer(t)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
}
