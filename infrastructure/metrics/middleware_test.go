package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newRouter(t *testing.T) (*gin.Engine, *HTTPMetrics) {
	t.Helper()

	m := NewHTTPMetrics(prometheus.NewRegistry(), "test")
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, m
}

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	t.Parallel()
	router, m := newRouter(t)

	for _, path := range []string{"/items/1", "/items/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	if got != 2 {
		t.Errorf("requests{route=/items/:id} = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
	if active := testutil.ToFloat64(m.active); active != 0 {
		t.Errorf("active = %v, want 0", active)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	t.Parallel()
	router, m := newRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", http.NoBody))

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	if got != 1 {
		t.Errorf("requests{route=unmatched} = %v, want 1", got)
	}
}
