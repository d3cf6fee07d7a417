package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jameskolean/blog-thumbs/internal/middleware"
)

const testRateLimit = 3

func newLimitedRouter(t *testing.T, maxVotes int, window time.Duration) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	r := gin.New()
	r.Use(middleware.RateLimiter(maxVotes, window, done))
	r.POST("/thumbs/:slug/up", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func vote(r http.Handler, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/thumbs/hello/up", http.NoBody)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	r := newLimitedRouter(t, testRateLimit, time.Minute)

	if code := vote(r, "1.2.3.4:1234"); code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", code)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	r := newLimitedRouter(t, testRateLimit, time.Minute)

	for i := range testRateLimit {
		if code := vote(r, "1.2.3.4:1234"); code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i, code)
		}
	}

	// The burst is spent and a minute/3 refill has not elapsed.
	if code := vote(r, "1.2.3.4:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	r := newLimitedRouter(t, 1, time.Minute)

	if code := vote(r, "1.1.1.1:1234"); code != http.StatusAccepted {
		t.Fatalf("IP1: expected 202, got %d", code)
	}
	if code := vote(r, "1.1.1.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("IP1 second vote: expected 429, got %d", code)
	}
	if code := vote(r, "2.2.2.2:1234"); code != http.StatusAccepted {
		t.Fatalf("IP2: expected 202, got %d", code)
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	r := newLimitedRouter(t, 2, 100*time.Millisecond)

	vote(r, "9.9.9.9:1")
	vote(r, "9.9.9.9:1")
	if code := vote(r, "9.9.9.9:1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}

	time.Sleep(120 * time.Millisecond)
	if code := vote(r, "9.9.9.9:1"); code != http.StatusAccepted {
		t.Fatalf("expected 202 after refill, got %d", code)
	}
}
