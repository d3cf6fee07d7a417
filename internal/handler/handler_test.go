package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrajwt "github.com/jameskolean/blog-thumbs/infrastructure/jwt"
	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/content"
	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/handler"
	"github.com/jameskolean/blog-thumbs/internal/middleware"
	"github.com/jameskolean/blog-thumbs/internal/service"
	"github.com/jameskolean/blog-thumbs/internal/storage"
)

const (
	testBufferCapacity = 2
	testSecret         = "test-secret"
	browserUA          = "Mozilla/5.0 (X11; Linux x86_64)"
)

type fixture struct {
	router *gin.Engine
	buffer *storage.Buffer
	repo   *storage.MemoryRepository
}

func setupRouter(t *testing.T, opts ...service.Option) fixture {
	t.Helper()

	gin.SetMode(gin.TestMode)
	log := infralogger.NewNop()
	repo := storage.NewMemoryRepository(domain.Thumb{Slug: "rated", UpCount: 3, DownCount: 1})
	buf := storage.NewBuffer(testBufferCapacity)
	svc := service.NewThumbService(repo, buf, log, opts...)

	flusher := storage.NewFlusher(repo, buf, log, storage.WithFlushInterval(time.Hour))
	svc.AttachFlusher(flusher)
	flusher.Start()
	t.Cleanup(flusher.Stop)

	thumbs := handler.NewThumbHandler(svc, log)
	contentHandler := handler.NewContentHandler(svc, log)
	admin := handler.NewAdminHandler(svc, nil, log)

	r := gin.New()
	r.Use(middleware.BotFilter())
	r.GET("/api/v1/thumbs", thumbs.List)
	r.GET("/api/v1/thumbs/:slug", thumbs.Get)
	r.POST("/api/v1/thumbs/:slug/up", thumbs.Up)
	r.POST("/api/v1/thumbs/:slug/down", thumbs.Down)
	r.GET("/functions/all-thumbs-up", thumbs.List)
	r.GET("/functions/thumbs-up", thumbs.LegacyGet)
	r.GET("/api/v1/posts", contentHandler.Posts)
	r.GET("/api/v1/tags", contentHandler.Tags)
	adminGroup := r.Group("/api/v1/admin", infrajwt.Middleware(testSecret))
	adminGroup.POST("/flush", admin.Flush)
	adminGroup.GET("/stats", admin.Stats)

	return fixture{router: r, buffer: buf, repo: repo}
}

func do(t *testing.T, r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, http.NoBody)
	req.Header.Set("User-Agent", browserUA)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestList(t *testing.T) {
	f := setupRouter(t)

	for _, path := range []string{"/api/v1/thumbs", "/functions/all-thumbs-up"} {
		w := do(t, f.router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `[{"slug":"rated","upCount":3,"downCount":1}]`, w.Body.String(), path)
	}
}

func TestGet(t *testing.T) {
	f := setupRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"rated", "/api/v1/thumbs/rated", http.StatusOK, `{"slug":"rated","upCount":3,"downCount":1}`},
		{"unrated", "/api/v1/thumbs/unrated", http.StatusNotFound, `{"error":"not rated"}`},
		{"invalid slug", "/api/v1/thumbs/Not_Valid", http.StatusBadRequest, ""},
		{"legacy rated", "/functions/thumbs-up?slug=rated", http.StatusOK, `{"slug":"rated","upCount":3,"downCount":1}`},
		{"legacy unrated", "/functions/thumbs-up?slug=unrated", http.StatusOK, `null`},
		{"legacy missing slug", "/functions/thumbs-up", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, f.router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestVote(t *testing.T) {
	f := setupRouter(t)

	w := do(t, f.router, http.MethodPost, "/api/v1/thumbs/hello/up", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"slug":"hello","direction":"up"}`, w.Body.String())

	w = do(t, f.router, http.MethodPost, "/api/v1/thumbs/hello/down", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 2, f.buffer.Len())

	// Buffer capacity is 2.
	w = do(t, f.router, http.MethodPost, "/api/v1/thumbs/hello/up", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, f.router, http.MethodPost, "/api/v1/thumbs/-bad/up", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVote_BotNotCounted(t *testing.T) {
	f := setupRouter(t)

	w := do(t, f.router, http.MethodPost, "/api/v1/thumbs/hello/up", map[string]string{
		"User-Agent": "Googlebot/2.1 (+http://www.google.com/bot.html)",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Zero(t, f.buffer.Len())
}

func TestAdmin(t *testing.T) {
	f := setupRouter(t)

	w := do(t, f.router, http.MethodPost, "/api/v1/admin/flush", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := infrajwt.IssueToken(testSecret, "operator", time.Minute)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	do(t, f.router, http.MethodPost, "/api/v1/thumbs/rated/up", nil)

	w = do(t, f.router, http.MethodGet, "/api/v1/admin/stats", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats["buffer_depth"])
	assert.Equal(t, testBufferCapacity, stats["buffer_capacity"])

	w = do(t, f.router, http.MethodPost, "/api/v1/admin/flush", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flushed":1}`, w.Body.String())

	got, err := f.repo.BySlug(context.Background(), "rated")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.UpCount)
}

func TestContent(t *testing.T) {
	f := setupRouter(t)
	w := do(t, f.router, http.MethodGet, "/api/v1/posts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	dir := t.TempDir()
	files := map[string]string{
		"one.md":   "---\nslug: one\ntitle: One\npublished: true\ndate: 2020-01-01\ntags: [Go, Gin]\n---\n",
		"two.md":   "---\nslug: two\ntitle: Two\npublished: true\ndate: 2021-01-01\ntags: [Go]\n---\n",
		"three.md": "---\nslug: three\ntitle: Three\npublished: true\ndate: 2022-01-01\n---\n",
		"four.md":  "---\nslug: four\ntitle: Four\npublished: true\ndate: 2023-01-01\ntags: [\"Go, Advanced\"]\n---\n",
		"go.md":    "---\ntemplate: Tag\ntitle: Go\n---\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	source, err := content.NewSource(dir)
	require.NoError(t, err)

	f = setupRouter(t, service.WithContent(source, true))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"four", "three", "two", "one"}},
		{"?tags=Go", []string{"two", "one"}},
		{"?tags=Go&tags=Gin", []string{"one"}},
		{"?tags=Go&tags=", []string{"two", "one"}},
		{"?tags=Go%2C%20Advanced", []string{"four"}},
		{"?tags=Go,Gin", []string{}},
		{"?tags=Rust", []string{}},
	}
	for _, tt := range tests {
		w := do(t, f.router, http.MethodGet, "/api/v1/posts"+tt.query, nil)
		require.Equal(t, http.StatusOK, w.Code, tt.query)

		var body struct {
			Posts []domain.Post `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		got := make([]string, 0, len(body.Posts))
		for _, p := range body.Posts {
			got = append(got, p.Slug)
		}
		assert.Equal(t, tt.want, got, tt.query)
	}

	w = do(t, f.router, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":[{"slug":"go","title":"Go"}],"count":1}`, w.Body.String())

	// Known-slug check is on for this router.
	w = do(t, f.router, http.MethodPost, "/api/v1/thumbs/nope/up", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, f.router, http.MethodPost, "/api/v1/thumbs/two/up", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
