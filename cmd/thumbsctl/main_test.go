package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCounterServer fakes the thumbs service API.
func newCounterServer(t *testing.T, votes *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/thumbs", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"slug":"alpha","upCount":7,"downCount":2}]`))
	})
	mux.HandleFunc("GET /api/v1/thumbs/alpha", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"slug":"alpha","upCount":7,"downCount":2}`))
	})
	mux.HandleFunc("GET /api/v1/thumbs/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not rated"}`))
	})
	mux.HandleFunc("POST /api/v1/thumbs/alpha/up", func(w http.ResponseWriter, _ *http.Request) {
		votes.Add(1)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"slug":"alpha","direction":"up"}`))
	})
	mux.HandleFunc("GET /api/v1/posts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"posts":[
			{"slug":"alpha","title":"Alpha","tags":["Go"],"published":true},
			{"slug":"beta","title":"Beta","tags":["Web"],"published":true}
		],"count":2}`))
	})
	mux.HandleFunc("GET /api/v1/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tags":[{"slug":"go","title":"Go"},{"slug":"web","title":"Web"}],"count":2}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPosts_FiltersAndShowsCounts(t *testing.T) {
	srv := newCounterServer(t, &atomic.Int32{})

	out, err := execute(t, "--server", srv.URL, "posts", "--tags", "Go")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "7")
	assert.NotContains(t, out, "beta")
}

func TestPosts_UnratedShowsZero(t *testing.T) {
	srv := newCounterServer(t, &atomic.Int32{})

	out, err := execute(t, "--server", srv.URL, "posts", "--tags", "Web")
	require.NoError(t, err)
	assert.Contains(t, out, "beta")
	assert.NotContains(t, out, "alpha")
	assert.Contains(t, out, "0")
}

func TestPosts_LocalContent(t *testing.T) {
	dir := t.TempDir()
	post := "---\ntemplate: BlogPost\ntitle: Local Post\ntags: [Go]\npublished: true\ndate: 2024-01-02\n---\nbody\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local-post.md"), []byte(post), 0o600))

	// nothing listens here: ratings fail and render as "-"
	out, err := execute(t, "--server", "http://127.0.0.1:1", "--timeout", "200ms", "posts", "--content", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "local-post")
	assert.Contains(t, out, "-")
}

func TestTags(t *testing.T) {
	srv := newCounterServer(t, &atomic.Int32{})

	out, err := execute(t, "--server", srv.URL, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "Go")
	assert.Contains(t, out, "web")
}

func TestRatings(t *testing.T) {
	srv := newCounterServer(t, &atomic.Int32{})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"all", []string{"ratings"}, "alpha"},
		{"one", []string{"ratings", "alpha"}, "alpha: 7 up, 2 down"},
		{"absent", []string{"ratings", "missing"}, "not rated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--server", srv.URL}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVote(t *testing.T) {
	var votes atomic.Int32
	srv := newCounterServer(t, &votes)

	out, err := execute(t, "--server", srv.URL, "vote", "alpha", "up")
	require.NoError(t, err)
	assert.Equal(t, "voted up on alpha\n", out)
	assert.Equal(t, int32(1), votes.Load())

	_, err = execute(t, "--server", srv.URL, "vote", "alpha", "sideways")
	require.Error(t, err)
	assert.Equal(t, int32(1), votes.Load())
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := execute(t, "token")
	require.Error(t, err)

	out, err := execute(t, "token", "--secret", "s3cret", "--subject", "ops")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}

func TestRun_UnknownCommand(t *testing.T) {
	if code := run([]string{"sideways"}); code != exitFailure {
		t.Errorf("run(sideways) = %d, want %d", code, exitFailure)
	}
}
