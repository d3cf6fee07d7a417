package content_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/content"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := seedContent(t)
	source, err := content.NewSource(dir)
	require.NoError(t, err)

	reloaded := make(chan *content.Catalog, 4)
	w, err := content.NewWatcher(source, logger.NewNop(),
		content.WithDebounce(20*time.Millisecond),
		content.WithOnReload(func(c *content.Catalog) {
			select {
			case reloaded <- c:
			default:
			}
		}),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, dir, "blogs/new-post.md", `---
template: BlogPost
title: New Post
date: 2024-03-03
published: true
---
`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Has("new-post") {
				assert.True(t, source.Catalog().Has("new-post"))
				return
			}
		case <-deadline:
			t.Fatal("catalog was not reloaded")
		}
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	source, err := content.NewSource(seedContent(t))
	require.NoError(t, err)

	w, err := content.NewWatcher(source, logger.NewNop())
	require.NoError(t, err)
	w.Stop()
}
