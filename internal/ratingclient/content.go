package ratingclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const (
	postsPath = "/api/v1/posts"
	tagsPath  = "/api/v1/tags"
)

// Posts returns published posts carrying every tag in tags.
func (c *Client) Posts(ctx context.Context, tags []string) ([]domain.Post, error) {
	path := postsPath
	if len(tags) > 0 {
		path += "?" + url.Values{"tags": tags}.Encode()
	}

	var body struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, path, &body); err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	return body.Posts, nil
}

// Tags returns the tag catalog.
func (c *Client) Tags(ctx context.Context) ([]domain.Tag, error) {
	var body struct {
		Tags []domain.Tag `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, tagsPath, &body); err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}
	return body.Tags, nil
}
