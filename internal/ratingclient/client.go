// Package ratingclient talks to the thumbs counter service over HTTP.
// Calls go through a circuit breaker so a dead counter service costs the
// caller one fast error instead of a timeout per vote.
package ratingclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jameskolean/blog-thumbs/infrastructure/circuitbreaker"
	infraerrors "github.com/jameskolean/blog-thumbs/infrastructure/errors"
	infrahttp "github.com/jameskolean/blog-thumbs/infrastructure/http"
	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const (
	defaultTimeout = 5 * time.Second
	thumbsPath     = "/api/v1/thumbs"
)

// ErrNoBaseURL is returned by New when no server URL is configured.
var ErrNoBaseURL = errors.New("counter service URL is required")

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Breaker defaults to circuitbreaker.DefaultConfig.
	Breaker circuitbreaker.Config
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *circuitbreaker.Breaker
	log     infralogger.Logger
}

// New validates cfg and builds a client.
func New(cfg Config, log infralogger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid counter service URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	breakerCfg := cfg.Breaker
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("Counter service circuit changed",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()),
		)
	}

	return &Client{
		baseURL: base,
		http:    infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: timeout, UserAgent: cfg.UserAgent}),
		breaker: circuitbreaker.New(breakerCfg),
		log:     log,
	}, nil
}

// FetchAll returns every rating the service knows about.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Thumb, error) {
	var thumbs []domain.Thumb
	if err := c.do(ctx, http.MethodGet, thumbsPath, &thumbs); err != nil {
		return nil, fmt.Errorf("fetch all thumbs: %w", err)
	}
	return thumbs, nil
}

// Fetch returns the rating for slug, or nil when the service has none.
func (c *Client) Fetch(ctx context.Context, slug string) (*domain.Thumb, error) {
	var thumb domain.Thumb
	err := c.do(ctx, http.MethodGet, thumbsPath+"/"+url.PathEscape(slug), &thumb)
	if code, ok := infraerrors.StatusCode(err); ok && code == http.StatusNotFound {
		return nil, nil //nolint:nilnil // absent rating is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("fetch thumb %s: %w", slug, err)
	}
	return &thumb, nil
}

// Increment records one vote. The response body is ignored.
func (c *Client) Increment(ctx context.Context, slug string, dir domain.Direction) error {
	path := thumbsPath + "/" + url.PathEscape(slug) + "/" + string(dir)
	if err := c.do(ctx, http.MethodPost, path, nil); err != nil {
		return fmt.Errorf("increment %s %s: %w", slug, dir, err)
	}
	return nil
}

// IncrementUp is Increment with domain.Up.
func (c *Client) IncrementUp(ctx context.Context, slug string) error {
	return c.Increment(ctx, slug, domain.Up)
}

// IncrementDown is Increment with domain.Down.
func (c *Client) IncrementDown(ctx context.Context, slug string) error {
	return c.Increment(ctx, slug, domain.Down)
}

// do performs one request. Only transport errors and 5xx responses count
// against the circuit breaker; a 4xx is the caller's problem.
func (c *Client) do(ctx context.Context, method, path string, out any) error {
	var apiErr error

	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, http.NoBody)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
			if resp.StatusCode >= http.StatusInternalServerError {
				return httpErr
			}
			apiErr = httpErr
			return nil
		}

		if out == nil {
			return nil
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
			apiErr = fmt.Errorf("decode response: %w", decodeErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return apiErr
}
