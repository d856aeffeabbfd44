// Package fragment fetches the markup of component-kind routes from a remote
// base URL or a local directory.
package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	maxFragmentBytes = 2 << 20
	fragmentExt      = ".html"
)

// Fetcher resolves a component route to its markup.
type Fetcher interface {
	Fetch(ctx context.Context, id content.RouteID) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id content.RouteID) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, id content.RouteID) (string, error) {
	return f(ctx, id)
}

// Client loads fragments from base, which is either an http(s) URL or a
// directory. Successful fetches are cached for the TTL; failures never are.
type Client struct {
	base   string
	remote bool
	http   *http.Client
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	items map[content.RouteID]cacheEntry
}

type cacheEntry struct {
	markup  string
	expires time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithCacheTTL sets the cache duration. Zero or negative disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(cl *Client) { cl.ttl = d }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) { cl.logger = observability.OrNop(logger) }
}

// NewClient constructs a Client for base.
func NewClient(base string, opts ...Option) *Client {
	base = strings.TrimSpace(base)
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		remote: strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://"),
		http:   &http.Client{Timeout: 5 * time.Second},
		logger: observability.OrNop(nil),
		ttl:    defaultCacheTTL,
		now:    time.Now,
		items:  map[content.RouteID]cacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the markup for id. Failures are *content.FetchError values.
func (c *Client) Fetch(ctx context.Context, id content.RouteID) (markup string, err error) {
	ctx, span := observability.StartSpan(ctx, "fragment", "fragment.Fetch", attribute.String("route", string(id)))
	defer func() { observability.EndSpan(span, err) }()

	slug := sanitizeSlug(string(id))
	if slug == "" {
		return "", content.NewFetchError(content.NotFound, string(id), 0, errors.New("invalid component id"))
	}
	if markup, ok := c.cached(id); ok {
		return markup, nil
	}
	if c.base == "" {
		return "", content.NewFetchError(content.NotFound, slug, 0, errors.New("no component source configured"))
	}

	var raw []byte
	if c.remote {
		raw, err = c.fetchRemote(ctx, slug)
	} else {
		raw, err = c.readLocal(slug)
	}
	if err != nil {
		c.logger.Warn("component fetch failed", zap.String("route", string(id)), zap.Error(err))
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", content.NewFetchError(content.Malformed, slug, 0, errors.New("fragment is not valid UTF-8"))
	}
	markup = string(raw)
	c.store(id, markup)
	return markup, nil
}

func (c *Client) fetchRemote(ctx context.Context, slug string) ([]byte, error) {
	endpoint, err := url.JoinPath(c.base, slug+fragmentExt)
	if err != nil {
		return nil, content.NewFetchError(content.NotFound, slug, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, content.NewFetchError(content.NotFound, endpoint, 0, err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, content.NewFetchError(content.NotFound, endpoint, 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, content.NewFetchError(content.NotFound, endpoint, resp.StatusCode, fmt.Errorf("remote status %d", resp.StatusCode))
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes))
	if err != nil {
		return nil, content.NewFetchError(content.NotFound, endpoint, resp.StatusCode, err)
	}
	return raw, nil
}

func (c *Client) readLocal(slug string) ([]byte, error) {
	file := filepath.Join(c.base, slug+fragmentExt)
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, content.NewFetchError(content.NotFound, file, 0, err)
	}
	return raw, nil
}

func (c *Client) cached(id content.RouteID) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.items[id]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return "", false
	}
	return entry.markup, true
}

func (c *Client) store(id content.RouteID, markup string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = cacheEntry{markup: markup, expires: c.now().Add(c.ttl)}
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" {
		return ""
	}
	if strings.Contains(slug, "..") {
		return ""
	}
	if strings.ContainsAny(slug, `/\`) || strings.ContainsRune(slug, os.PathSeparator) {
		return ""
	}
	return slug
}
