package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Diegoproggramer/CivilCity/internal/observability"
)

const (
	defaultTimeout  = 10 * time.Second
	maxDocumentSize = 16 << 20
)

// DocumentLoader produces the session snapshot. The router depends on this
// interface so hosts can share one snapshot between sessions.
type DocumentLoader interface {
	Load(ctx context.Context, sourceURI string) (*Document, error)
}

// Loader fetches content documents over HTTP or from the local filesystem.
// It keeps no state between calls: every Load is a fresh attempt.
type Loader struct {
	http   *http.Client
	logger *zap.Logger
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient overrides the HTTP client used for http(s) sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.http = c
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = observability.OrNop(logger)
	}
}

// NewLoader constructs a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		http:   &http.Client{Timeout: defaultTimeout},
		logger: observability.OrNop(nil),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and decodes the document at sourceURI. Supported sources are
// http(s) URLs, file:// URLs and plain filesystem paths.
func (l *Loader) Load(ctx context.Context, sourceURI string) (doc *Document, err error) {
	ctx, span := observability.StartSpan(ctx, "content", "content.Load", attribute.String("content.source", sourceURI))
	defer func() { observability.EndSpan(span, err) }()

	sourceURI = strings.TrimSpace(sourceURI)
	if sourceURI == "" {
		return nil, NewFetchError(NotFound, sourceURI, 0, ErrUnsupportedSource)
	}

	var (
		raw    []byte
		format string
	)
	u, parseErr := url.Parse(sourceURI)
	switch {
	case parseErr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		raw, format, err = l.fetchRemote(ctx, sourceURI, u)
	case parseErr == nil && u.Scheme == "file":
		raw, format, err = readLocal(sourceURI, filepath.FromSlash(u.Path))
	case parseErr == nil && len(u.Scheme) > 1:
		return nil, NewFetchError(NotFound, sourceURI, 0, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme))
	default:
		// plain path (including Windows drive letters parsed as a one-letter scheme)
		raw, format, err = readLocal(sourceURI, sourceURI)
	}
	if err != nil {
		l.logger.Warn("content load failed", zap.String("source", sourceURI), zap.Error(err))
		return nil, err
	}

	src, err := Decode(raw, format)
	if err != nil {
		l.logger.Warn("content decode failed", zap.String("source", sourceURI), zap.Error(err))
		return nil, NewFetchError(Malformed, sourceURI, 0, err)
	}
	doc = New(src)
	l.logger.Info("content loaded",
		zap.String("source", sourceURI),
		zap.Strings("languages", doc.Languages()),
		zap.Int("articles", len(src.Articles)),
	)
	return doc, nil
}

func (l *Loader) fetchRemote(ctx context.Context, sourceURI string, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURI, nil)
	if err != nil {
		return nil, "", NewFetchError(NotFound, sourceURI, 0, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, "", NewFetchError(NotFound, sourceURI, 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", NewFetchError(NotFound, sourceURI, resp.StatusCode, fmt.Errorf("remote status %d", resp.StatusCode))
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, "", NewFetchError(NotFound, sourceURI, resp.StatusCode, err)
	}
	format := formatFromName(u.Path)
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.Contains(ct, "yaml") {
		format = FormatYAML
	}
	return raw, format, nil
}

func readLocal(sourceURI, name string) ([]byte, string, error) {
	raw, err := os.ReadFile(name)
	if err != nil {
		// a missing file and an unreadable one are both a failed transport
		return nil, "", NewFetchError(NotFound, sourceURI, 0, err)
	}
	return raw, formatFromName(name), nil
}

// Document encodings accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func formatFromName(name string) string {
	switch strings.ToLower(path.Ext(filepath.ToSlash(name))) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses raw in the given format into a Source.
func Decode(raw []byte, format string) (Source, error) {
	var src Source
	if len(bytes.TrimSpace(raw)) == 0 {
		return src, errors.New("empty document")
	}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &src); err != nil {
			return Source{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&src); err != nil {
			return Source{}, fmt.Errorf("decode json: %w", err)
		}
		if dec.More() {
			return Source{}, errors.New("decode json: trailing data after document")
		}
	}
	return src, nil
}

// Preloaded returns a DocumentLoader that hands out a snapshot obtained
// elsewhere. A non-nil err is returned from every Load.
func Preloaded(doc *Document, err error) DocumentLoader {
	return preloaded{doc: doc, err: err}
}

type preloaded struct {
	doc *Document
	err error
}

func (p preloaded) Load(ctx context.Context, _ string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewFetchError(NotFound, "preloaded", 0, err)
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.doc == nil {
		return nil, NewFetchError(NotFound, "preloaded", 0, errors.New("no document"))
	}
	return p.doc, nil
}
