// Package web is the HTTP preview host of the portal. Each request drives a
// short-lived router over the shared content snapshot and the preferences
// stored in the visitor's session cookie.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/config"
	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/fragment"
	"github.com/Diegoproggramer/CivilCity/internal/i18n"
	"github.com/Diegoproggramer/CivilCity/internal/middleware"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
	"github.com/Diegoproggramer/CivilCity/internal/page"
	"github.com/Diegoproggramer/CivilCity/internal/view"
)

const requestTimeout = 30 * time.Second

// Server holds the shared state of the preview host: the content snapshot,
// loaded once, and the stateless collaborators built around it.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	doc       *content.Document
	loadErr   error
	fragments fragment.Fetcher
	bundle    *i18n.Bundle
	renderer  *page.Renderer
	views     *view.Renderer
	sessions  *middleware.Sessions
	preloaded bool
}

// Option customises a Server.
type Option func(*Server)

// WithDocument skips loading and serves doc, or the load failure err.
func WithDocument(doc *content.Document, err error) Option {
	return func(s *Server) {
		s.doc, s.loadErr, s.preloaded = doc, err, true
		if doc == nil && err == nil {
			s.loadErr = content.ErrNotFound
		}
	}
}

// WithFragments overrides the component fragment source.
func WithFragments(f fragment.Fetcher) Option {
	return func(s *Server) { s.fragments = f }
}

// WithViews overrides the template renderer.
func WithViews(v *view.Renderer) Option {
	return func(s *Server) { s.views = v }
}

// New builds a Server. Unless WithDocument is given the content document is
// loaded from cfg.Content.Source; a failed load is kept and reported on
// every page as a data link failure.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: observability.OrNop(logger).Named("web"),
		bundle: i18n.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.preloaded {
		loader := content.NewLoader(content.WithTimeout(cfg.Content.Timeout), content.WithLogger(s.logger))
		s.doc, s.loadErr = loader.Load(ctx, cfg.Content.Source)
		if s.loadErr != nil {
			s.logger.Error("content load failed, serving data link failure", zap.String("source", cfg.Content.Source), zap.Error(s.loadErr))
		}
	}
	if s.fragments == nil {
		s.fragments = fragment.NewClient(cfg.Content.Components,
			fragment.WithCacheTTL(cfg.Content.CacheTTL),
			fragment.WithLogger(s.logger))
	}
	if s.views == nil {
		var vopts []view.Option
		if cfg.Server.Dev {
			vopts = append(vopts, view.WithDevDir("internal/view/templates"))
		}
		v, err := view.New(vopts...)
		if err != nil {
			return nil, err
		}
		s.views = v
	}
	s.renderer = page.New(s.fragments, page.WithBundle(s.bundle), page.WithLogger(s.logger), page.WithEstimateAction("/estimate"))

	sessions, generated := middleware.NewSessions(cfg.Server.SessionKey, cfg.Server.SecureCookies)
	if generated {
		s.logger.Warn("using ephemeral session signing key; set server.session_key for stable sessions")
	}
	s.sessions = sessions
	return s, nil
}

// Document returns the shared snapshot and its load error.
func (s *Server) Document() (*content.Document, error) { return s.doc, s.loadErr }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(chiMid.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chiMid.Recoverer)
	r.Use(chiMid.Compress(5))
	r.Use(chiMid.Timeout(requestTimeout))
	r.Use(middleware.HTMX)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", middleware.AssetsWithCache(view.Static(), "/static"))

	r.Route("/data", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "HX-Request"},
			MaxAge:         300,
		}))
		r.Get("/db.json", s.handleDocument)
		r.Get("/components/{id}", s.handleComponent)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(middleware.VaryPreferences)
		r.Use(middleware.Locale(s.bundle))

		// The estimate is a pure calculation and works without a token.
		r.Post("/estimate", s.handleEstimate)

		r.Group(func(r chi.Router) {
			r.Use(s.sessions.CSRF)
			r.Get("/", s.handlePage)
			r.Get("/{route}", s.handlePage)
			r.Post("/prefs/theme", s.handleTheme)
			r.Post("/prefs/lang", s.handleLanguage)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.loadErr != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("content unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewHTTPServer wraps h with the configured timeouts.
func NewHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
