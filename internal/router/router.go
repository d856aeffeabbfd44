// Package router owns the render state of one portal session: it loads the
// content document once, maps navigation intents to rendered navigation and
// page markup, mounts the result into an Outlet and triggers widget loaders.
package router

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/nav"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
	"github.com/Diegoproggramer/CivilCity/internal/page"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
	"github.com/Diegoproggramer/CivilCity/internal/widget"
)

var (
	// ErrNotReady is returned when routing is attempted before the content
	// document loaded or after loading failed.
	ErrNotReady = errors.New("router: not ready")
	// ErrStarted is returned by a second call to Start.
	ErrStarted = errors.New("router: already started")
)

// State is the lifecycle phase of a Router.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outlet is the output region owned by the host.
type Outlet interface {
	MountNav(markup template.HTML)
	Mount(markup template.HTML)
}

// Deps wires a Router.
type Deps struct {
	// Source is handed to Loader.Load.
	Source   string
	Loader   content.DocumentLoader
	Prefs    *prefs.Store
	Renderer *page.Renderer
	Widgets  widget.Registry
	Outlet   Outlet
	// Href formats navigation links; defaults to fragment links.
	Href   nav.HrefFunc
	Logger *zap.Logger
}

// Router is safe for concurrent use. Renders are not cancelled when a newer
// intent arrives; whichever render completes last stays mounted. Widget
// loaders run with no lock held, so they may call back into the Router.
type Router struct {
	source   string
	loader   content.DocumentLoader
	prefs    *prefs.Store
	renderer *page.Renderer
	widgets  widget.Registry
	outlet   Outlet
	href     nav.HrefFunc
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	doc     *content.Document
	current content.RouteID

	// mountMu serialises outlet writes; it is never held with mu.
	mountMu sync.Mutex
}

// New validates deps and returns an Uninitialized router.
func New(deps Deps) (*Router, error) {
	if deps.Loader == nil {
		return nil, errors.New("router: content loader is required")
	}
	if deps.Prefs == nil {
		return nil, errors.New("router: preference store is required")
	}
	if deps.Outlet == nil {
		return nil, errors.New("router: outlet is required")
	}
	r := &Router{
		source:   deps.Source,
		loader:   deps.Loader,
		prefs:    deps.Prefs,
		renderer: deps.Renderer,
		widgets:  deps.Widgets,
		outlet:   deps.Outlet,
		href:     deps.Href,
		logger:   observability.OrNop(deps.Logger).Named("router"),
		current:  content.DefaultRoute,
	}
	if r.renderer == nil {
		r.renderer = page.New(nil, page.WithLogger(deps.Logger))
	}
	if r.href == nil {
		r.href = nav.HashHref
	}
	return r, nil
}

// State returns the lifecycle phase.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Current returns the route of the most recent intent.
func (r *Router) Current() content.RouteID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Document returns the loaded snapshot, nil before a successful load.
func (r *Router) Document() *content.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// Preferences returns the current preferences.
func (r *Router) Preferences() prefs.Preferences {
	return r.prefs.Current()
}

// Start loads the content document and renders initialIntent. A load
// failure mounts the data link panel and leaves the router in LoadFailed
// for good.
func (r *Router) Start(ctx context.Context, initialIntent string) (err error) {
	r.mu.Lock()
	if r.state != Uninitialized {
		r.mu.Unlock()
		return ErrStarted
	}
	r.state = Loading
	r.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "router", "router.Start", attribute.String("source", r.source))
	defer func() { observability.EndSpan(span, err) }()

	p := r.prefs.Current()
	doc, loadErr := r.loader.Load(ctx, r.source)
	if loadErr == nil && doc == nil {
		loadErr = content.NewFetchError(content.Malformed, r.source, 0, errors.New("empty document"))
	}
	if loadErr != nil {
		r.mu.Lock()
		r.state = LoadFailed
		r.mu.Unlock()
		r.mountMu.Lock()
		r.outlet.Mount(page.PanelFor(r.renderer.Bundle(), string(p.Language), loadErr))
		r.mountMu.Unlock()
		r.logger.Error("content load failed, routing halted", zap.String("source", r.source), zap.Error(loadErr))
		return &page.Error{Code: page.DataLinkFailure, Err: loadErr}
	}

	r.mu.Lock()
	r.doc = doc
	r.state = Ready
	r.mu.Unlock()
	r.logger.Info("content loaded",
		zap.String("source", r.source),
		zap.Strings("languages", doc.Languages()),
		zap.String("lang", string(p.Language)),
		zap.String("theme", string(p.Theme)),
	)
	routeErr := r.HandleRoute(ctx, initialIntent)
	// Boot widgets follow the first mount, whatever the route resolved to.
	r.widgets.Run(page.BootEffects(), r.prefs.Current().Theme)
	return routeErr
}

// HandleRoute renders raw and mounts the result. Render failures mount the
// error panel, run no widget loaders and are returned.
func (r *Router) HandleRoute(ctx context.Context, raw string) (err error) {
	id := content.NormalizeRoute(raw)

	r.mu.Lock()
	if r.state != Ready {
		state := r.state
		r.mu.Unlock()
		r.logger.Debug("route ignored", zap.String("route", string(id)), zap.Stringer("state", state))
		return ErrNotReady
	}
	doc := r.doc
	r.current = id
	r.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "router", "router.HandleRoute", attribute.String("route", string(id)))
	defer func() { observability.EndSpan(span, err) }()

	started := time.Now()
	p := r.prefs.Current()
	lang := string(p.Language)

	res, renderErr := r.renderer.Render(ctx, doc, lang, id)
	navMarkup, navErr := nav.Render(nav.BuildWith(doc, lang, id, r.href))
	if navErr != nil {
		r.logger.Error("navigation render failed", zap.Error(navErr))
	}

	r.mountMu.Lock()
	r.outlet.MountNav(navMarkup)
	if renderErr != nil {
		r.outlet.Mount(page.PanelFor(r.renderer.Bundle(), lang, renderErr))
	} else {
		r.outlet.Mount(res.Markup)
	}
	r.mountMu.Unlock()

	if renderErr == nil {
		r.widgets.Run(res.SideEffects, p.Theme)
	}

	if renderErr != nil {
		code, _ := page.CodeOf(renderErr)
		r.logger.Warn("route failed",
			zap.String("route", string(id)),
			zap.String("lang", lang),
			zap.String("code", string(code)),
			zap.Error(renderErr),
		)
		return renderErr
	}
	r.logger.Info("route handled",
		zap.String("route", string(id)),
		zap.String("lang", lang),
		zap.String("kind", string(res.Kind)),
		zap.Int("effects", len(res.SideEffects)),
		zap.Duration("latency", time.Since(started)),
	)
	return nil
}

// OnNavigationIntent is the host entry point for navigation. Intents that
// arrive before the router is Ready are dropped.
func (r *Router) OnNavigationIntent(ctx context.Context, raw string) {
	if r.State() != Ready {
		r.logger.Debug("navigation intent dropped", zap.String("intent", raw))
		return
	}
	_ = r.HandleRoute(ctx, raw)
}

// ToggleTheme flips the theme and re-renders the current route when Ready.
func (r *Router) ToggleTheme(ctx context.Context) prefs.Preferences {
	p := r.prefs.ToggleTheme()
	r.rerender(ctx)
	return p
}

// ToggleLanguage flips the language and re-renders the current route when
// Ready.
func (r *Router) ToggleLanguage(ctx context.Context) prefs.Preferences {
	p := r.prefs.ToggleLanguage()
	r.rerender(ctx)
	return p
}

func (r *Router) rerender(ctx context.Context) {
	if r.State() != Ready {
		return
	}
	_ = r.HandleRoute(ctx, string(r.Current()))
}
