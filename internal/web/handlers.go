package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/estimator"
	"github.com/Diegoproggramer/CivilCity/internal/format"
	"github.com/Diegoproggramer/CivilCity/internal/middleware"
	"github.com/Diegoproggramer/CivilCity/internal/nav"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
	"github.com/Diegoproggramer/CivilCity/internal/page"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
	"github.com/Diegoproggramer/CivilCity/internal/router"
	"github.com/Diegoproggramer/CivilCity/internal/seo"
	"github.com/Diegoproggramer/CivilCity/internal/view"
	"github.com/Diegoproggramer/CivilCity/internal/widget"
)

// frame collects what one request's router mounts and injects.
type frame struct {
	nav   template.HTML
	main  template.HTML
	slots widget.Slots
}

func (f *frame) MountNav(markup template.HTML) { f.nav = markup }

func (f *frame) Mount(markup template.HTML) { f.main = markup }

func (f *frame) Inject(containerID string, snippet template.HTML) {
	f.slots.Inject(containerID, snippet)
}

func pathHref(id content.RouteID) string {
	return "/" + url.PathEscape(string(id))
}

// statusFor maps a routing outcome to the response status.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	code, ok := page.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case page.RouteNotFound, page.ContentNotFound:
		return http.StatusNotFound
	case page.ComponentLoadFailure:
		return http.StatusBadGateway
	case page.DataLinkFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	store := middleware.PrefsStore(r, logger)

	f := &frame{}
	rt, err := router.New(router.Deps{
		Source:   s.cfg.Content.Source,
		Loader:   content.Preloaded(s.doc, s.loadErr),
		Prefs:    store,
		Renderer: s.renderer,
		Widgets:  widget.Defaults(f, logger),
		Outlet:   f,
		Href:     pathHref,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("router setup", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	routeErr := rt.Start(ctx, chi.URLParam(r, "route"))
	data := s.pageData(r, rt, f, store.Current())

	var buf bytes.Buffer
	if middleware.IsHTMX(ctx) {
		err = s.views.Shell(&buf, data)
	} else {
		err = s.views.Page(&buf, data)
	}
	if err != nil {
		logger.Error("render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusFor(routeErr))
	_, _ = buf.WriteTo(w)
}

func (s *Server) pageData(r *http.Request, rt *router.Router, f *frame, p prefs.Preferences) view.PageData {
	lang := string(p.Language)
	doc := rt.Document()
	current := rt.Current()

	data := view.PageData{
		Lang:        lang,
		Dir:         p.Language.Dir(),
		Theme:       string(p.Theme),
		SiteName:    s.bundle.T(lang, "site.name"),
		Route:       string(current),
		Nav:         f.nav,
		Content:     f.main,
		Ticker:      f.slots.Get(widget.TickerContainerID),
		TickerLabel: s.bundle.T(lang, "ticker.label"),
		CSRFToken:   middleware.CSRFToken(r),
	}
	data.LangToggleLabel = s.bundle.T(lang, "lang.toggle")
	if p.Theme == prefs.ThemeDark {
		data.ThemeToggleLabel = s.bundle.T(lang, "theme.toggle.to_light")
	} else {
		data.ThemeToggleLabel = s.bundle.T(lang, "theme.toggle.to_dark")
	}
	for _, id := range f.slots.Containers() {
		if id != widget.TickerContainerID {
			data.Widgets = append(data.Widgets, f.slots.Get(id))
		}
	}
	if doc != nil {
		if e, ok := doc.Entry(lang, current); ok {
			data.Title = e.Text
		}
		data.Crumbs = nav.Breadcrumbs(doc, lang, current, pathHref)
		data.Narrative = doc.Narrative()
		data.Headlines = doc.NewsTicker()
	}
	data.Meta = seo.Build(seo.Input{
		Doc:      doc,
		Lang:     lang,
		Route:    current,
		SiteName: data.SiteName,
		BaseURL:  baseURL(r),
		Crumbs:   data.Crumbs,
	})
	return data
}

// baseURL is the public origin of r. RealIP runs first, so proxies are
// trusted for the forwarded scheme as well.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	store := middleware.PrefsStore(r, observability.FromContext(r.Context()))
	if v := r.PostFormValue("theme"); v != "" {
		store.SetTheme(v)
	} else {
		store.ToggleTheme()
	}
	redirectBack(w, r)
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	store := middleware.PrefsStore(r, observability.FromContext(r.Context()))
	if v := r.PostFormValue("lang"); v != "" {
		store.SetLanguage(v)
	} else {
		store.ToggleLanguage()
	}
	redirectBack(w, r)
}

func redirectBack(w http.ResponseWriter, r *http.Request) {
	route := content.NormalizeRoute(r.PostFormValue("route"))
	http.Redirect(w, r, pathHref(route), http.StatusSeeOther)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	lang := middleware.Lang(r)
	status := http.StatusOK
	var data view.EstimateData

	calc, err := estimator.FromDocument(s.doc)
	switch {
	case s.loadErr != nil || err != nil:
		status = http.StatusServiceUnavailable
		data.Error = s.bundle.T(lang, "error.data_link_failure")
	default:
		area, perr := format.ParseNumber(r.PostFormValue("area"))
		if perr != nil {
			area = 0
		}
		est, eerr := calc.Estimate(area, r.PostFormValue("quality"))
		switch {
		case errors.Is(eerr, estimator.ErrInvalidArea):
			status = http.StatusUnprocessableEntity
			data.Error = s.bundle.T(lang, "estimator.invalid_area")
		case errors.Is(eerr, estimator.ErrUnknownQuality):
			status = http.StatusUnprocessableEntity
			data.Error = s.bundle.T(lang, "estimator.invalid_quality")
		case eerr != nil:
			status = http.StatusInternalServerError
			data.Error = s.bundle.T(lang, "error.data_link_failure")
		default:
			data.Message = s.bundle.Tf(lang, "estimator.result", format.Toman(est.Cost, lang))
		}
	}

	var buf bytes.Buffer
	if err := s.views.Estimate(&buf, data); err != nil {
		observability.FromContext(r.Context()).Error("render estimate", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// htmx only swaps 2xx responses unless told otherwise.
	if middleware.IsHTMX(r.Context()) && status != http.StatusOK {
		w.Header().Set("HX-Reswap", "innerHTML")
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.loadErr != nil || s.doc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": string(page.DataLinkFailure)})
		return
	}
	writeJSON(w, http.StatusOK, s.doc.Export())
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	id := content.NormalizeRoute(chi.URLParam(r, "id"))
	markup, err := s.fragments.Fetch(r.Context(), id)
	if err != nil {
		status := http.StatusBadGateway
		var fe *content.FetchError
		if errors.As(err, &fe) && fe.Kind == content.NotFound && (fe.Status == 0 || fe.Status == http.StatusNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, string(page.ComponentLoadFailure), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = w.Write([]byte(markup))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
