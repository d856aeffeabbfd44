// Package page resolves a route to the markup mounted into the outlet.
package page

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/estimator"
	"github.com/Diegoproggramer/CivilCity/internal/format"
	"github.com/Diegoproggramer/CivilCity/internal/fragment"
	"github.com/Diegoproggramer/CivilCity/internal/i18n"
	"github.com/Diegoproggramer/CivilCity/internal/observability"
	"github.com/Diegoproggramer/CivilCity/internal/widget"
)

// Block is an extra section appended to specific pages.
type Block string

const (
	ArticleGrid   Block = "article-grid"
	AnalysisPanel Block = "analysis-panel"
	EstimatorForm Block = "estimator-form"
)

var specialBlocks = map[content.RouteID]Block{
	"news":      ArticleGrid,
	"analysis":  AnalysisPanel,
	"estimator": EstimatorForm,
}

var sideEffects = map[content.RouteID][]widget.Effect{
	"analysis": {widget.AnalysisChart},
}

// SpecialBlock returns the extra block rendered for id.
func SpecialBlock(id content.RouteID) (Block, bool) {
	b, ok := specialBlocks[id]
	return b, ok
}

// SideEffects returns the widget effects that follow a render of id.
func SideEffects(id content.RouteID) []widget.Effect {
	effects := sideEffects[id]
	if len(effects) == 0 {
		return nil
	}
	return append([]widget.Effect(nil), effects...)
}

// BootEffects run once after the content document loads.
func BootEffects() []widget.Effect {
	return []widget.Effect{widget.TickerTape}
}

// Result is a rendered route.
type Result struct {
	Route       content.RouteID
	Kind        content.Kind
	Title       string
	Markup      template.HTML
	SideEffects []widget.Effect
}

// Renderer turns routes into markup.
type Renderer struct {
	fragments      fragment.Fetcher
	bundle         *i18n.Bundle
	logger         *zap.Logger
	markdown       goldmark.Markdown
	policy         *bluemonday.Policy
	estimateAction string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBundle sets the UI string bundle.
func WithBundle(b *i18n.Bundle) Option {
	return func(r *Renderer) {
		if b != nil {
			r.bundle = b
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) { r.logger = observability.OrNop(logger) }
}

// WithEstimateAction sets the form target of the estimator block.
func WithEstimateAction(path string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(path) != "" {
			r.estimateAction = path
		}
	}
}

// New returns a Renderer resolving component routes through fragments.
func New(fragments fragment.Fetcher, opts ...Option) *Renderer {
	r := &Renderer{
		fragments:      fragments,
		bundle:         i18n.Default(),
		logger:         observability.OrNop(nil),
		markdown:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:         newBodyPolicy(),
		estimateAction: "/estimate",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bundle exposes the UI strings used for panels.
func (r *Renderer) Bundle() *i18n.Bundle { return r.bundle }

func newBodyPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Render resolves id in lang. Failures are *Error values.
func (r *Renderer) Render(ctx context.Context, doc *content.Document, lang string, id content.RouteID) (res Result, err error) {
	ctx, span := observability.StartSpan(ctx, "page", "page.Render",
		attribute.String("route", string(id)), attribute.String("lang", lang))
	defer func() { observability.EndSpan(span, err) }()

	if doc == nil {
		return Result{}, &Error{Code: DataLinkFailure, Route: id}
	}
	entry, ok := doc.Entry(lang, id)
	if !ok {
		return Result{}, &Error{Code: RouteNotFound, Route: id}
	}

	res = Result{Route: id, Kind: entry.Kind, Title: entry.Text, SideEffects: SideEffects(id)}
	switch entry.Kind {
	case content.KindComponent:
		res.Markup, err = r.renderComponent(ctx, id)
	default:
		var title string
		title, res.Markup, err = r.renderPage(doc, lang, id)
		if title != "" {
			res.Title = title
		}
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Renderer) renderComponent(ctx context.Context, id content.RouteID) (template.HTML, error) {
	if r.fragments == nil {
		return "", &Error{Code: ComponentLoadFailure, Route: id, Err: content.ErrNotFound}
	}
	markup, err := r.fragments.Fetch(ctx, id)
	if err != nil {
		r.logger.Warn("component load failed", zap.String("route", string(id)), zap.Error(err))
		return "", &Error{Code: ComponentLoadFailure, Route: id, Err: err}
	}
	return template.HTML(markup), nil
}

type pageView struct {
	Title string
	Body  template.HTML
	Wrap  bool
	Extra template.HTML
}

var pageTmpl = template.Must(template.New("page").Parse(
	`<h1>{{.Title}}</h1>{{if .Body}}{{if .Wrap}}<p>{{.Body}}</p>{{else}}{{.Body}}{{end}}{{end}}{{.Extra}}`,
))

func (r *Renderer) renderPage(doc *content.Document, lang string, id content.RouteID) (string, template.HTML, error) {
	pc, ok := doc.Page(lang, id)
	if !ok {
		return "", "", &Error{Code: ContentNotFound, Route: id}
	}
	view := pageView{Title: pc.Title}
	if pc.Body != "" {
		body, wrap, err := r.body(pc)
		if err != nil {
			return "", "", &Error{Code: ContentNotFound, Route: id, Err: err}
		}
		view.Body, view.Wrap = body, wrap
	}
	if block, ok := specialBlocks[id]; ok {
		extra, err := r.renderBlock(block, doc, lang)
		if err != nil {
			return "", "", &Error{Code: ContentNotFound, Route: id, Err: err}
		}
		view.Extra = extra
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		return "", "", &Error{Code: ContentNotFound, Route: id, Err: err}
	}
	return pc.Title, template.HTML(buf.String()), nil
}

func (r *Renderer) body(pc content.PageContent) (template.HTML, bool, error) {
	if pc.IsMarkdown() {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(escapeMarkdownProse(pc.Body)), &buf); err != nil {
			return "", false, err
		}
		return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), false, nil
	}
	return template.HTML(r.policy.Sanitize(escapeStrayTags(pc.Body))), true, nil
}

type articleCard struct {
	Title    string
	Summary  string
	ImageURL string
	Meta     string
}

type estimatorView struct {
	Action    string
	Title     string
	AreaLabel string
	QualLabel string
	Submit    string
	Qualities []string
}

var blockTmpl = template.Must(template.New("blocks").Parse(`
{{define "article-grid"}}<div class="grid-container">{{range .}}<div class="card">{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Title}}" class="card-image" loading="lazy">{{end}}<div class="card-content"><h3>{{.Title}}</h3><p>{{.Summary}}</p><p class="card-meta">{{.Meta}}</p></div></div>{{end}}</div>{{end}}
{{define "analysis-panel"}}<div id="{{.}}" class="analysis-panel" style="height: 600px;"></div>{{end}}
{{define "estimator-form"}}<section class="estimator"><h2>{{.Title}}</h2><form method="post" action="{{.Action}}" hx-post="{{.Action}}" hx-target="#estimate-result" hx-swap="innerHTML"><label>{{.AreaLabel}} <input type="number" name="area" min="1" step="any" required></label><label>{{.QualLabel}} <select name="quality">{{range .Qualities}}<option value="{{.}}">{{.}}</option>{{end}}</select></label><button type="submit">{{.Submit}}</button></form><div id="estimate-result" aria-live="polite"></div></section>{{end}}
`))

func (r *Renderer) renderBlock(block Block, doc *content.Document, lang string) (template.HTML, error) {
	var (
		buf  bytes.Buffer
		data any
	)
	switch block {
	case ArticleGrid:
		data = r.articleCards(doc, lang)
	case AnalysisPanel:
		data = widget.AnalysisContainerID
	case EstimatorForm:
		calc, err := estimator.FromDocument(doc)
		if err != nil {
			// Without parameters the page renders without the form.
			return "", nil
		}
		data = estimatorView{
			Action:    r.estimateAction,
			Title:     r.bundle.T(lang, "estimator.title"),
			AreaLabel: r.bundle.T(lang, "estimator.area"),
			QualLabel: r.bundle.T(lang, "estimator.quality"),
			Submit:    r.bundle.T(lang, "estimator.submit"),
			Qualities: calc.Qualities(),
		}
	default:
		return "", nil
	}
	if err := blockTmpl.ExecuteTemplate(&buf, string(block), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) articleCards(doc *content.Document, lang string) []articleCard {
	articles := doc.Articles(lang)
	cards := make([]articleCard, 0, len(articles))
	for _, a := range articles {
		date := format.Date(a.Published(), lang)
		if date == "" {
			date = a.PublishDate
		}
		meta := a.Category
		if date != "" {
			if meta != "" {
				meta += " - "
			}
			meta += date
		}
		cards = append(cards, articleCard{Title: a.Title, Summary: a.Summary, ImageURL: a.ImageURL, Meta: meta})
	}
	return cards
}
