package content

import (
	"sort"
	"strings"
	"time"
)

// RouteID identifies the content selected by a navigation intent.
type RouteID string

// DefaultRoute is used when a navigation intent carries no identifier.
const DefaultRoute RouteID = "home"

// NormalizeRoute turns a raw navigation intent ("#news", "/news", " news ")
// into a RouteID. Empty intents resolve to DefaultRoute.
func NormalizeRoute(raw string) RouteID {
	id := strings.TrimSpace(raw)
	id = strings.TrimLeft(id, "#/")
	id = strings.TrimRight(id, "/")
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultRoute
	}
	return RouteID(id)
}

// Kind tags a navigation entry as a local page or an externally sourced component.
type Kind string

const (
	KindPage      Kind = "page"
	KindComponent Kind = "component"
)

// NavigationEntry is one clickable item of the site menu.
type NavigationEntry struct {
	ID   RouteID `json:"id" yaml:"id"`
	Text string  `json:"text" yaml:"text"`
	Kind Kind    `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// PageContent is the localized body of a page-kind route.
type PageContent struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"content" yaml:"content"`
	// Format is "html" (default) or "markdown".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Body formats.
const (
	BodyHTML     = "html"
	BodyMarkdown = "markdown"
)

// IsMarkdown reports whether the body is written in markdown.
func (p PageContent) IsMarkdown() bool {
	return strings.EqualFold(strings.TrimSpace(p.Format), BodyMarkdown)
}

// ArticleSummary is one card of the news grid.
type ArticleSummary struct {
	Title       string `json:"title" yaml:"title"`
	Summary     string `json:"summary" yaml:"summary"`
	ImageURL    string `json:"image_url" yaml:"image_url"`
	Category    string `json:"category" yaml:"category"`
	PublishDate string `json:"publish_date" yaml:"publish_date"`
	// Lang restricts the article to one language; empty means every language.
	Lang string `json:"lang,omitempty" yaml:"lang,omitempty"`
}

// Published parses PublishDate, returning the zero time when it is absent or unparseable.
func (a ArticleSummary) Published() time.Time {
	return parseContentDate(a.PublishDate)
}

// Narrative carries the brand story shown on the landing layout.
type Narrative struct {
	Story string `json:"story" yaml:"story"`
}

// EstimatorParams feeds the construction cost estimator.
type EstimatorParams struct {
	BaseCostPerMeter  float64            `json:"baseCostPerMeter" yaml:"baseCostPerMeter"`
	QualityMultiplier map[string]float64 `json:"qualityMultiplier" yaml:"qualityMultiplier"`
}

// Source is the wire shape of the content document.
type Source struct {
	Navigation      map[string][]NavigationEntry        `json:"navigation" yaml:"navigation"`
	Pages           map[string]map[RouteID]PageContent `json:"pages" yaml:"pages"`
	Articles        []ArticleSummary                    `json:"articles" yaml:"articles"`
	Narrative       *Narrative                          `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	NewsTicker      []string                            `json:"newsTicker,omitempty" yaml:"newsTicker,omitempty"`
	EstimatorParams *EstimatorParams                    `json:"estimatorParams,omitempty" yaml:"estimatorParams,omitempty"`
}

// Document is the immutable snapshot of the content source. Lookups are two
// levels deep (language, then route) and report absence explicitly.
type Document struct {
	navigation map[string][]NavigationEntry
	pages      map[string]map[RouteID]PageContent
	articles   []ArticleSummary
	narrative  string
	ticker     []string
	estimator  *EstimatorParams
}

// New builds a Document from src. The document keeps its own copies; later
// changes to src are not observed.
func New(src Source) *Document {
	doc := &Document{
		navigation: make(map[string][]NavigationEntry, len(src.Navigation)),
		pages:      make(map[string]map[RouteID]PageContent, len(src.Pages)),
	}
	for lang, entries := range src.Navigation {
		lang = normalizeLang(lang)
		if lang == "" {
			continue
		}
		out := make([]NavigationEntry, 0, len(entries))
		seen := make(map[RouteID]struct{}, len(entries))
		for _, e := range entries {
			e.ID = RouteID(strings.TrimSpace(string(e.ID)))
			if e.ID == "" {
				continue
			}
			// first entry wins for a duplicated id
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			e.Kind = normalizeKind(e.Kind)
			out = append(out, e)
		}
		doc.navigation[lang] = out
	}
	for lang, byRoute := range src.Pages {
		lang = normalizeLang(lang)
		if lang == "" {
			continue
		}
		m := make(map[RouteID]PageContent, len(byRoute))
		for id, page := range byRoute {
			m[RouteID(strings.TrimSpace(string(id)))] = page
		}
		doc.pages[lang] = m
	}
	doc.articles = append([]ArticleSummary(nil), src.Articles...)
	if src.Narrative != nil {
		doc.narrative = src.Narrative.Story
	}
	doc.ticker = append([]string(nil), src.NewsTicker...)
	if src.EstimatorParams != nil {
		p := EstimatorParams{
			BaseCostPerMeter:  src.EstimatorParams.BaseCostPerMeter,
			QualityMultiplier: make(map[string]float64, len(src.EstimatorParams.QualityMultiplier)),
		}
		for k, v := range src.EstimatorParams.QualityMultiplier {
			p.QualityMultiplier[k] = v
		}
		doc.estimator = &p
	}
	return doc
}

// Export returns a copy of the document in its wire shape, for hosts that
// republish the snapshot.
func (d *Document) Export() Source {
	if d == nil {
		return Source{}
	}
	src := Source{
		Navigation: make(map[string][]NavigationEntry, len(d.navigation)),
		Pages:      make(map[string]map[RouteID]PageContent, len(d.pages)),
		Articles:   append([]ArticleSummary(nil), d.articles...),
		NewsTicker: append([]string(nil), d.ticker...),
	}
	for lang, entries := range d.navigation {
		src.Navigation[lang] = append([]NavigationEntry(nil), entries...)
	}
	for lang, byRoute := range d.pages {
		m := make(map[RouteID]PageContent, len(byRoute))
		for id, p := range byRoute {
			m[id] = p
		}
		src.Pages[lang] = m
	}
	if d.narrative != "" {
		src.Narrative = &Narrative{Story: d.narrative}
	}
	if p, ok := d.Estimator(); ok {
		src.EstimatorParams = &p
	}
	return src
}

// Navigation returns the ordered menu for lang, or nil when the language has none.
func (d *Document) Navigation(lang string) []NavigationEntry {
	if d == nil {
		return nil
	}
	entries, ok := d.navigation[normalizeLang(lang)]
	if !ok {
		return nil
	}
	return append([]NavigationEntry(nil), entries...)
}

// Entry looks up the navigation entry for id in lang.
func (d *Document) Entry(lang string, id RouteID) (NavigationEntry, bool) {
	if d == nil {
		return NavigationEntry{}, false
	}
	for _, e := range d.navigation[normalizeLang(lang)] {
		if e.ID == id {
			return e, true
		}
	}
	return NavigationEntry{}, false
}

// Page looks up the page body for (lang, id).
func (d *Document) Page(lang string, id RouteID) (PageContent, bool) {
	if d == nil {
		return PageContent{}, false
	}
	byRoute, ok := d.pages[normalizeLang(lang)]
	if !ok {
		return PageContent{}, false
	}
	page, ok := byRoute[id]
	return page, ok
}

// Routes lists the navigation ids of lang in source order.
func (d *Document) Routes(lang string) []RouteID {
	entries := d.Navigation(lang)
	out := make([]RouteID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

// Languages returns every language present in navigation or pages, sorted.
func (d *Document) Languages() []string {
	if d == nil {
		return nil
	}
	set := map[string]struct{}{}
	for l := range d.navigation {
		set[l] = struct{}{}
	}
	for l := range d.pages {
		set[l] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Articles returns the articles visible in lang, in source order.
func (d *Document) Articles(lang string) []ArticleSummary {
	if d == nil {
		return nil
	}
	lang = normalizeLang(lang)
	out := make([]ArticleSummary, 0, len(d.articles))
	for _, a := range d.articles {
		if a.Lang != "" && normalizeLang(a.Lang) != lang {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Narrative returns the brand story, if any.
func (d *Document) Narrative() string {
	if d == nil {
		return ""
	}
	return d.narrative
}

// NewsTicker returns the ticker headlines in source order.
func (d *Document) NewsTicker() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.ticker...)
}

// Estimator returns the estimator parameters when the document defines them.
func (d *Document) Estimator() (EstimatorParams, bool) {
	if d == nil || d.estimator == nil {
		return EstimatorParams{}, false
	}
	p := EstimatorParams{
		BaseCostPerMeter:  d.estimator.BaseCostPerMeter,
		QualityMultiplier: make(map[string]float64, len(d.estimator.QualityMultiplier)),
	}
	for k, v := range d.estimator.QualityMultiplier {
		p.QualityMultiplier[k] = v
	}
	return p, true
}

func normalizeKind(k Kind) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(string(k)))) {
	case KindComponent:
		return KindComponent
	default:
		return KindPage
	}
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

func parseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"2006-1-2",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
