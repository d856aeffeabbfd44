// Package seo builds the head metadata of portal pages: description,
// canonical and hreflang links, Open Graph tags and JSON-LD payloads.
package seo

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/nav"
)

const descriptionLimit = 160

type OpenGraph struct {
	Title       string
	Description string
	Type        string
	Locale      string
	URL         string
}

// Alternate is one hreflang link. Lang "x-default" marks the
// language-negotiated variant.
type Alternate struct {
	Lang string
	Href string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Alternates  []Alternate
	// JSONLD values are marshalled by html/template inside
	// <script type="application/ld+json">.
	JSONLD []map[string]any
}

// Input describes the page being rendered.
type Input struct {
	Doc      *content.Document
	Lang     string
	Route    content.RouteID
	SiteName string
	// BaseURL is the absolute origin, for example "https://civilcity.ir".
	BaseURL string
	Crumbs  []nav.Crumb
}

var strip = bluemonday.StrictPolicy()

// Build returns the metadata for in. Routes missing from the document only
// get the site level fields.
func Build(in Input) Meta {
	base := strings.TrimRight(in.BaseURL, "/")
	m := Meta{Title: in.SiteName}
	m.OG = OpenGraph{Title: in.SiteName, Type: "website", Locale: ogLocale(in.Lang)}
	if in.Doc == nil {
		return m
	}

	entry, ok := in.Doc.Entry(in.Lang, in.Route)
	if !ok {
		return m
	}
	m.Title = entry.Text + " | " + in.SiteName
	m.Canonical = routeURL(base, in.Route, in.Lang)
	m.OG.Title = entry.Text
	m.OG.URL = m.Canonical

	if pc, ok := in.Doc.Page(in.Lang, in.Route); ok {
		m.Description = Describe(pc.Body)
	}
	if m.Description == "" && in.Route == content.DefaultRoute {
		m.Description = Describe(in.Doc.Narrative())
	}
	m.OG.Description = m.Description

	for _, lang := range in.Doc.Languages() {
		if _, ok := in.Doc.Entry(lang, in.Route); ok {
			m.Alternates = append(m.Alternates, Alternate{Lang: lang, Href: routeURL(base, in.Route, lang)})
		}
	}
	if len(m.Alternates) > 1 {
		m.Alternates = append(m.Alternates, Alternate{Lang: "x-default", Href: base + "/" + url.PathEscape(string(in.Route))})
	}

	if in.Route == content.DefaultRoute {
		m.JSONLD = append(m.JSONLD, WebSite(in.SiteName, base+"/", in.Lang))
	}
	if len(in.Crumbs) > 1 {
		items := make([]BreadcrumbItem, 0, len(in.Crumbs))
		for _, c := range in.Crumbs {
			items = append(items, BreadcrumbItem{Name: c.Label, Item: base + c.Href})
		}
		m.JSONLD = append(m.JSONLD, BreadcrumbList(items))
	}
	if in.Route == "news" {
		for _, a := range in.Doc.Articles(in.Lang) {
			m.OG.Type = "article"
			m.JSONLD = append(m.JSONLD, NewsArticle(a.Title, absolute(base, a.ImageURL), a.Category, a.PublishDate, in.Lang))
		}
	}
	return m
}

// Describe turns a page body into a plain text summary of at most
// descriptionLimit runes.
func Describe(body string) string {
	text := strings.Join(strings.Fields(html.UnescapeString(strip.Sanitize(body))), " ")
	if utf8.RuneCountInString(text) <= descriptionLimit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:descriptionLimit])
	if i := strings.LastIndex(cut, " "); i > descriptionLimit/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

func routeURL(base string, id content.RouteID, lang string) string {
	return base + "/" + url.PathEscape(string(id)) + "?hl=" + url.QueryEscape(lang)
}

func absolute(base, ref string) string {
	if ref == "" || strings.Contains(ref, "://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return base + ref
}

func ogLocale(lang string) string {
	switch lang {
	case "fa":
		return "fa_IR"
	case "en":
		return "en_US"
	default:
		return lang
	}
}
