package nav

import (
	"bytes"
	"html/template"

	"github.com/Diegoproggramer/CivilCity/internal/content"
)

// RenderedItem is a view model for one menu link.
type RenderedItem struct {
	ID     content.RouteID
	Href   string
	Text   string
	Kind   content.Kind
	Active bool
}

// Crumb represents a breadcrumb entry.
type Crumb struct {
	Href   string
	Label  string
	Active bool
}

// HrefFunc maps a route to the link target used by the host.
type HrefFunc func(id content.RouteID) string

// HashHref links to a URL fragment, the default for single page hosts.
func HashHref(id content.RouteID) string {
	return "#" + string(id)
}

// Build renders the menu of lang with the entry matching current marked active.
func Build(doc *content.Document, lang string, current content.RouteID) []RenderedItem {
	return BuildWith(doc, lang, current, HashHref)
}

// BuildWith is Build with a host specific link format. At most one item is
// active; when nothing matches current no item is.
func BuildWith(doc *content.Document, lang string, current content.RouteID, href HrefFunc) []RenderedItem {
	if href == nil {
		href = HashHref
	}
	entries := doc.Navigation(lang)
	items := make([]RenderedItem, 0, len(entries))
	activeSeen := false
	for _, e := range entries {
		active := !activeSeen && e.ID == current
		if active {
			activeSeen = true
		}
		items = append(items, RenderedItem{
			ID:     e.ID,
			Href:   href(e.ID),
			Text:   e.Text,
			Kind:   e.Kind,
			Active: active,
		})
	}
	return items
}

var menuTmpl = template.Must(template.New("menu").Parse(
	`{{range .}}<a href="{{.Href}}" data-route="{{.ID}}"{{if .Active}} class="active" aria-current="page"{{end}}>{{.Text}}</a>{{end}}`,
))

// Render produces the menu markup for items.
func Render(items []RenderedItem) (template.HTML, error) {
	var buf bytes.Buffer
	if err := menuTmpl.Execute(&buf, items); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Breadcrumbs builds the trail for current: always the home entry, then the
// current entry when it is a different known route.
func Breadcrumbs(doc *content.Document, lang string, current content.RouteID, href HrefFunc) []Crumb {
	if href == nil {
		href = HashHref
	}
	homeLabel := string(content.DefaultRoute)
	if e, ok := doc.Entry(lang, content.DefaultRoute); ok {
		homeLabel = e.Text
	}
	crumbs := []Crumb{{Href: href(content.DefaultRoute), Label: homeLabel, Active: current == content.DefaultRoute}}
	if current == content.DefaultRoute {
		return crumbs
	}
	e, ok := doc.Entry(lang, current)
	if !ok {
		return crumbs
	}
	return append(crumbs, Crumb{Href: href(current), Label: e.Text, Active: true})
}
