package main

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/config"
	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/fragment"
	"github.com/Diegoproggramer/CivilCity/internal/i18n"
	"github.com/Diegoproggramer/CivilCity/internal/page"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
	"github.com/Diegoproggramer/CivilCity/internal/router"
	"github.com/Diegoproggramer/CivilCity/internal/widget"
)

// terminal is an outlet that prints mounted markup as plain text, or as raw
// HTML when raw is set.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
	raw bool
}

func (t *terminal) MountNav(markup template.HTML) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw {
		fmt.Fprintln(t.out, string(markup))
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(markup)))
	if err != nil {
		return
	}
	var items []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		label := collapse(s.Text())
		if s.HasClass("active") {
			label = "[" + label + "]"
		}
		items = append(items, label)
	})
	fmt.Fprintln(t.out, strings.Join(items, " | "))
}

func (t *terminal) Mount(markup template.HTML) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw {
		fmt.Fprintln(t.out, string(markup))
		return
	}
	fmt.Fprintln(t.out, strings.Repeat("-", 40))
	for _, line := range textLines(string(markup)) {
		fmt.Fprintln(t.out, line)
	}
}

func (t *terminal) Inject(containerID string, snippet template.HTML) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw {
		fmt.Fprintf(t.out, "<!-- #%s -->\n%s\n", containerID, snippet)
		return
	}
	fmt.Fprintf(t.out, "[widget #%s]\n", containerID)
}

// textLines flattens block level elements of markup into one line each.
func textLines(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []string{markup}
	}
	var lines []string
	doc.Find("h1, h2, h3, h4, p, li, label, option").Each(func(_ int, s *goquery.Selection) {
		if line := collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		if line := collapse(doc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// newTerminalRouter wires a router that loads content itself and prints to
// term. storage is where the preferences live between runs.
func newTerminalRouter(cfg *config.Config, logger *zap.Logger, storage prefs.Storage, term *terminal) (*router.Router, error) {
	fragments := fragment.NewClient(cfg.Content.Components,
		fragment.WithCacheTTL(cfg.Content.CacheTTL),
		fragment.WithLogger(logger))
	return router.New(router.Deps{
		Source:   cfg.Content.Source,
		Loader:   content.NewLoader(content.WithTimeout(cfg.Content.Timeout), content.WithLogger(logger)),
		Prefs:    prefs.NewStore(storage, logger),
		Renderer: page.New(fragments, page.WithBundle(i18n.Default()), page.WithLogger(logger)),
		Widgets:  widget.Defaults(term, logger),
		Outlet:   term,
		Logger:   logger,
	})
}
