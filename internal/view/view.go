// Package view holds the HTML layout of the preview host.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Diegoproggramer/CivilCity/internal/nav"
	"github.com/Diegoproggramer/CivilCity/internal/seo"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageData is the view model of one rendered route.
type PageData struct {
	Lang     string
	Dir      string
	Theme    string
	SiteName string
	Title    string
	Route    string

	Nav     template.HTML
	Crumbs  []nav.Crumb
	Content template.HTML
	Widgets []template.HTML
	Ticker  template.HTML

	Narrative   string
	Headlines   []string
	TickerLabel string

	ThemeToggleLabel string
	LangToggleLabel  string
	CSRFToken        string

	Meta seo.Meta
}

// EstimateData is the estimator response fragment.
type EstimateData struct {
	Message string
	Error   string
}

// Renderer executes the layout templates. With a dev directory the
// templates are reparsed from disk on every call.
type Renderer struct {
	devDir string

	mu    sync.Mutex
	cache *template.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDevDir reparses templates from dir on each render.
func WithDevDir(dir string) Option {
	return func(r *Renderer) { r.devDir = strings.TrimSpace(dir) }
}

// New parses the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.devDir != "" {
		if _, err := r.parseDir(); err != nil {
			return nil, err
		}
		return r, nil
	}
	t, err := parse(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	r.cache = t
	return r, nil
}

func parse(fsys fs.FS, dir string) (*template.Template, error) {
	var files []string
	if err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", dir)
	}
	return template.New("_root").ParseFS(fsys, files...)
}

func (r *Renderer) parseDir() (*template.Template, error) {
	abs, err := filepath.Abs(r.devDir)
	if err != nil {
		return nil, err
	}
	return parse(os.DirFS(abs), ".")
}

func (r *Renderer) templates() (*template.Template, error) {
	if r.devDir != "" {
		return r.parseDir()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		return nil, fmt.Errorf("template not initialized")
	}
	return r.cache, nil
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		return err
	}
	// Buffer so a failing template never leaves a half written response.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("view: execute %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, data PageData) error { return r.execute(w, "layout", data) }

// Shell writes only the #app-shell fragment swapped by htmx navigation.
func (r *Renderer) Shell(w io.Writer, data PageData) error { return r.execute(w, "shell", data) }

// Estimate writes the estimator result fragment.
func (r *Renderer) Estimate(w io.Writer, data EstimateData) error {
	return r.execute(w, "estimate-result", data)
}
