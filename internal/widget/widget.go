// Package widget holds the loaders that inject third-party market widgets
// after a page has been mounted. Loaders return immediately; the embed
// snippets fetch and draw the widgets on their own.
package widget

import (
	"bytes"
	"html/template"
	"sync"

	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/observability"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
)

// Effect names a post-render side effect.
type Effect string

const (
	// AnalysisChart loads the advanced chart into the analysis panel.
	AnalysisChart Effect = "analysis-chart"
	// TickerTape loads the scrolling quote strip.
	TickerTape Effect = "ticker-tape"
)

// Container ids the snippets draw into.
const (
	AnalysisContainerID = "technical-analysis-widget-container"
	TickerContainerID   = "ticker-tape-container"
)

// Loader starts a widget for the given theme without waiting for it.
type Loader interface {
	Load(theme prefs.Theme)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(theme prefs.Theme)

// Load calls f.
func (f LoaderFunc) Load(theme prefs.Theme) { f(theme) }

// Injector places a script snippet into the container with the given id.
type Injector interface {
	Inject(containerID string, snippet template.HTML)
}

// Registry maps effects to loaders.
type Registry map[Effect]Loader

// Defaults returns the chart and ticker loaders bound to inj.
func Defaults(inj Injector, logger *zap.Logger) Registry {
	return Registry{
		AnalysisChart: NewAdvancedChart(inj, logger),
		TickerTape:    NewTickerTape(inj, logger),
	}
}

// Run invokes the loader of each effect in order. Effects without a loader
// are skipped.
func (r Registry) Run(effects []Effect, theme prefs.Theme) {
	for _, e := range effects {
		if l, ok := r[e]; ok && l != nil {
			l.Load(theme)
		}
	}
}

// ChartConfig is the advanced chart embed configuration.
type ChartConfig struct {
	Autosize          bool   `json:"autosize"`
	Symbol            string `json:"symbol"`
	Interval          string `json:"interval"`
	Timezone          string `json:"timezone"`
	Theme             string `json:"theme"`
	Style             string `json:"style"`
	Locale            string `json:"locale"`
	ToolbarBG         string `json:"toolbar_bg"`
	EnablePublishing  bool   `json:"enable_publishing"`
	AllowSymbolChange bool   `json:"allow_symbol_change"`
	ContainerID       string `json:"container_id"`
}

// ChartConfigFor returns the chart configuration for theme.
func ChartConfigFor(theme prefs.Theme) ChartConfig {
	toolbar := "#131722"
	if theme == prefs.ThemeLight {
		toolbar = "#f1f3f6"
	}
	return ChartConfig{
		Autosize:          true,
		Symbol:            "BINANCE:BTCUSDT",
		Interval:          "D",
		Timezone:          "Etc/UTC",
		Theme:             string(theme),
		Style:             "1",
		Locale:            "en",
		ToolbarBG:         toolbar,
		AllowSymbolChange: true,
		ContainerID:       AnalysisContainerID,
	}
}

// TickerSymbol is one quote in the ticker tape.
type TickerSymbol struct {
	ProName     string `json:"proName"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// TickerConfig is the ticker tape embed configuration.
type TickerConfig struct {
	Symbols        []TickerSymbol `json:"symbols"`
	ShowSymbolLogo bool           `json:"showSymbolLogo"`
	IsTransparent  bool           `json:"isTransparent"`
	DisplayMode    string         `json:"displayMode"`
	ColorTheme     string         `json:"colorTheme"`
	Locale         string         `json:"locale"`
}

// TickerConfigFor returns the ticker configuration for theme.
func TickerConfigFor(theme prefs.Theme) TickerConfig {
	return TickerConfig{
		Symbols: []TickerSymbol{
			{ProName: "BINANCE:BTCUSDT", Title: "Bitcoin"},
			{ProName: "BINANCE:ETHUSDT", Title: "Ethereum"},
			{ProName: "FX_IDC:XAUUSD", Title: "Gold"},
			{ProName: "CME_MINI:ES1!", Description: "S&P 500"},
		},
		ShowSymbolLogo: true,
		IsTransparent:  true,
		DisplayMode:    "adaptive",
		ColorTheme:     string(theme),
		Locale:         "en",
	}
}

var snippets = template.Must(template.New("widgets").Parse(`
{{define "chart"}}<script src="https://s3.tradingview.com/tv.js"></script><script>new TradingView.widget({{.}});</script>{{end}}
{{define "ticker"}}<script type="text/javascript" src="https://s3.tradingview.com/external-embedding/embed-widget-ticker-tape.js" async>{{.}}</script>{{end}}
`))

// AdvancedChart injects the advanced chart into the analysis panel.
type AdvancedChart struct {
	inj    Injector
	logger *zap.Logger
}

// NewAdvancedChart builds a chart loader.
func NewAdvancedChart(inj Injector, logger *zap.Logger) *AdvancedChart {
	return &AdvancedChart{inj: inj, logger: observability.OrNop(logger)}
}

// Load implements Loader.
func (c *AdvancedChart) Load(theme prefs.Theme) {
	inject(c.inj, c.logger, "chart", AnalysisContainerID, ChartConfigFor(theme))
}

// TickerTapeLoader injects the quote strip. The loader is meant to run once per
// document load; later calls replace the earlier snippet.
type TickerTapeLoader struct {
	inj    Injector
	logger *zap.Logger
}

// NewTickerTape builds a ticker loader.
func NewTickerTape(inj Injector, logger *zap.Logger) *TickerTapeLoader {
	return &TickerTapeLoader{inj: inj, logger: observability.OrNop(logger)}
}

// Load implements Loader.
func (t *TickerTapeLoader) Load(theme prefs.Theme) {
	inject(t.inj, t.logger, "ticker", TickerContainerID, TickerConfigFor(theme))
}

func inject(inj Injector, logger *zap.Logger, name, container string, cfg any) {
	if inj == nil {
		logger.Debug("widget skipped, no injector", zap.String("widget", name))
		return
	}
	var buf bytes.Buffer
	if err := snippets.ExecuteTemplate(&buf, name, cfg); err != nil {
		logger.Error("widget snippet", zap.String("widget", name), zap.Error(err))
		return
	}
	inj.Inject(container, template.HTML(buf.String()))
	logger.Debug("widget injected", zap.String("widget", name), zap.String("container", container))
}

// Slots collects injected snippets by container id. It is an Injector for
// hosts that render the snippets into a page afterwards.
type Slots struct {
	mu    sync.Mutex
	items map[string]template.HTML
	order []string
}

// Inject implements Injector. A second snippet for the same container
// replaces the first.
func (s *Slots) Inject(containerID string, snippet template.HTML) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]template.HTML{}
	}
	if _, ok := s.items[containerID]; !ok {
		s.order = append(s.order, containerID)
	}
	s.items[containerID] = snippet
}

// Get returns the snippet for containerID.
func (s *Slots) Get(containerID string) template.HTML {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[containerID]
}

// Containers lists container ids in first-injection order.
func (s *Slots) Containers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Reset drops every snippet.
func (s *Slots) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.order = nil
}
