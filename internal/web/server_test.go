package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/Diegoproggramer/CivilCity/internal/config"
	"github.com/Diegoproggramer/CivilCity/internal/content"
	"github.com/Diegoproggramer/CivilCity/internal/fragment"
)

func testDocument() *content.Document {
	return content.New(content.Source{
		Navigation: map[string][]content.NavigationEntry{
			"fa": {
				{ID: "home", Text: "خانه", Kind: content.KindPage},
				{ID: "news", Text: "اخبار", Kind: content.KindPage},
				{ID: "analysis", Text: "تحلیل", Kind: content.KindPage},
				{ID: "members", Text: "اعضا", Kind: content.KindComponent},
				{ID: "broken", Text: "خراب", Kind: content.KindComponent},
			},
			"en": {
				{ID: "home", Text: "Home", Kind: content.KindPage},
				{ID: "news", Text: "News", Kind: content.KindPage},
			},
		},
		Pages: map[string]map[content.RouteID]content.PageContent{
			"fa": {
				"home":     {Title: "خانه", Body: "به شهر مدنی خوش آمدید"},
				"news":     {Title: "اخبار", Body: "تازه‌ها"},
				"analysis": {Title: "تحلیل"},
			},
			"en": {
				"home": {Title: "Home", Body: "Welcome"},
			},
		},
		Articles: []content.ArticleSummary{
			{Title: "Steel", Summary: "Weekly", Category: "market", PublishDate: "2024-05-01"},
		},
		Narrative:  &content.Narrative{Story: "Civil City story"},
		NewsTicker: []string{"headline one"},
		EstimatorParams: &content.EstimatorParams{
			BaseCostPerMeter:  1000,
			QualityMultiplier: map[string]float64{"economic": 1, "luxury": 2.5},
		},
	})
}

var fakeFragments = fragment.FetcherFunc(func(_ context.Context, id content.RouteID) (string, error) {
	if id == "members" {
		return `<ul class="members"><li>علی</li></ul>`, nil
	}
	return "", content.NewFetchError(content.NotFound, string(id), http.StatusInternalServerError, errors.New("status 500"))
})

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Server.SessionKey = "0123456789abcdef0123456789abcdef"
	cfg.Server.CORSOrigins = []string{"https://mirror.example.com"}
	opts = append([]Option{WithDocument(testDocument(), nil), WithFragments(fakeFragments)}, opts...)
	s, err := New(context.Background(), cfg, nil, opts...)
	require.NoError(t, err)
	return s.Handler()
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return c.do(req)
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) csrf() string {
	ck, ok := c.cookies["csrf_token"]
	require.True(c.t, ok, "csrf cookie issued")
	return ck.Value
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func TestHomePage(t *testing.T) {
	c := newClient(t, newTestServer(t))
	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Values("Vary"), "Cookie")
	require.Contains(t, rec.Header().Values("Vary"), "HX-Request")

	doc := parseBody(t, rec)
	require.Equal(t, "fa", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "rtl", doc.Find("html").AttrOr("dir", ""))
	require.Equal(t, "dark", doc.Find("body").AttrOr("data-theme", ""))
	require.Equal(t, "خانه", doc.Find("#app-outlet h1").Text())
	require.Equal(t, "به شهر مدنی خوش آمدید", doc.Find("#app-outlet p").Text())

	active := doc.Find("#main-nav a.active")
	require.Equal(t, 1, active.Length())
	require.Equal(t, "/home", active.AttrOr("href", ""))
	require.Equal(t, 5, doc.Find("#main-nav a").Length())

	require.Equal(t, 1, doc.Find("#ticker-tape-container script").Length(), "ticker loads after content")
	require.Equal(t, "headline one", doc.Find("#news-ticker-content").Text())
	require.Equal(t, "Civil City story", doc.Find(".narrative p").Text())
	require.Equal(t, "تم روشن", doc.Find("#theme-switcher").Text())
}

func TestHTMXNavigationReturnsShellOnly(t *testing.T) {
	c := newClient(t, newTestServer(t))
	rec := c.get("/news", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, `<div id="app-shell"`))
	require.NotContains(t, body, "<html")

	doc := parseBody(t, rec)
	require.Equal(t, "/news", doc.Find("#main-nav a.active").AttrOr("href", ""))
	require.Equal(t, 1, doc.Find(".grid-container .card").Length())
	require.Equal(t, 2, doc.Find(".breadcrumbs li").Length())
}

func TestUnknownRoute(t *testing.T) {
	c := newClient(t, newTestServer(t))
	rec := c.get("/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)

	doc := parseBody(t, rec)
	outlet := doc.Find("#app-outlet")
	require.Equal(t, "ROUTE_NOT_FOUND", outlet.Find(".fatal-error-box").AttrOr("data-error-code", ""))
	require.Equal(t, 1, outlet.Children().Length(), "only the panel is mounted")
	require.Equal(t, 0, doc.Find("#main-nav a.active").Length())
}

func TestAnalysisLoadsChartWidget(t *testing.T) {
	c := newClient(t, newTestServer(t))
	rec := c.get("/analysis")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseBody(t, rec)
	require.Equal(t, 1, doc.Find("#technical-analysis-widget-container").Length())

	var chart bool
	doc.Find("#app-shell > script").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), "TradingView.widget") {
			chart = true
			require.Contains(t, s.Text(), `"toolbar_bg":"#131722"`)
		}
	})
	require.True(t, chart)
}

func TestComponentRoutes(t *testing.T) {
	c := newClient(t, newTestServer(t))

	rec := c.get("/members")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "علی", parseBody(t, rec).Find("#app-outlet .members li").Text())

	rec = c.get("/broken")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	doc := parseBody(t, rec)
	require.Equal(t, "COMPONENT_LOAD_FAILURE", doc.Find(".fatal-error-box").AttrOr("data-error-code", ""))
	require.Equal(t, "dark", doc.Find("body").AttrOr("data-theme", ""), "preferences untouched")
}

func TestLoadFailureServesDataLinkPanel(t *testing.T) {
	loadErr := content.NewFetchError(content.NotFound, "db.json", http.StatusNotFound, errors.New("status 404"))
	h := newTestServer(t, WithDocument(nil, loadErr))
	c := newClient(t, h)

	for _, target := range []string{"/", "/news"} {
		rec := c.get(target)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		doc := parseBody(t, rec)
		require.Equal(t, "DATA_LINK_FAILURE", doc.Find(".fatal-error-box").AttrOr("data-error-code", ""))
		require.Equal(t, 0, doc.Find("#main-nav a").Length())
		require.Equal(t, 0, doc.Find("#ticker-tape-container script").Length())
	}

	rec := c.get("/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = c.get("/data/db.json")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestThemeToggle(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.get("/news")

	rec := c.post("/prefs/theme", url.Values{"csrf_token": {c.csrf()}, "route": {"news"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/news", rec.Header().Get("Location"))

	doc := parseBody(t, c.get("/news"))
	require.Equal(t, "light", doc.Find("body").AttrOr("data-theme", ""))
	require.Equal(t, "تم تاریک", doc.Find("#theme-switcher").Text())

	c.post("/prefs/theme", url.Values{"csrf_token": {c.csrf()}})
	doc = parseBody(t, c.get("/"))
	require.Equal(t, "dark", doc.Find("body").AttrOr("data-theme", ""), "double toggle is identity")
}

func TestToggleRequiresCSRF(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.get("/")
	rec := c.post("/prefs/theme", url.Values{})
	require.Equal(t, http.StatusForbidden, rec.Code)
	doc := parseBody(t, c.get("/"))
	require.Equal(t, "dark", doc.Find("body").AttrOr("data-theme", ""))
}

func TestLanguageToggleAndQuery(t *testing.T) {
	c := newClient(t, newTestServer(t))
	c.get("/")

	rec := c.post("/prefs/lang", url.Values{"csrf_token": {c.csrf()}, "route": {"#home"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))

	doc := parseBody(t, c.get("/"))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "ltr", doc.Find("html").AttrOr("dir", ""))
	require.Equal(t, "Home", doc.Find("#app-outlet h1").Text())
	require.Equal(t, "FA", doc.Find("#lang-switcher").Text())
	require.Equal(t, "Light Mode", doc.Find("#theme-switcher").Text())

	doc = parseBody(t, c.get("/?hl=fa"))
	require.Equal(t, "fa", doc.Find("html").AttrOr("lang", ""))

	// Members only exists in the Persian menu.
	c.get("/?hl=en")
	rec = c.get("/members")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimate(t *testing.T) {
	c := newClient(t, newTestServer(t))

	rec := c.post("/estimate?hl=en", url.Values{"area": {"100"}, "quality": {"luxury"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Estimated construction cost: 250,000 toman")

	rec = c.post("/estimate?hl=fa", url.Values{"area": {"۱۰۰"}, "quality": {"economic"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "تومان")
	require.NotContains(t, rec.Body.String(), "100")

	rec = c.post("/estimate", url.Values{"area": {"-5"}, "quality": {"economic"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.post("/estimate", url.Values{"area": {"10"}, "quality": {"palace"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDataEndpoints(t *testing.T) {
	c := newClient(t, newTestServer(t))

	req := httptest.NewRequest(http.MethodGet, "/data/db.json", nil)
	req.Header.Set("Origin", "https://mirror.example.com")
	rec := c.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://mirror.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	var src content.Source
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &src))
	require.Len(t, src.Navigation["fa"], 5)
	require.Equal(t, "خانه", src.Pages["fa"]["home"].Title)

	rec = c.get("/data/components/members")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "علی")

	rec = c.get("/data/components/broken")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthAndStatic(t *testing.T) {
	c := newClient(t, newTestServer(t))
	rec := c.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = c.get("/static/css/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusOK, statusFor(nil))
	require.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}

func TestHeadMetadata(t *testing.T) {
	c := newClient(t, newTestServer(t))
	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Host = "civilcity.example"
	req.Header.Set("X-Forwarded-Proto", "https")
	doc := parseBody(t, c.do(req))

	require.Equal(t, "https://civilcity.example/news?hl=fa", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	require.Equal(t, 1, doc.Find(`link[hreflang="en"]`).Length())
	require.Equal(t, "article", doc.Find(`meta[property="og:type"]`).AttrOr("content", ""))

	var types []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(s.Text()), &payload))
		types = append(types, payload["@type"].(string))
	})
	require.Equal(t, []string{"BreadcrumbList", "NewsArticle"}, types)
}
