package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Diegoproggramer/CivilCity/internal/page"
)

const fixtureDocument = `{
  "navigation": {
    "fa": [
      {"id": "home", "text": "خانه", "kind": "page"},
      {"id": "news", "text": "اخبار", "kind": "page"},
      {"id": "members", "text": "اعضا", "kind": "component"}
    ],
    "en": [
      {"id": "home", "text": "Home"},
      {"id": "news", "text": "News"}
    ]
  },
  "pages": {
    "fa": {
      "home": {"title": "خانه", "content": "به شهر مدنی خوش آمدید"},
      "news": {"title": "اخبار", "content": "تازه‌ترین خبرها"}
    },
    "en": {
      "home": {"title": "Home", "content": "Welcome to Civil City"}
    }
  },
  "estimatorParams": {"baseCostPerMeter": 1000, "qualityMultiplier": {"economic": 1, "luxury": 2.5}}
}`

type fixture struct {
	dir    string
	config string
	prefs  string
}

func newFixture(t *testing.T, source string) fixture {
	t.Helper()
	dir := t.TempDir()
	components := filepath.Join(dir, "components")
	require.NoError(t, os.MkdirAll(components, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.json"), []byte(fixtureDocument), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(components, "members.html"), []byte(`<ul><li>علی رضایی</li></ul>`), 0o644))
	if source == "" {
		source = filepath.Join(dir, "db.json")
	}
	f := fixture{dir: dir, config: filepath.Join(dir, "civilcity.yaml"), prefs: filepath.Join(dir, "prefs.json")}
	yaml := "content:\n" +
		"  source: " + source + "\n" +
		"  components: " + components + "\n" +
		"prefs:\n" +
		"  file: " + f.prefs + "\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(f.config, []byte(yaml), 0o644))
	return f
}

func (f fixture) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRenderHome(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "render")
	require.NoError(t, err)
	require.Contains(t, out, "[خانه] | اخبار | اعضا")
	require.Contains(t, out, "به شهر مدنی خوش آمدید")
	require.Contains(t, out, "[widget #ticker-tape-container]")
}

func TestRenderComponent(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "render", "#members")
	require.NoError(t, err)
	require.Contains(t, out, "علی رضایی")
	require.Contains(t, out, "خانه | اخبار | [اعضا]")
}

func TestRenderUnknownRouteFails(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "render", "nowhere")
	require.Error(t, err)
	require.True(t, errors.Is(err, page.ErrRouteNotFound))
	require.Contains(t, out, "ROUTE_NOT_FOUND")
}

func TestRenderOverridesDoNotPersist(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "render", "--lang", "en", "--raw", "home")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Home</h1>")
	require.Contains(t, out, `class="active"`)
	_, statErr := os.Stat(f.prefs)
	require.True(t, os.IsNotExist(statErr))
}

func TestRenderLoadFailure(t *testing.T) {
	f := newFixture(t, filepath.Join(t.TempDir(), "missing.json"))
	out, _, err := f.run(t, "", "render", "news")
	require.Error(t, err)
	require.True(t, errors.Is(err, page.ErrDataLinkFailure))
	require.Contains(t, out, "DATA_LINK_FAILURE")
	require.NotContains(t, out, "[widget")
}

func TestBrowseSession(t *testing.T) {
	f := newFixture(t, "")
	out, status, err := f.run(t, "news\n:theme\n:where\n:lang\n:quit\n", "browse")
	require.NoError(t, err)
	require.Contains(t, out, "تازه‌ترین خبرها")
	require.Contains(t, status, "theme: light")
	require.Contains(t, status, "route: news, language: fa, theme: light")
	require.Contains(t, status, "language: en")
	// news has no English page.
	require.Contains(t, out, "CONTENT_NOT_FOUND")

	saved, err := os.ReadFile(f.prefs)
	require.NoError(t, err)
	require.Contains(t, string(saved), "light")
	require.Contains(t, string(saved), "en")

	out, _, err = f.run(t, "", "render", "home")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome to Civil City", "saved language is used next time")
}

func TestBrowseReportsUnknownRoutes(t *testing.T) {
	f := newFixture(t, "")
	_, status, err := f.run(t, "missing\n", "browse")
	require.NoError(t, err)
	require.Contains(t, status, "ROUTE_NOT_FOUND")
}

func TestRoutes(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "routes")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	require.Contains(t, lines[0], "ROUTE")
	require.Regexp(t, `en\s+news\s+page\s+News\s+CONTENT_NOT_FOUND`, out)
	require.Regexp(t, `fa\s+members\s+component\s+اعضا\s+ok`, out)

	out, _, err = f.run(t, "", "routes", "--lang", "en")
	require.NoError(t, err)
	require.NotContains(t, out, "members")

	_, _, err = f.run(t, "", "routes", "--lang", "de")
	require.Error(t, err)
}

func TestEstimate(t *testing.T) {
	f := newFixture(t, "")
	out, _, err := f.run(t, "", "estimate", "--area", "100", "--quality", "luxury", "--lang", "en")
	require.NoError(t, err)
	require.Equal(t, "Estimated construction cost: 250,000 toman\n", out)

	out, _, err = f.run(t, "", "estimate", "--area", "۱۲۰", "--quality", "economic")
	require.NoError(t, err)
	require.Contains(t, out, "تومان")

	_, _, err = f.run(t, "", "estimate", "--area", "10", "--quality", "palace")
	require.Error(t, err)
	require.Contains(t, err.Error(), "economic, luxury")

	_, _, err = f.run(t, "", "estimate", "--area", "zero", "--quality", "economic")
	require.Error(t, err)
}

func TestTextLines(t *testing.T) {
	lines := textLines(`<h1>Title</h1><p>one
	two</p><ul><li>a</li><li> </li></ul>`)
	require.Equal(t, []string{"Title", "one two", "a"}, lines)
	require.Equal(t, []string{"plain"}, textLines("plain"))
}
