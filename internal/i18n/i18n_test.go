package i18n

import "testing"

func TestResolveHonorsQValues(t *testing.T) {
	b := Default()
	got := b.Resolve("fa;q=0.8, en;q=0.9")
	if got != "en" {
		t.Fatalf("expected en, got %s", got)
	}
}

func TestResolveRegionalAndUnknown(t *testing.T) {
	b := Default()
	if got := b.Resolve("en-GB,en;q=0.8"); got != "en" {
		t.Fatalf("expected en for en-GB, got %s", got)
	}
	if got := b.Resolve("de-DE"); got != "fa" {
		t.Fatalf("expected fallback fa for de-DE, got %s", got)
	}
	if got := b.Resolve(""); got != "fa" {
		t.Fatalf("expected fallback fa for empty header, got %s", got)
	}
}

func TestTranslateFallsBack(t *testing.T) {
	b := Default()
	if got := b.T("en", "theme.toggle.to_light"); got != "Light Mode" {
		t.Fatalf("unexpected en label %q", got)
	}
	if got := b.T("fa", "theme.toggle.to_light"); got != "تم روشن" {
		t.Fatalf("unexpected fa label %q", got)
	}
	if got := b.T("de", "lang.toggle"); got != "EN" {
		t.Fatalf("expected fallback to fa strings, got %q", got)
	}
	if got := b.T("en", "missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
	if got := b.Tf("en", "error.content_not_found", "about"); got != "Content for page ID 'about' does not exist in the database." {
		t.Fatalf("unexpected formatted message %q", got)
	}
}
