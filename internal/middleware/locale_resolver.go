package middleware

import (
	"context"
	"net/http"

	"github.com/Diegoproggramer/CivilCity/internal/i18n"
	"github.com/Diegoproggramer/CivilCity/internal/prefs"
)

const langCookieName = "hl"

// Locale resolves the session language. The `hl` query parameter wins, then
// the session, then the `hl` cookie, then Accept-Language. Values outside the
// supported languages are ignored.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)
			storage := NewSessionStorage(s)

			if q := r.URL.Query().Get(langCookieName); q != "" {
				if lang, ok := prefs.ParseLanguage(q); ok {
					_ = storage.Set(prefs.KeyLanguage, string(lang))
					http.SetCookie(w, &http.Cookie{Name: langCookieName, Value: string(lang), Path: "/", SameSite: http.SameSiteLaxMode})
				}
			}
			if _, ok := prefs.ParseLanguage(s.Lang); !ok {
				resolved := bundle.Resolve(r.Header.Get("Accept-Language"))
				if c, err := r.Cookie(langCookieName); err == nil {
					if lang, ok := prefs.ParseLanguage(c.Value); ok {
						resolved = string(lang)
					}
				}
				_ = storage.Set(prefs.KeyLanguage, resolved)
			}
			w.Header().Set("Content-Language", s.Lang)
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns the current language from the session or the fallback.
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Lang != "" {
		return s.Lang
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return string(prefs.LanguagePrimary)
}
