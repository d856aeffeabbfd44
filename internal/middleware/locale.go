package middleware

import "net/http"

// VaryPreferences marks responses as depending on the visitor's language
// negotiation and on the session cookie that carries theme and language.
func VaryPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Accept-Language")
		h.Add("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}
