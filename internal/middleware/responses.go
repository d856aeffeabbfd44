package middleware

import (
	"encoding/json"
	"net/http"
)

// Rejection codes written by the middleware chain.
const (
	CodeCSRFInvalid = "CSRF_INVALID"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// writeError rejects a request before it reaches a handler. htmx callers get
// JSON and no swap so the current page stays intact.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	w.Header().Set("Cache-Control", "no-store")
	if IsHTMX(r.Context()) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(errorResponse{Code: code, Message: msg})
		return
	}
	http.Error(w, code+": "+msg, status)
}
