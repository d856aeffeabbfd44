package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "CIVILCITY_SESSION"
	sessionLifetime   = 365 * 24 * time.Hour
)

// SessionData is the signed cookie payload. It carries the two preference
// scalars and nothing else the portal needs to remember.
type SessionData struct {
	ID        string    `json:"id"`
	Lang      string    `json:"lang,omitempty"`
	Theme     string    `json:"theme,omitempty"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

// Sessions signs and verifies session cookies.
type Sessions struct {
	key    []byte
	secure bool
	now    func() time.Time
}

// NewSessions returns a cookie codec signing with key. An empty key is
// replaced by a random per-process key; the returned flag reports that.
func NewSessions(key string, secure bool) (*Sessions, bool) {
	s := &Sessions{key: []byte(key), secure: secure, now: time.Now}
	if key != "" {
		return s, false
	}
	s.key = make([]byte, 32)
	if _, err := rand.Read(s.key); err != nil {
		s.key = []byte(uuid.NewString() + uuid.NewString())
	}
	return s, true
}

// Secure reports whether cookies carry the Secure attribute.
func (s *Sessions) Secure() bool { return s.secure }

// Middleware loads or initializes a session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			sd.ID = uuid.NewString()
			sd.CreatedAt = s.now().UTC()
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		// cookie must be set before the first write
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			s.write(w, sd)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	return SessionFromContext(r.Context())
}

// SessionFromContext returns the request session or an empty detached one.
func SessionFromContext(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(ctxKeySession).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

// WithSession attaches sd to ctx.
func WithSession(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, ctxKeySession, sd)
}

// MarkDirty flags the session for writing at end of request. UpdatedAt is
// stamped when the cookie is written.
func (sd *SessionData) MarkDirty() { sd.dirty = true }

// Dirty reports whether the cookie will be rewritten.
func (sd *SessionData) Dirty() bool { return sd.dirty }

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	sd, ok := s.Decode(c.Value)
	if !ok {
		return &SessionData{}, false
	}
	return sd, true
}

// Encode serialises and signs sd.
func (s *Sessions) Encode(sd *SessionData) string {
	b, _ := json.Marshal(sd)
	mac := hmac.New(sha256.New, s.key)
	mac.Write(b)
	return base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Decode verifies and parses a cookie value.
func (s *Sessions) Decode(value string) (*SessionData, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return nil, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	now := s.now()
	if sd.dirty || sd.UpdatedAt.IsZero() {
		sd.UpdatedAt = now.UTC()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.Encode(sd),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(sessionLifetime),
	})
}

// SessionCookieName is exported for tests and hosts that forward cookies.
func SessionCookieName() string { return sessionCookieName }
