package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/prefs"
)

// SessionStorage persists preferences in the signed session cookie.
type SessionStorage struct {
	sd *SessionData
}

// NewSessionStorage wraps sd.
func NewSessionStorage(sd *SessionData) *SessionStorage {
	return &SessionStorage{sd: sd}
}

// Get implements prefs.Storage.
func (s *SessionStorage) Get(key string) (string, bool, error) {
	var v string
	switch key {
	case prefs.KeyLanguage:
		v = s.sd.Lang
	case prefs.KeyTheme:
		v = s.sd.Theme
	}
	return v, v != "", nil
}

// Set implements prefs.Storage. The cookie is rewritten with the response.
func (s *SessionStorage) Set(key, value string) error {
	switch key {
	case prefs.KeyLanguage:
		if s.sd.Lang == value {
			return nil
		}
		s.sd.Lang = value
	case prefs.KeyTheme:
		if s.sd.Theme == value {
			return nil
		}
		s.sd.Theme = value
	default:
		return nil
	}
	s.sd.MarkDirty()
	return nil
}

// PrefsStore returns a preference store backed by the request session.
func PrefsStore(r *http.Request, logger *zap.Logger) *prefs.Store {
	store := prefs.NewStore(NewSessionStorage(GetSession(r)), logger)
	store.Load()
	return store
}
