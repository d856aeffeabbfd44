package prefs

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Diegoproggramer/CivilCity/internal/observability"
)

// Language is the display language. Persian is the primary language of the
// portal, English the secondary one.
type Language string

const (
	LanguagePrimary   Language = "fa"
	LanguageSecondary Language = "en"
)

// ParseLanguage validates v against the supported languages.
func ParseLanguage(v string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(v))) {
	case LanguagePrimary:
		return LanguagePrimary, true
	case LanguageSecondary:
		return LanguageSecondary, true
	}
	return "", false
}

// Dir returns the text direction for the language.
func (l Language) Dir() string {
	if l == LanguagePrimary {
		return "rtl"
	}
	return "ltr"
}

// Other returns the language a toggle switches to.
func (l Language) Other() Language {
	if l == LanguagePrimary {
		return LanguageSecondary
	}
	return LanguagePrimary
}

func (l Language) String() string { return string(l) }

// Theme is the colour scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme validates v against the supported themes.
func ParseTheme(v string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(v))) {
	case ThemeDark:
		return ThemeDark, true
	case ThemeLight:
		return ThemeLight, true
	}
	return "", false
}

// Opposite returns the theme a toggle switches to.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) String() string { return string(t) }

// Preferences is the persisted language/theme selection.
type Preferences struct {
	Language Language
	Theme    Theme
}

// Defaults returns the preferences used when storage holds nothing usable.
func Defaults() Preferences {
	return Preferences{Language: LanguagePrimary, Theme: ThemeDark}
}

// Storage keys.
const (
	KeyLanguage = "lang"
	KeyTheme    = "theme"
)

// Store reads and writes preferences through a Storage backend. Every
// mutation is persisted before it returns.
type Store struct {
	mu      sync.Mutex
	storage Storage
	logger  *zap.Logger
	current Preferences
	loaded  bool
}

// NewStore constructs a Store over storage. A nil storage keeps preferences in memory.
func NewStore(storage Storage, logger *zap.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{storage: storage, logger: observability.OrNop(logger), current: Defaults()}
}

// Load reads preferences from storage. Missing, invalid or unreadable values
// fall back to the defaults; Load never fails.
func (s *Store) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Defaults()
	if v, ok, err := s.storage.Get(KeyLanguage); err != nil {
		s.logger.Debug("preference read failed", zap.String("key", KeyLanguage), zap.Error(err))
	} else if ok {
		if lang, valid := ParseLanguage(v); valid {
			p.Language = lang
		}
	}
	if v, ok, err := s.storage.Get(KeyTheme); err != nil {
		s.logger.Debug("preference read failed", zap.String("key", KeyTheme), zap.Error(err))
	} else if ok {
		if theme, valid := ParseTheme(v); valid {
			p.Theme = theme
		}
	}
	s.current = p
	s.loaded = true
	return p
}

// Current returns the in-memory preferences, loading them on first use.
func (s *Store) Current() Preferences {
	s.mu.Lock()
	loaded, p := s.loaded, s.current
	s.mu.Unlock()
	if !loaded {
		return s.Load()
	}
	return p
}

// SetLanguage validates v and persists it. Unrecognised values are ignored.
func (s *Store) SetLanguage(v string) Preferences {
	lang, ok := ParseLanguage(v)
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.logger.Debug("ignoring unsupported language", zap.String("value", v))
		return s.current
	}
	s.current.Language = lang
	s.persist(KeyLanguage, string(lang))
	return s.current
}

// SetTheme validates v and persists it. Unrecognised values are ignored.
func (s *Store) SetTheme(v string) Preferences {
	theme, ok := ParseTheme(v)
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.logger.Debug("ignoring unsupported theme", zap.String("value", v))
		return s.current
	}
	s.current.Theme = theme
	s.persist(KeyTheme, string(theme))
	return s.current
}

// ToggleLanguage switches between the primary and secondary language.
func (s *Store) ToggleLanguage() Preferences {
	return s.SetLanguage(string(s.Current().Language.Other()))
}

// ToggleTheme switches between dark and light.
func (s *Store) ToggleTheme() Preferences {
	return s.SetTheme(string(s.Current().Theme.Opposite()))
}

func (s *Store) ensureLoaded() {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		s.Load()
	}
}

// persist must be called with s.mu held. A write failure keeps the in-memory
// value so the session stays usable.
func (s *Store) persist(key, value string) {
	if err := s.storage.Set(key, value); err != nil {
		s.logger.Warn("preference write failed", zap.String("key", key), zap.Error(err))
	}
}
