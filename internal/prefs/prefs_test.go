package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := NewStore(NewMemoryStorage(), nil)
	require.Equal(t, Preferences{Language: LanguagePrimary, Theme: ThemeDark}, s.Load())
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeyLanguage, "de"))
	require.NoError(t, storage.Set(KeyTheme, "LIGHT"))

	p := NewStore(storage, nil).Load()
	require.Equal(t, LanguagePrimary, p.Language)
	require.Equal(t, ThemeLight, p.Theme)
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (failingStorage) Set(string, string) error         { return errors.New("disk on fire") }

func TestLoadNeverFails(t *testing.T) {
	s := NewStore(failingStorage{}, nil)
	require.Equal(t, Defaults(), s.Load())

	// writes fail but the session keeps the new value
	p := s.SetTheme("light")
	require.Equal(t, ThemeLight, p.Theme)
	require.Equal(t, ThemeLight, s.Current().Theme)
}

func TestSettersValidateAndPersist(t *testing.T) {
	storage := NewMemoryStorage()
	s := NewStore(storage, nil)

	p := s.SetLanguage("en")
	require.Equal(t, LanguageSecondary, p.Language)
	v, ok, _ := storage.Get(KeyLanguage)
	require.True(t, ok)
	require.Equal(t, "en", v)

	p = s.SetLanguage("klingon")
	require.Equal(t, LanguageSecondary, p.Language, "unknown language is a no-op")

	p = s.SetTheme("sepia")
	require.Equal(t, ThemeDark, p.Theme, "unknown theme is a no-op")
	_, ok, _ = storage.Get(KeyTheme)
	require.False(t, ok, "rejected values are not persisted")

	p = s.SetTheme("light")
	require.Equal(t, ThemeLight, p.Theme)
	v, _, _ = storage.Get(KeyTheme)
	require.Equal(t, "light", v)
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	s := NewStore(NewMemoryStorage(), nil)
	original := s.Load()

	require.Equal(t, ThemeLight, s.ToggleTheme().Theme)
	require.Equal(t, original, s.ToggleTheme())

	require.Equal(t, LanguageSecondary, s.ToggleLanguage().Language)
	require.Equal(t, original, s.ToggleLanguage())
}

func TestLanguageHelpers(t *testing.T) {
	require.Equal(t, "rtl", LanguagePrimary.Dir())
	require.Equal(t, "ltr", LanguageSecondary.Dir())
	require.Equal(t, LanguagePrimary, LanguageSecondary.Other())
	require.Equal(t, ThemeDark, ThemeLight.Opposite())

	_, ok := ParseLanguage("")
	require.False(t, ok)
	lang, ok := ParseLanguage(" FA ")
	require.True(t, ok)
	require.Equal(t, LanguagePrimary, lang)
}

func TestFileStorageSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	s := NewStore(NewFileStorage(path), nil)
	s.Load()
	s.SetLanguage("en")
	s.SetTheme("light")

	reloaded := NewStore(NewFileStorage(path), nil).Load()
	require.Equal(t, Preferences{Language: LanguageSecondary, Theme: ThemeLight}, reloaded)
}

func TestFileStorageRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs := NewFileStorage(path)
	_, _, err := fs.Get(KeyTheme)
	require.Error(t, err)

	require.Equal(t, Defaults(), NewStore(fs, nil).Load())

	require.NoError(t, fs.Set(KeyTheme, "light"))
	v, ok, err := fs.Get(KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "light", v)
}
