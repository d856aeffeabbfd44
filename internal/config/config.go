// Package config loads runtime settings from defaults, an optional YAML file
// and CIVILCITY_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks environment overrides. Nested keys use "__", so
	// CIVILCITY_SERVER__ADDR sets server.addr.
	EnvPrefix = "CIVILCITY_"

	minSessionKeyLen = 32
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Content ContentConfig `koanf:"content" yaml:"content"`
	Prefs   PrefsConfig   `koanf:"prefs" yaml:"prefs"`
	Server  ServerConfig  `koanf:"server" yaml:"server"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
}

// ContentConfig locates the content document and component fragments.
type ContentConfig struct {
	Source     string        `koanf:"source" yaml:"source"`
	Components string        `koanf:"components" yaml:"components"`
	Timeout    time.Duration `koanf:"timeout" yaml:"timeout"`
	CacheTTL   time.Duration `koanf:"cache_ttl" yaml:"cache_ttl"`
}

// PrefsConfig configures preference persistence for terminal sessions.
type PrefsConfig struct {
	File string `koanf:"file" yaml:"file"`
}

// ServerConfig configures the HTTP preview host.
type ServerConfig struct {
	Addr          string        `koanf:"addr" yaml:"addr"`
	ReadTimeout   time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout   time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	SessionKey    string        `koanf:"session_key" yaml:"session_key"`
	SecureCookies bool          `koanf:"secure_cookies" yaml:"secure_cookies"`
	CORSOrigins   []string      `koanf:"cors_origins" yaml:"cors_origins"`
	Dev           bool          `koanf:"dev" yaml:"dev"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Content: ContentConfig{
			Source:     "content/db.json",
			Components: "content/components",
			Timeout:    10 * time.Second,
			CacheTTL:   5 * time.Minute,
		},
		Prefs: PrefsConfig{File: defaultPrefsFile()},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Log: LogConfig{Level: "info"},
	}
}

func defaultPrefsFile() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "civilcity", "prefs.json")
	}
	return filepath.Join(".civilcity", "prefs.json")
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	file       string
	envPrefix  string
	skipEnv    bool
	skipVerify bool
}

// WithFile reads YAML settings from path. A missing file is not an error.
func WithFile(path string) Option {
	return func(o *loaderOptions) { o.file = strings.TrimSpace(path) }
}

// WithEnvPrefix overrides the environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *loaderOptions) { o.envPrefix = prefix }
}

// WithoutEnv ignores environment overrides.
func WithoutEnv() Option {
	return func(o *loaderOptions) { o.skipEnv = true }
}

// WithoutValidation returns the merged configuration without checking it.
func WithoutValidation() Option {
	return func(o *loaderOptions) { o.skipVerify = true }
}

// Load merges defaults, the YAML file and the environment.
func Load(opts ...Option) (*Config, error) {
	options := loaderOptions{envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&options)
	}

	k := koanf.New(".")
	cfg := Default()

	if options.file != "" {
		if _, err := os.Stat(options.file); err == nil {
			if err := k.Load(file.Provider(options.file), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", options.file, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: access %s: %w", options.file, err)
		}
	}

	if !options.skipEnv {
		prefix := options.envPrefix
		if err := k.Load(env.ProviderWithValue(prefix, ".", func(key, value string) (string, interface{}) {
			name := strings.ToLower(strings.TrimPrefix(key, prefix))
			name = strings.ReplaceAll(name, "__", ".")
			if name == "server.cors_origins" {
				return name, splitList(value)
			}
			return name, value
		}), nil); err != nil {
			return nil, fmt.Errorf("config: env overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()

	if !options.skipVerify {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Content.Source = strings.TrimSpace(c.Content.Source)
	c.Content.Components = strings.TrimSpace(c.Content.Components)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidationError is returned when fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid field at once. The session key may be empty
// only in dev mode, where the server generates one per process.
func (c *Config) Validate() error {
	var fields []string
	if c.Content.Source == "" {
		fields = append(fields, "content.source")
	}
	if c.Content.Timeout <= 0 {
		fields = append(fields, "content.timeout")
	}
	if c.Content.CacheTTL < 0 {
		fields = append(fields, "content.cache_ttl")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		fields = append(fields, "server.addr")
	}
	if c.Server.ReadTimeout <= 0 {
		fields = append(fields, "server.read_timeout")
	}
	if c.Server.WriteTimeout <= 0 {
		fields = append(fields, "server.write_timeout")
	}
	if c.Server.IdleTimeout < 0 {
		fields = append(fields, "server.idle_timeout")
	}
	if key := c.Server.SessionKey; key != "" && len(key) < minSessionKeyLen {
		fields = append(fields, "server.session_key")
	}
	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		fields = append(fields, "log.level")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

// RequireSessionKey reports an error when the server would run without a
// stable session signing key outside dev mode.
func (c *Config) RequireSessionKey() error {
	if c.Server.SessionKey == "" && !c.Server.Dev {
		return &ValidationError{fields: []string{"server.session_key"}}
	}
	return nil
}
