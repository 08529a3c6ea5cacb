package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultAddr            = ":8080"
	defaultAPIURL          = "http://localhost:8000/api"
	defaultAPITimeout      = 8 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultSessionLifetime = 12 * time.Hour
	defaultSessionIdle     = 2 * time.Hour
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	minHashKeyLength       = 32
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	API         APIConfig
	Session     SessionConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// APIConfig points at the backend the storefront talks to.
type APIConfig struct {
	BaseURL string
	// CatalogURL overrides BaseURL for listings. "static" serves the embedded seed catalog.
	CatalogURL string
	Timeout    time.Duration
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName  string
	HashKey     []byte
	BlockKey    []byte
	Secure      bool
	Lifetime    time.Duration
	IdleTimeout time.Duration
	// Ephemeral is true when keys were generated for this process only.
	Ephemeral bool
}

// IsProduction reports whether the environment label denotes production.
func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// ValidationError is returned when required configuration fields are missing or invalid.
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

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the storefront configuration from defaults, the .env file,
// the process environment and an optional explicit map, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	lookup, err := newLookup(opts...)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment: stringWithDefault(lookup, "STOREFRONT_ENV", defaultEnvironment),
		LogLevel:    stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		Server: ServerConfig{
			Addr:            stringWithDefault(lookup, "STOREFRONT_HTTP_ADDR", defaultAddr),
			ReadTimeout:     durationWithDefault(lookup, "STOREFRONT_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "STOREFRONT_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "STOREFRONT_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "STOREFRONT_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		API: APIConfig{
			BaseURL:    strings.TrimRight(stringWithDefault(lookup, "STOREFRONT_API_URL", defaultAPIURL), "/"),
			CatalogURL: strings.TrimRight(stringWithDefault(lookup, "STOREFRONT_CATALOG_URL", ""), "/"),
			Timeout:    durationWithDefault(lookup, "STOREFRONT_API_TIMEOUT", defaultAPITimeout),
		},
		Session: SessionConfig{
			CookieName:  stringWithDefault(lookup, "STOREFRONT_SESSION_COOKIE", "storefront_session"),
			HashKey:     []byte(stringWithDefault(lookup, "STOREFRONT_SESSION_HASH_KEY", "")),
			BlockKey:    []byte(stringWithDefault(lookup, "STOREFRONT_SESSION_BLOCK_KEY", "")),
			Lifetime:    durationWithDefault(lookup, "STOREFRONT_SESSION_LIFETIME", defaultSessionLifetime),
			IdleTimeout: durationWithDefault(lookup, "STOREFRONT_SESSION_IDLE_TIMEOUT", defaultSessionIdle),
		},
	}
	cfg.Session.Secure = boolWithDefault(lookup, "STOREFRONT_SESSION_SECURE", cfg.IsProduction())

	var invalid []string
	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "STOREFRONT_API_URL")
	}
	if cfg.API.CatalogURL != "" && cfg.API.CatalogURL != "static" {
		if u, err := url.Parse(cfg.API.CatalogURL); err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "STOREFRONT_CATALOG_URL")
		}
	}

	switch {
	case len(cfg.Session.HashKey) == 0 && !cfg.IsProduction():
		cfg.Session.HashKey = randomKey(minHashKeyLength)
		cfg.Session.BlockKey = randomKey(32)
		cfg.Session.Ephemeral = true
	case len(cfg.Session.HashKey) < minHashKeyLength:
		invalid = append(invalid, "STOREFRONT_SESSION_HASH_KEY")
	}
	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		invalid = append(invalid, "STOREFRONT_SESSION_BLOCK_KEY")
	}

	if len(invalid) > 0 {
		return cfg, &ValidationError{fields: invalid}
	}
	return cfg, nil
}

func newLookup(opts ...Option) (func(string) (string, bool), error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	return func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnv[key]; ok {
			return value, true
		}
		return "", false
	}, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func randomKey(n int) []byte {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("config: generate session key: %v", err))
	}
	return key
}
