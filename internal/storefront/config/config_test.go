package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Errorf("unexpected api url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 8*time.Second {
		t.Errorf("unexpected api timeout %v", cfg.API.Timeout)
	}
	if cfg.IsProduction() {
		t.Errorf("default environment must not be production")
	}
	if !cfg.Session.Ephemeral || len(cfg.Session.HashKey) != 32 || len(cfg.Session.BlockKey) != 32 {
		t.Errorf("expected generated session keys, got ephemeral=%v hash=%d block=%d",
			cfg.Session.Ephemeral, len(cfg.Session.HashKey), len(cfg.Session.BlockKey))
	}
	if cfg.Session.Secure {
		t.Errorf("development cookies default to insecure")
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_ENV":               "production",
		"STOREFRONT_HTTP_ADDR":         ":9000",
		"STOREFRONT_API_URL":           "https://api.example.com/api/",
		"STOREFRONT_CATALOG_URL":       "static",
		"STOREFRONT_API_TIMEOUT":       "3s",
		"STOREFRONT_SESSION_HASH_KEY":  "0123456789abcdef0123456789abcdef",
		"STOREFRONT_SESSION_BLOCK_KEY": "abcdefghijklmnop",
		"LOG_LEVEL":                    "debug",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.IsProduction() {
		t.Errorf("expected production environment")
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.API.BaseURL != "https://api.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.CatalogURL != "static" {
		t.Errorf("unexpected catalog url %q", cfg.API.CatalogURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("unexpected timeout %v", cfg.API.Timeout)
	}
	if !cfg.Session.Secure {
		t.Errorf("production cookies default to secure")
	}
	if cfg.Session.Ephemeral {
		t.Errorf("configured keys must not be ephemeral")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_ENV":               "prod",
		"STOREFRONT_API_URL":           "not a url",
		"STOREFRONT_SESSION_BLOCK_KEY": "short",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"STOREFRONT_API_URL":           true,
		"STOREFRONT_SESSION_HASH_KEY":  true,
		"STOREFRONT_SESSION_BLOCK_KEY": true,
	}
	fields := vErr.Fields()
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields %v", fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Errorf("unexpected field %q", f)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join("testdata", "storefront.env")
	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"STOREFRONT_HTTP_ADDR": ":7070",
	}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("explicit map must win over env file, got %q", cfg.Server.Addr)
	}
	if cfg.API.BaseURL != "http://backend.internal/api" {
		t.Errorf("unexpected api url %q", cfg.API.BaseURL)
	}
	if string(cfg.Session.HashKey) != "0123456789abcdef0123456789abcdef" {
		t.Errorf("expected hash key from env file")
	}
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	if _, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv()); err != nil {
		t.Fatalf("missing env file must be ignored: %v", err)
	}
}

func TestBoolWithDefault(t *testing.T) {
	lookup := func(values map[string]string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		}
	}
	cases := map[string]bool{"yes": true, "on": true, "0": false, "off": false}
	for raw, want := range cases {
		if got := boolWithDefault(lookup(map[string]string{"K": raw}), "K", !want); got != want {
			t.Errorf("boolWithDefault(%q) = %v, want %v", raw, got, want)
		}
	}
	if got := boolWithDefault(lookup(map[string]string{"K": "maybe"}), "K", true); !got {
		t.Errorf("unparseable value must fall back")
	}
}

func TestLoadStubDefaultsAndOverrides(t *testing.T) {
	cfg, err := LoadStub(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadStub returned error: %v", err)
	}
	if cfg.Addr != ":8000" {
		t.Errorf("unexpected addr %q", cfg.Addr)
	}
	if len(cfg.JWTSecret) != 64 {
		t.Errorf("expected a generated 64 char secret, got %d chars", len(cfg.JWTSecret))
	}
	if cfg.TokenTTL != 5*time.Minute {
		t.Errorf("unexpected token ttl %s", cfg.TokenTTL)
	}

	cfg, err = LoadStub(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"AUTHSTUB_ADDR":       "127.0.0.1:9000",
		"AUTHSTUB_JWT_SECRET": "s3cret",
		"AUTHSTUB_TOKEN_TTL":  "90s",
	}))
	if err != nil {
		t.Fatalf("LoadStub returned error: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.JWTSecret != "s3cret" || cfg.TokenTTL != 90*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadStubRequiresSecretInProduction(t *testing.T) {
	_, err := LoadStub(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{"STOREFRONT_ENV": "production"}))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fields := verr.Fields(); len(fields) != 1 || fields[0] != "AUTHSTUB_JWT_SECRET" {
		t.Errorf("unexpected fields %v", fields)
	}
}
