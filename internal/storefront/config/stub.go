package config

import "time"

// StubConfig configures the local auth backend stand-in.
type StubConfig struct {
	Environment string
	LogLevel    string
	Addr        string
	JWTSecret   string
	TokenTTL    time.Duration
	// BcryptCost of zero selects the library default.
	BcryptCost int
}

// LoadStub reads AUTHSTUB_* settings with the same precedence rules as Load.
func LoadStub(opts ...Option) (StubConfig, error) {
	lookup, err := newLookup(opts...)
	if err != nil {
		return StubConfig{}, err
	}
	cfg := StubConfig{
		Environment: stringWithDefault(lookup, "STOREFRONT_ENV", defaultEnvironment),
		LogLevel:    stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		Addr:        stringWithDefault(lookup, "AUTHSTUB_ADDR", ":8000"),
		JWTSecret:   stringWithDefault(lookup, "AUTHSTUB_JWT_SECRET", ""),
		TokenTTL:    durationWithDefault(lookup, "AUTHSTUB_TOKEN_TTL", 5*time.Minute),
	}
	if cfg.JWTSecret == "" {
		if (Config{Environment: cfg.Environment}).IsProduction() {
			return cfg, &ValidationError{fields: []string{"AUTHSTUB_JWT_SECRET"}}
		}
		cfg.JWTSecret = string(randomHex(32))
	}
	return cfg, nil
}

func randomHex(n int) []byte {
	const digits = "0123456789abcdef"
	raw := randomKey(n)
	out := make([]byte, 0, 2*n)
	for _, b := range raw {
		out = append(out, digits[b>>4], digits[b&0x0f])
	}
	return out
}
