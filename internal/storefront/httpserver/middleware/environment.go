package middleware

import (
	"context"
	"net/http"
	"strings"
)

// DefaultEnvironment matches the STOREFRONT_ENV default.
const DefaultEnvironment = "development"

type environmentContextKey struct{}

// Environment stores the lowercased deployment environment for the environment badge.
func Environment(value string) func(http.Handler) http.Handler {
	label := normaliseEnvironment(value)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), environmentContextKey{}, label)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EnvironmentFromContext returns the environment of the current request.
func EnvironmentFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(environmentContextKey{}).(string); ok {
		return value
	}
	return DefaultEnvironment
}

func normaliseEnvironment(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultEnvironment
	}
	return value
}
