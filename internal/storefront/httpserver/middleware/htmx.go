package middleware

import (
	"context"
	"net/http"
	"strings"
)

type htmxContextKey struct{}

// HTMX marks requests that expect a fragment. History restores carry HX-Request
// too but need the full page, so they are not treated as fragment requests.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fragment := strings.EqualFold(r.Header.Get("HX-Request"), "true") &&
				!strings.EqualFold(r.Header.Get("HX-History-Restore-Request"), "true")
			ctx := context.WithValue(r.Context(), htmxContextKey{}, fragment)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsHTMXRequest reports whether the current request should be answered with a fragment.
func IsHTMXRequest(ctx context.Context) bool {
	fragment, _ := ctx.Value(htmxContextKey{}).(bool)
	return fragment
}

// RequireHTMX answers 404 to anything but an htmx fragment request.
func RequireHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				http.NotFound(w, r)
				return
			}
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r)
		})
	}
}
