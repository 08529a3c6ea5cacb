package middleware

import (
	"context"
	"net/http"
	"strings"

	"finitefield.org/storefront/internal/storefront/auth"
)

type authContextKey string

const identityContextKey authContextKey = "auth.identity"

// Identity is the per-request view of the session's auth state.
type Identity struct {
	SessionID     string
	Authenticated bool
	Email         string
}

// Guest reports whether no token is held.
func (i Identity) Guest() bool { return !i.Authenticated }

// IdentityMiddleware derives the Identity from the session attached by Session.
// Requests without a session are treated as guests.
func IdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id Identity
			if sess, ok := SessionFromContext(r.Context()); ok {
				id = Identity{
					SessionID:     sess.ID(),
					Authenticated: auth.IsAuthenticated(sess),
					Email:         strings.TrimSpace(sess.Email()),
				}
			}
			ctx := context.WithValue(r.Context(), identityContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity stored by IdentityMiddleware, or a guest.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(identityContextKey).(Identity)
	return id
}

// RequireGuest redirects authenticated users away from guest-only routes such as
// the login modal. htmx requests receive HX-Redirect instead of a 302.
func RequireGuest(target string) func(http.Handler) http.Handler {
	if strings.TrimSpace(target) == "" {
		target = "/main"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).Authenticated {
				next.ServeHTTP(w, r)
				return
			}
			if IsHTMXRequest(r.Context()) {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}
