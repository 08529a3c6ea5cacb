package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/observability"
	appsession "finitefield.org/storefront/internal/storefront/session"
)

type sessionContextKey string

const requestSessionKey sessionContextKey = "storefront.session"

// SessionStore abstracts the session manager for middleware integration.
type SessionStore interface {
	Load(*http.Request) (*appsession.Session, error)
	New() *appsession.Session
	Save(http.ResponseWriter, *appsession.Session) error
	Destroy(http.ResponseWriter)
}

// SessionOption customises the Session middleware.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	onRelease func(sessionID string)
}

// OnSessionRelease registers a callback invoked with the ID of a session that
// expired or was destroyed during the request.
func OnSessionRelease(fn func(sessionID string)) SessionOption {
	return func(o *sessionOptions) {
		o.onRelease = fn
	}
}

// Session attaches the decoded session to the request context and persists
// changes back to the client cookie before the response header is written.
func Session(store SessionStore, opts ...SessionOption) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}
	var options sessionOptions
	for _, opt := range opts {
		opt(&options)
	}
	release := func(id string) {
		if options.onRelease != nil && id != "" {
			options.onRelease(id)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())

			sess, err := store.Load(r)
			if errors.Is(err, appsession.ErrExpired) {
				logger.Info("session expired: resetting", zap.String("session_id", sess.ID()))
				release(sess.ID())
				store.Destroy(w)
				sess = store.New()
			} else if err != nil || sess == nil {
				if err != nil {
					logger.Warn("session load failed", zap.Error(err))
				}
				sess = store.New()
			}
			issuedID := sess.ID()

			sw := &sessionWriter{ResponseWriter: w, save: func() {
				if sess.Destroyed() {
					release(sess.ID())
				} else if sess.ID() != issuedID {
					release(issuedID)
				}
				if err := store.Save(w, sess); err != nil {
					logger.Error("session save failed", zap.Error(err))
				}
			}}

			ctx := context.WithValue(r.Context(), requestSessionKey, sess)
			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.commit()
		})
	}
}

// SessionFromContext retrieves the session attached to this request.
func SessionFromContext(ctx context.Context) (*appsession.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(requestSessionKey).(*appsession.Session)
	return sess, ok && sess != nil
}

// sessionWriter persists the session exactly once, before the header goes out.
type sessionWriter struct {
	http.ResponseWriter
	save      func()
	committed bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	w.save()
}

func (w *sessionWriter) WriteHeader(status int) {
	w.commit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
