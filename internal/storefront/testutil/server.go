package testutil

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"finitefield.org/storefront/internal/authstub"
	"finitefield.org/storefront/internal/storefront/auth"
	"finitefield.org/storefront/internal/storefront/catalog"
	"finitefield.org/storefront/internal/storefront/httpserver"
	"finitefield.org/storefront/internal/storefront/httpserver/middleware"
	"finitefield.org/storefront/internal/storefront/loadstatus"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*serverOptions)

type serverOptions struct {
	cfg        httpserver.Config
	backendURL string
}

// WithAuthService overrides the auth service used by the storefront.
func WithAuthService(service *auth.Service) ServerOption {
	return func(o *serverOptions) {
		o.cfg.Auth = service
	}
}

// WithAuthBackendURL points the storefront at an already running auth backend.
func WithAuthBackendURL(url string) ServerOption {
	return func(o *serverOptions) {
		o.backendURL = url
	}
}

// WithCatalog wires a custom catalog service.
func WithCatalog(service catalog.Service) ServerOption {
	return func(o *serverOptions) {
		o.cfg.Catalog = service
	}
}

// WithSessions overrides the session store.
func WithSessions(store middleware.SessionStore) ServerOption {
	return func(o *serverOptions) {
		o.cfg.Sessions = store
	}
}

// WithLoadStatus shares a load-status registry with the test.
func WithLoadStatus(registry *loadstatus.Registry) ServerOption {
	return func(o *serverOptions) {
		o.cfg.LoadStatus = registry
	}
}

// AuthBackend is a running auth stub that counts the requests it receives.
type AuthBackend struct {
	*httptest.Server
	calls atomic.Int64
}

// Calls returns the number of login and register requests served so far.
func (b *AuthBackend) Calls() int {
	return int(b.calls.Load())
}

// NewAuthBackend starts an in-memory auth backend.
func NewAuthBackend(t testing.TB) *AuthBackend {
	t.Helper()

	issuer, err := authstub.NewIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("auth stub issuer: %v", err)
	}
	handler := authstub.NewServer(authstub.NewStore(bcrypt.MinCost), issuer, authstub.Options{}).Handler()

	backend := &AuthBackend{}
	backend.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			backend.calls.Add(1)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(backend.Close)
	return backend
}

// NewServer constructs an httptest server running the storefront HTTP stack.
// Without an auth option an in-memory auth backend is started.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	options := serverOptions{cfg: httpserver.Config{
		Address:     ":0",
		Environment: "test",
		Catalog:     catalog.NewStaticService(),
	}}
	for _, opt := range opts {
		opt(&options)
	}

	if options.cfg.Auth == nil {
		url := options.backendURL
		if url == "" {
			url = NewAuthBackend(t).URL
		}
		client, err := auth.NewClient(url, &http.Client{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("auth client: %v", err)
		}
		options.cfg.Auth = auth.NewService(client)
	}

	srv := httpserver.New(options.cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NewClient returns a client with a cookie jar that does not follow redirects.
func NewClient(t testing.TB) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// CSRFToken loads the main page with client and returns the page token.
func CSRFToken(t testing.TB, client *http.Client, baseURL string) string {
	t.Helper()

	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/main")
	if err != nil {
		t.Fatalf("get main: %v", err)
	}
	defer resp.Body.Close()
	doc := ParseResponse(t, resp)
	token, _ := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if token == "" {
		t.Fatalf("csrf token missing from main page")
	}
	return token
}
