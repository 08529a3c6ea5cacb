package httpserver

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/auth"
	"finitefield.org/storefront/internal/storefront/catalog"
	custommw "finitefield.org/storefront/internal/storefront/httpserver/middleware"
	"finitefield.org/storefront/internal/storefront/httpserver/ui"
	"finitefield.org/storefront/internal/storefront/loadstatus"
	"finitefield.org/storefront/internal/storefront/observability"
	appsession "finitefield.org/storefront/internal/storefront/session"
	"finitefield.org/storefront/public"
)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address         string
	Environment     string
	ShowEnvironment bool
	Logger          *zap.Logger

	Auth       *auth.Service
	Catalog    catalog.Service
	Sessions   custommw.SessionStore
	LoadStatus *loadstatus.Registry

	CSRFHeaderName string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(observability.Recoverer())
	router.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 60*time.Second)))

	staticContent, err := public.StaticFS()
	if err != nil {
		logger.Fatal("embed static", zap.Error(err))
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = ephemeralSessions(logger)
	}
	registry := cfg.LoadStatus
	if registry == nil {
		registry = loadstatus.NewRegistry(nil)
	}
	service := cfg.Auth
	if service == nil {
		logger.Warn("auth backend not configured; login and registration will fail")
		service = auth.NewService(nil)
	}

	pages := ui.NewHandlers(ui.Dependencies{
		Catalog:         cfg.Catalog,
		LoadStatus:      registry,
		ShowEnvironment: cfg.ShowEnvironment,
	})

	mountStorefrontRoutes(router, routeOptions{
		Sessions:    sessions,
		LoadStatus:  registry,
		Environment: cfg.Environment,
		CSRF: custommw.CSRFConfig{
			HeaderName: cfg.CSRFHeaderName,
		},
		UI:   pages,
		Auth: newAuthHandlers(service, registry, pages),
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}
}

type routeOptions struct {
	Sessions    custommw.SessionStore
	LoadStatus  *loadstatus.Registry
	Environment string
	CSRF        custommw.CSRFConfig
	UI          *ui.Handlers
	Auth        *authHandlers
}

func mountStorefrontRoutes(router chi.Router, opts routeOptions) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, homePath, http.StatusFound)
	})

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Environment(opts.Environment))
		r.Use(custommw.RequestInfoMiddleware())
		r.Use(custommw.Session(opts.Sessions, custommw.OnSessionRelease(opts.LoadStatus.Forget)))
		r.Use(custommw.IdentityMiddleware())
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get(homePath, opts.UI.Main)
		r.With(custommw.RequireGuest(homePath)).Get("/modal/login", opts.Auth.LoginModal)
		r.With(custommw.RequireGuest(homePath)).Get("/modal/register", opts.Auth.RegisterModal)
		r.Post("/login", opts.Auth.LoginSubmit)
		r.Post("/register", opts.Auth.RegisterSubmit)
		r.Post("/logout", opts.Auth.Logout)
		RegisterFragment(r, "/forms/{form}/status", opts.UI.FormStatus)
	})
}

func ephemeralSessions(logger *zap.Logger) custommw.SessionStore {
	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	if _, err := rand.Read(hashKey); err != nil {
		logger.Fatal("generate session key", zap.Error(err))
	}
	if _, err := rand.Read(blockKey); err != nil {
		logger.Fatal("generate session key", zap.Error(err))
	}
	manager, err := appsession.NewManager(appsession.Config{HashKey: hashKey, BlockKey: blockKey})
	if err != nil {
		logger.Fatal("session manager", zap.Error(err))
	}
	logger.Warn("using ephemeral session keys; sessions will not survive restarts")
	return manager
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
