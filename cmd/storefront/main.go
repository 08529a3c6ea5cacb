package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/auth"
	"finitefield.org/storefront/internal/storefront/catalog"
	"finitefield.org/storefront/internal/storefront/config"
	"finitefield.org/storefront/internal/storefront/httpserver"
	"finitefield.org/storefront/internal/storefront/loadstatus"
	"finitefield.org/storefront/internal/storefront/observability"
	"finitefield.org/storefront/internal/storefront/session"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("environment", cfg.Environment))

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      cfg.Session.HashKey,
		BlockKey:     cfg.Session.BlockKey,
		CookieSecure: cfg.Session.Secure,
		Lifetime:     cfg.Session.Lifetime,
		IdleTimeout:  cfg.Session.IdleTimeout,
	})
	if err != nil {
		logger.Fatal("session manager", zap.Error(err))
	}
	if cfg.Session.Ephemeral {
		logger.Warn("session keys not configured; generated ephemeral keys")
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	client, err := auth.NewClient(cfg.API.BaseURL, httpClient)
	if err != nil {
		logger.Fatal("auth client", zap.Error(err))
	}

	registry := loadstatus.NewRegistry(nil)
	srv := httpserver.New(httpserver.Config{
		Address:         cfg.Server.Addr,
		Environment:     cfg.Environment,
		ShowEnvironment: !cfg.IsProduction(),
		Logger:          logger,
		Auth:            auth.NewService(client),
		Catalog:         buildCatalog(cfg.API, httpClient, logger),
		Sessions:        sessions,
		LoadStatus:      registry,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepLoadStatus(ctx, registry, cfg.Session.IdleTimeout, logger)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	logger.Info("storefront listening", zap.String("addr", cfg.Server.Addr), zap.String("api", cfg.API.BaseURL))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}

func buildCatalog(api config.APIConfig, client *http.Client, logger *zap.Logger) catalog.Service {
	target := api.CatalogURL
	if target == "" {
		target = api.BaseURL
	}
	if target == "static" {
		logger.Info("serving embedded catalog")
		return catalog.NewStaticService()
	}
	service, err := catalog.NewHTTPService(target, client)
	if err != nil {
		logger.Warn("catalog backend unusable; serving embedded catalog", zap.Error(err))
		return catalog.NewStaticService()
	}
	return service
}

// sweepLoadStatus drops trackers of sessions that have gone quiet.
func sweepLoadStatus(ctx context.Context, registry *loadstatus.Registry, idle time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(idle); n > 0 {
				logger.Debug("load status swept", zap.Int("sessions", n))
			}
		}
	}
}
