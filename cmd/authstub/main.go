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

	"finitefield.org/storefront/internal/authstub"
	"finitefield.org/storefront/internal/storefront/config"
	"finitefield.org/storefront/internal/storefront/observability"
)

func main() {
	cfg, err := config.LoadStub()
	if err != nil {
		fmt.Fprintf(os.Stderr, "authstub: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authstub: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	issuer, err := authstub.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	stub := authstub.NewServer(authstub.NewStore(cfg.BcryptCost), issuer, authstub.Options{
		Logger:        logger,
		SecureCookies: (config.Config{Environment: cfg.Environment}).IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           stub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("auth stub listening", zap.String("addr", cfg.Addr))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
