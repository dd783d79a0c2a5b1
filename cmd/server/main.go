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

	"github.com/joho/godotenv"

	"github.com/finquote/quotegate/internal/api"
	"github.com/finquote/quotegate/internal/cache"
	"github.com/finquote/quotegate/internal/config"
	"github.com/finquote/quotegate/internal/errorreporting"
	"github.com/finquote/quotegate/internal/logger"
	"github.com/finquote/quotegate/internal/quote"
	"github.com/finquote/quotegate/internal/secrets"
	"github.com/finquote/quotegate/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quotegate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// No .env file is fine; system env is the source of truth.
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.Get()

	if err := secrets.ValidateKeys(cfg.APIKeys); err != nil {
		return fmt.Errorf("invalid API key configuration: %w", err)
	}
	if len(cfg.APIKeys) == 0 {
		log.Warn("no API keys configured, quote endpoints will reject every request")
	}

	if err := errorreporting.Init(cfg.SentryEnvironment, cfg.SentryRelease); err != nil {
		log.Warn("sentry init failed, continuing without error reporting", "error", err)
	}

	shutdownTracing, err := tracing.Init(cfg)
	if err != nil {
		log.Warn("tracing init failed, continuing without traces", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pc := cache.New(cache.Options{
		Enabled:         cfg.CacheEnabled,
		TTLDays:         cfg.CacheTTLDays,
		RefreshInterval: cfg.CacheRefreshInterval,
		FetchDelay:      cfg.CacheFetchDelay,
	})
	client := quote.NewClient(cfg)

	refresher := cache.NewRefresher(pc, client, cfg.CacheRefreshInterval)
	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		refresher.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(cfg, pc, client, client),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"cache_enabled", cfg.CacheEnabled,
			"refresh_interval", cfg.CacheRefreshInterval.String(),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	refresher.Stop()
	<-refresherDone

	errorreporting.Flush(2 * time.Second)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}
