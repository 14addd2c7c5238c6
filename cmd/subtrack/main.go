package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"subtrack/internal/cache"
	"subtrack/internal/cli"
	apphttp "subtrack/internal/http"
	applog "subtrack/internal/log"
)

func main() {
	logger := cli.SetupLogger()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err.Error())
		}
	}()

	if _, seeded, err := app.Subscriptions.Initialize(ctx); err != nil {
		logger.Warn("Failed to seed default categories", applog.FieldError, err.Error())
	} else if seeded {
		logger.Info("Seeded default categories")
	}

	// Sweep expired rate tables once a minute.
	caches := cache.NewManager(logger)
	caches.Register(app.Rates.Cache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Subscriptions: app.Subscriptions,
		Spending:      app.Spending,
		Rates:         app.Rates,
		Metrics:       app.Metrics,
		Logger:        logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting subtrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", app.EventsEnabled,
			"default_currency", cfg.DefaultCurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
