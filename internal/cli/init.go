// Package cli provides common initialization shared by cmd/subtrack and
// cmd/subtrack-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subtrack/internal/backend"
	"subtrack/internal/config"
	"subtrack/internal/currency"
	applog "subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger() *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_FORMAT") == "json" {
		cfg.Format = "json"
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles the wired services a command needs.
type App struct {
	Config        *config.Config
	Logger        *applog.Logger
	Metrics       *metrics.Metrics
	Rates         *currency.RateProvider
	Converter     *currency.Converter
	Subscriptions *services.SubscriptionService
	Spending      *services.SpendingService
	EventsEnabled bool

	cleanup backend.CleanupFunc
}

// Bootstrap wires the backend, the rate provider and the services for cfg.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.Discard()
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	m := metrics.New()
	rates := currency.NewRateProvider(
		currency.NewHTTPFetcher(nil, cfg.RatesURL, cfg.RatesTimeout),
		currency.WithTTL(cfg.RatesTTL),
		currency.WithLogger(logger),
		currency.WithMetrics(m),
	)
	conv := currency.NewConverter(rates,
		currency.WithConverterLogger(logger),
		currency.WithConverterMetrics(m),
	)
	spending := services.NewSpendingService(res.Repository, services.NewNormalizer(conv, logger),
		services.WithDefaultCurrency(cfg.DefaultCurrency),
		services.WithTrendMonths(cfg.TrendMonths),
	)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Metrics:       m,
		Rates:         rates,
		Converter:     conv,
		Subscriptions: res.Service,
		Spending:      spending,
		EventsEnabled: res.EventsEnabled,
		cleanup:       res.Cleanup,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
	}()
	return ctx, stop
}

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 10 * time.Second
