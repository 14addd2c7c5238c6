package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"subtrack/internal/analytics"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/storage"
)

// SpendingService runs stored subscriptions through the normalizer and the
// aggregation functions for one display currency.
type SpendingService struct {
	repo            storage.Repository
	normalizer      *Normalizer
	defaultCurrency string
	trendMonths     int
	now             func() time.Time
}

// SpendingOption configures a SpendingService.
type SpendingOption func(*SpendingService)

// WithDefaultCurrency sets the currency used when a request names none.
func WithDefaultCurrency(code string) SpendingOption {
	return func(s *SpendingService) {
		if code != "" {
			s.defaultCurrency = core.NormalizeCurrency(code)
		}
	}
}

// WithTrendMonths sets the default trend length.
func WithTrendMonths(n int) SpendingOption {
	return func(s *SpendingService) {
		if n > 0 {
			s.trendMonths = n
		}
	}
}

// WithNow sets the time source for trend labels and reminders.
func WithNow(now func() time.Time) SpendingOption {
	return func(s *SpendingService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSpendingService creates the service.
func NewSpendingService(repo storage.Repository, normalizer *Normalizer, opts ...SpendingOption) *SpendingService {
	s := &SpendingService{
		repo:            repo,
		normalizer:      normalizer,
		defaultCurrency: core.DefaultDisplayCurrency,
		trendMonths:     analytics.DefaultTrendMonths,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveCurrency picks the display currency for a request. An empty code
// means the default; anything outside the allow-list is rejected.
func (s *SpendingService) ResolveCurrency(code string) (string, error) {
	code = core.NormalizeCurrency(code)
	if code == "" {
		return s.defaultCurrency, nil
	}
	if !core.IsSupportedCurrency(code) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidCurrency, code)
	}
	return code, nil
}

// Normalized loads every subscription converted to currency.
func (s *SpendingService) Normalized(ctx context.Context, currency string) ([]core.NormalizedSubscription, error) {
	target, err := s.ResolveCurrency(currency)
	if err != nil {
		return nil, err
	}
	subs, err := storage.ListAll(ctx, s.repo, storage.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return s.normalizer.ProcessAll(ctx, subs, target), nil
}

// Dashboard computes every aggregate in currency. months <= 0 uses the
// configured trend length.
func (s *SpendingService) Dashboard(ctx context.Context, currency string, months int) (analytics.Dashboard, error) {
	target, err := s.ResolveCurrency(currency)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	subs, err := s.Normalized(ctx, target)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return analytics.Dashboard{}, fmt.Errorf("load categories: %w", err)
	}
	if months <= 0 {
		months = s.trendMonths
	}
	return analytics.BuildDashboard(subs, cats, target, s.now(), months), nil
}

// Reminders lists the current reminders with costs in currency.
func (s *SpendingService) Reminders(ctx context.Context, currency string) ([]analytics.Reminder, error) {
	subs, err := s.Normalized(ctx, currency)
	if err != nil {
		return nil, err
	}
	return analytics.Reminders(subs, s.now()), nil
}

// Now returns the service clock's current time.
func (s *SpendingService) Now() time.Time {
	return s.now()
}

// ExportRecords flattens every subscription for export in currency.
func (s *SpendingService) ExportRecords(ctx context.Context, currency string) ([]export.Record, error) {
	subs, cats, _, err := s.exportInput(ctx, currency)
	if err != nil {
		return nil, err
	}
	return export.Records(subs, cats), nil
}

// Export writes every subscription to w in format f.
func (s *SpendingService) Export(ctx context.Context, w io.Writer, f export.Format, currency string) error {
	subs, cats, target, err := s.exportInput(ctx, currency)
	if err != nil {
		return err
	}
	return export.Write(w, f, subs, cats, target, s.now())
}

func (s *SpendingService) exportInput(ctx context.Context, currency string) ([]core.NormalizedSubscription, []core.Category, string, error) {
	target, err := s.ResolveCurrency(currency)
	if err != nil {
		return nil, nil, "", err
	}
	subs, err := s.Normalized(ctx, target)
	if err != nil {
		return nil, nil, "", err
	}
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load categories: %w", err)
	}
	return subs, cats, target, nil
}
