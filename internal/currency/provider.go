package currency

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"subtrack/internal/cache"
	applog "subtrack/internal/log"
	"subtrack/internal/metrics"
)

// DefaultTTL is how long a fetched rate table is served before refetching.
const DefaultTTL = 5 * time.Minute

const cacheKey = "rates"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// RateProvider serves rate tables from an in-memory cache, refreshing from a
// RateFetcher once the cached table is older than the TTL.
type RateProvider struct {
	fetcher RateFetcher
	clock   Clock
	ttl     time.Duration
	cache   *cache.LRUCache[RateTable]
	group   singleflight.Group
	logger  *applog.Logger
	metrics *metrics.Metrics
}

// ProviderOption configures a RateProvider.
type ProviderOption func(*RateProvider)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) ProviderOption {
	return func(p *RateProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock injects the time source used for cache freshness.
func WithClock(c Clock) ProviderOption {
	return func(p *RateProvider) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *applog.Logger) ProviderOption {
	return func(p *RateProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records lookups on m.
func WithMetrics(m *metrics.Metrics) ProviderOption {
	return func(p *RateProvider) { p.metrics = m }
}

// NewRateProvider creates a provider backed by fetcher.
func NewRateProvider(fetcher RateFetcher, opts ...ProviderOption) *RateProvider {
	p := &RateProvider{
		fetcher: fetcher,
		clock:   SystemClock{},
		ttl:     DefaultTTL,
		logger:  applog.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent(applog.ComponentCurrency)
	p.cache = cache.NewLRUCache[RateTable](1, p.ttl, cache.WithClock(p.clock.Now))
	return p
}

// Rates returns the current rate table. It never fails: when the cache is
// stale and the fetch does not succeed, the fallback table is returned and
// the cache is left untouched so the next call tries again.
func (p *RateProvider) Rates(ctx context.Context) RateTable {
	if t, ok := p.cache.Get(cacheKey); ok {
		p.metrics.RateLookup(metrics.FetchCacheHit)
		return t.Clone()
	}

	// Concurrent callers share a single in-flight fetch.
	v, _, _ := p.group.Do(cacheKey, func() (any, error) {
		if t, ok := p.cache.Get(cacheKey); ok {
			return t, nil
		}
		return p.refresh(ctx), nil
	})
	return v.(RateTable).Clone()
}

func (p *RateProvider) refresh(ctx context.Context) RateTable {
	if p.fetcher == nil {
		p.metrics.RateLookup(metrics.FetchFallback)
		return FallbackRates()
	}

	t, err := p.fetcher.FetchRates(ctx)
	if err == nil && !t.sanitize() {
		err = ErrMalformedRates
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Rate fetch failed, using fallback table",
			applog.FieldError, err.Error(),
			applog.FieldRateSource, SourceFallback)
		p.metrics.RateLookup(metrics.FetchFallback)
		return FallbackRates()
	}

	t.FetchedAt = p.clock.Now()
	if t.Source == "" {
		t.Source = SourceRemote
	}
	p.cache.Set(cacheKey, t)
	p.metrics.RateLookup(metrics.FetchSuccess)
	p.metrics.RateFetched(float64(t.FetchedAt.Unix()))
	p.logger.DebugContext(ctx, "Rate table refreshed",
		applog.FieldCount, len(t.Rates),
		applog.FieldRateSource, t.Source)
	return t.Clone()
}

// Invalidate drops the cached table.
func (p *RateProvider) Invalidate() {
	p.cache.Delete(cacheKey)
}

// Cache exposes the underlying cache so a cache.Manager can sweep it.
func (p *RateProvider) Cache() cache.Cleaner {
	return p.cache
}
