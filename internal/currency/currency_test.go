package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/metrics"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type staticRates struct{ table RateTable }

func (s staticRates) Rates(context.Context) RateTable { return s.table.Clone() }

func fallbackConverter() *Converter {
	return NewConverter(staticRates{FallbackRates()})
}

func TestConvertIdentity(t *testing.T) {
	c := NewConverter(nil)
	assert.Equal(t, 42.5, c.Convert(context.Background(), 42.5, "XYZ", "XYZ"))
	assert.Equal(t, 0.0, c.Convert(context.Background(), 0, "INR", "INR"))
}

func TestConvertFallbackTable(t *testing.T) {
	ctx := context.Background()
	c := fallbackConverter()

	tests := []struct {
		name     string
		amount   float64
		from, to string
		want     float64
	}{
		{"usd to inr", 100, "USD", "INR", 8350},
		{"inr to usd", 835, "INR", "USD", 10},
		{"inr to eur", 83.5, "INR", "EUR", 0.85},
		{"eur to gbp", 85, "EUR", "GBP", 73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Convert(ctx, tt.amount, tt.from, tt.to), 1e-9)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := fallbackConverter()
	for _, code := range []string{"INR", "EUR", "GBP"} {
		there := c.Convert(ctx, 123.45, "USD", code)
		back := c.Convert(ctx, there, code, "USD")
		assert.InDelta(t, 123.45, back, 1e-9, code)
	}
}

func TestConvertUnknownCurrencies(t *testing.T) {
	ctx := context.Background()
	var warnings []Warning
	c := NewConverter(staticRates{FallbackRates()}, WithWarningHook(func(_ context.Context, w Warning) {
		warnings = append(warnings, w)
	}))

	// Unknown source passes the amount through untouched.
	res := c.Exchange(ctx, 50, "XYZ", "INR")
	assert.Equal(t, 50.0, res.Amount)
	require.NotNil(t, res.Warning)
	assert.Equal(t, WarnUnknownFrom, res.Warning.Kind)

	// Unknown target yields the base-currency amount.
	res = c.Exchange(ctx, 835, "INR", "XYZ")
	assert.InDelta(t, 10.0, res.Amount, 1e-9)
	require.NotNil(t, res.Warning)
	assert.Equal(t, WarnUnknownTo, res.Warning.Kind)
	assert.Equal(t, "XYZ", res.Warning.Currency)

	assert.Len(t, warnings, 2)
}

func TestConvertCaseSensitive(t *testing.T) {
	c := fallbackConverter()
	res := c.Exchange(context.Background(), 10, "usd", "INR")
	require.NotNil(t, res.Warning)
	assert.Equal(t, 10.0, res.Amount)
}

func TestConvertRecordsMetrics(t *testing.T) {
	m := metrics.New()
	c := NewConverter(staticRates{FallbackRates()}, WithConverterMetrics(m))
	c.Convert(context.Background(), 1, "USD", "INR")
	c.Convert(context.Background(), 1, "ABC", "INR")

	out, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestProviderCachesWithinTTL(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32
	fetcher := FetcherFunc(func(context.Context) (RateTable, error) {
		n := calls.Add(1)
		return RateTable{Base: "USD", Rates: map[string]float64{"USD": 1, "INR": 80 + float64(n)}}, nil
	})
	p := NewRateProvider(fetcher, WithClock(clk))
	ctx := context.Background()

	first := p.Rates(ctx)
	assert.Equal(t, 81.0, first.Rates["INR"])
	assert.Equal(t, SourceRemote, first.Source)
	assert.Equal(t, clk.Now(), first.FetchedAt)

	clk.Advance(DefaultTTL - time.Second)
	assert.Equal(t, 81.0, p.Rates(ctx).Rates["INR"])
	assert.EqualValues(t, 1, calls.Load())

	clk.Advance(time.Second)
	assert.Equal(t, 82.0, p.Rates(ctx).Rates["INR"])
	assert.EqualValues(t, 2, calls.Load())
}

func TestProviderReturnsCopies(t *testing.T) {
	p := NewRateProvider(FetcherFunc(func(context.Context) (RateTable, error) {
		return RateTable{Base: "USD", Rates: map[string]float64{"INR": 83}}, nil
	}))
	ctx := context.Background()
	p.Rates(ctx).Rates["INR"] = 1
	assert.Equal(t, 83.0, p.Rates(ctx).Rates["INR"])
}

func TestProviderFallbackIsNotCached(t *testing.T) {
	var calls atomic.Int32
	fail := true
	fetcher := FetcherFunc(func(context.Context) (RateTable, error) {
		calls.Add(1)
		if fail {
			return RateTable{}, errors.New("connection refused")
		}
		return RateTable{Base: "USD", Rates: map[string]float64{"INR": 90}}, nil
	})
	p := NewRateProvider(fetcher)
	ctx := context.Background()

	got := p.Rates(ctx)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, 83.5, got.Rates["INR"])

	fail = false
	got = p.Rates(ctx)
	assert.Equal(t, SourceRemote, got.Source)
	assert.Equal(t, 90.0, got.Rates["INR"])
	assert.EqualValues(t, 2, calls.Load())
}

func TestProviderRejectsUnusableTable(t *testing.T) {
	p := NewRateProvider(FetcherFunc(func(context.Context) (RateTable, error) {
		return RateTable{Base: "USD", Rates: map[string]float64{"INR": 0, "EUR": -1}}, nil
	}))
	assert.Equal(t, SourceFallback, p.Rates(context.Background()).Source)
}

func TestProviderNilFetcher(t *testing.T) {
	p := NewRateProvider(nil)
	assert.Equal(t, FallbackRates().Rates, p.Rates(context.Background()).Rates)
}

func TestProviderInvalidate(t *testing.T) {
	var calls atomic.Int32
	p := NewRateProvider(FetcherFunc(func(context.Context) (RateTable, error) {
		calls.Add(1)
		return RateTable{Base: "USD", Rates: map[string]float64{"INR": 83}}, nil
	}))
	ctx := context.Background()
	p.Rates(ctx)
	p.Invalidate()
	p.Rates(ctx)
	assert.EqualValues(t, 2, calls.Load())
}

func TestProviderDedupesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	fetcher := FetcherFunc(func(context.Context) (RateTable, error) {
		calls.Add(1)
		<-release
		return RateTable{Base: "USD", Rates: map[string]float64{"INR": 83}}, nil
	})
	p := NewRateProvider(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 83.0, p.Rates(context.Background()).Rates["INR"])
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"usd","rates":{"USD":1,"INR":83.1,"EUR":0.9}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client(), srv.URL, 0)
	table, err := f.FetchRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USD", table.Base)
	assert.Equal(t, 83.1, table.Rates["INR"])
	assert.Equal(t, []string{"EUR", "INR", "USD"}, table.Codes())
}

func TestHTTPFetcherErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, `{}`, nil},
		{"garbage", http.StatusOK, `not json`, ErrMalformedRates},
		{"no rates", http.StatusOK, `{"base":"USD","rates":{}}`, ErrMalformedRates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPFetcher(srv.Client(), srv.URL, 0).FetchRates(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProviderFallsBackOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewRateProvider(NewHTTPFetcher(srv.Client(), srv.URL, 0))
	c := NewConverter(p)
	assert.InDelta(t, 8350.0, c.Convert(context.Background(), 100, "USD", "INR"), 1e-9)
}
