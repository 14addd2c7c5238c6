package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subtrack/internal/core"
)

// DefaultRatesURL serves the latest USD-based table.
const DefaultRatesURL = "https://api.exchangerate-api.com/v4/latest/USD"

var ErrMalformedRates = errors.New("malformed rates payload")

// RateFetcher loads a fresh rate table from somewhere remote.
type RateFetcher interface {
	FetchRates(ctx context.Context) (RateTable, error)
}

// FetcherFunc adapts a function to RateFetcher.
type FetcherFunc func(ctx context.Context) (RateTable, error)

func (f FetcherFunc) FetchRates(ctx context.Context) (RateTable, error) {
	return f(ctx)
}

// HTTPFetcher reads rate tables shaped like exchangerate-api.com's v4
// "latest" endpoint: {"base": "USD", "rates": {"EUR": 0.85, ...}}.
type HTTPFetcher struct {
	client *http.Client
	url    string
}

// NewHTTPFetcher builds a fetcher for url. A nil client gets a default one
// with the given timeout.
func NewHTTPFetcher(client *http.Client, url string, timeout time.Duration) *HTTPFetcher {
	if url == "" {
		url = DefaultRatesURL
	}
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{client: client, url: url}
}

type ratesPayload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRates performs one GET against the configured endpoint.
func (f *HTTPFetcher) FetchRates(ctx context.Context) (RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return RateTable{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RateTable{}, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return RateTable{}, fmt.Errorf("%w: %v", ErrMalformedRates, err)
	}
	if len(payload.Rates) == 0 {
		return RateTable{}, fmt.Errorf("%w: no rates", ErrMalformedRates)
	}

	base := strings.ToUpper(strings.TrimSpace(payload.Base))
	if base == "" {
		base = core.BaseCurrency
	}
	return RateTable{
		Base:   base,
		Rates:  payload.Rates,
		Source: SourceRemote,
	}, nil
}
