// Package metrics exposes Prometheus counters for the spending pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subtrack"

// Rate fetch results.
const (
	FetchSuccess  = "success"
	FetchFallback = "fallback"
	FetchCacheHit = "cache_hit"
)

// Conversion outcomes.
const (
	ConvertIdentity    = "identity"
	ConvertOK          = "converted"
	ConvertUnknownFrom = "unknown_from"
	ConvertUnknownTo   = "unknown_to"
)

// Metrics groups the collectors used across the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	rateFetches *prometheus.CounterVec
	conversions *prometheus.CounterVec
	rateAge     prometheus.Gauge
	requests    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_lookups_total",
			Help:      "Exchange rate lookups by result.",
		}, []string{"result"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "currency_conversions_total",
			Help:      "Currency conversions by outcome.",
		}, []string{"outcome"}),
		rateAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_table_fetched_timestamp_seconds",
			Help:      "Unix time of the last successful rate fetch.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "class"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_flagged_requests_total",
			Help:      "Requests rate limited or flagged as suspicious.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.rateFetches, m.conversions, m.rateAge, m.requests, m.rejected)
	return m
}

// RateLookup counts a rate lookup with the given result.
func (m *Metrics) RateLookup(result string) {
	if m == nil {
		return
	}
	m.rateFetches.WithLabelValues(result).Inc()
}

// RateFetched records the time of a successful fetch.
func (m *Metrics) RateFetched(unixSeconds float64) {
	if m == nil {
		return
	}
	m.rateAge.Set(unixSeconds)
}

// Conversion counts one conversion outcome.
func (m *Metrics) Conversion(outcome string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(outcome).Inc()
}

// Request counts one HTTP request.
func (m *Metrics) Request(route string, status int) {
	if m == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	m.requests.WithLabelValues(route, class).Inc()
}

// Flag reasons.
const (
	FlagRateLimited = "rate_limited"
	FlagSuspicious  = "suspicious"
)

// Flagged counts a request that was rate limited or looked suspicious.
func (m *Metrics) Flagged(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
