// Package currency converts amounts between currencies using a cached
// exchange-rate table expressed against a single base currency.
//
// Conversion is best effort: rate outages degrade to a built-in fallback
// table and unknown currency codes pass amounts through unconverted. Nothing
// in this package returns an error to the caller of Convert.
package currency

import (
	"math"
	"sort"
	"time"

	"subtrack/internal/core"
)

// Rate table sources.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// RateTable maps currency codes to their multiplier against Base.
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Source    string             `json:"source"`
}

// Rate returns the multiplier for code. The base currency always resolves
// to 1 even when the table omits it.
func (t RateTable) Rate(code string) (float64, bool) {
	if r, ok := t.Rates[code]; ok {
		return r, true
	}
	if code == t.Base {
		return 1, true
	}
	return 0, false
}

// Codes returns the currencies in the table, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.Rates))
	for c := range t.Rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns a deep copy so cached tables are never mutated by callers.
func (t RateTable) Clone() RateTable {
	out := t
	out.Rates = make(map[string]float64, len(t.Rates))
	for k, v := range t.Rates {
		out.Rates[k] = v
	}
	return out
}

// sanitize drops entries that cannot be used as divisors and reports
// whether anything usable is left.
func (t *RateTable) sanitize() bool {
	for code, r := range t.Rates {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			delete(t.Rates, code)
		}
	}
	return len(t.Rates) > 0
}

// FallbackRates is served whenever the remote table is unavailable.
func FallbackRates() RateTable {
	return RateTable{
		Base: core.BaseCurrency,
		Rates: map[string]float64{
			"INR": 83.5,
			"EUR": 0.85,
			"GBP": 0.73,
			"USD": 1,
		},
		Source: SourceFallback,
	}
}
