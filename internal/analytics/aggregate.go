// Package analytics reduces normalized subscriptions into spending totals,
// breakdowns, distributions, insights and reminders.
//
// Every function here is pure: no I/O, no errors, and the input slice is
// never modified.
package analytics

import (
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
)

// NeutralColor is used for values outside the known palettes.
const NeutralColor = "#6B7280"

// DefaultTrendMonths is the trend length used when none is requested.
const DefaultTrendMonths = 6

var statusColors = map[core.Status]string{
	core.StatusActive:    "#10B981",
	core.StatusCancelled: "#EF4444",
	core.StatusPaused:    "#F59E0B",
	core.StatusExpired:   "#6B7280",
}

var cycleColors = map[core.BillingCycle]string{
	core.Monthly: "#3B82F6",
	core.Yearly:  "#8B5CF6",
	core.Weekly:  "#06B6D4",
	core.Daily:   "#F59E0B",
}

// Counts tallies subscriptions by lifecycle state.
type Counts struct {
	Total           int `json:"total"`
	ActivePaid      int `json:"activePaid"`
	ActiveFreeTrial int `json:"activeFreeTrial"`
	Cancelled       int `json:"cancelled"`
	Paused          int `json:"paused"`
	Expired         int `json:"expired"`
}

// CategorySpend is one row of the category breakdown.
type CategorySpend struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
	Color  string  `json:"color"`
}

// DistributionEntry is one slice of a frequency distribution.
type DistributionEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// TrendPoint is the spending attributed to one calendar month.
type TrendPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// TotalMonthlySpending sums the converted monthly cost of active, paid
// subscriptions.
func TotalMonthlySpending(subs []core.NormalizedSubscription) float64 {
	var total float64
	for _, s := range subs {
		if s.IsActivePaid() {
			total += s.ConvertedMonthlyCost
		}
	}
	return total
}

// TotalYearlySpending is twelve times the monthly total.
func TotalYearlySpending(subs []core.NormalizedSubscription) float64 {
	return TotalMonthlySpending(subs) * 12
}

// CountSubscriptions tallies the input. Free-trial subscriptions only count
// towards ActiveFreeTrial while active.
func CountSubscriptions(subs []core.NormalizedSubscription) Counts {
	c := Counts{Total: len(subs)}
	for _, s := range subs {
		switch s.Status {
		case core.StatusActive:
			if s.HasFreeTrial {
				c.ActiveFreeTrial++
			} else {
				c.ActivePaid++
			}
		case core.StatusCancelled:
			c.Cancelled++
		case core.StatusPaused:
			c.Paused++
		case core.StatusExpired:
			c.Expired++
		}
	}
	return c
}

// CategoryBreakdown groups active, paid subscriptions by category name.
// Subscriptions whose category is missing or unknown land in
// core.UncategorizedName. Rows are sorted by amount, largest first, with
// ties broken by name.
func CategoryBreakdown(subs []core.NormalizedSubscription, categories []core.Category) []CategorySpend {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	rows := make(map[string]*CategorySpend)
	for _, s := range subs {
		if !s.IsActivePaid() {
			continue
		}
		name, color := core.UncategorizedName, NeutralColor
		if c, ok := byID[s.CategoryID]; ok && s.CategoryID != "" {
			name, color = c.Name, c.Color
		}
		row, ok := rows[name]
		if !ok {
			row = &CategorySpend{Name: name, Color: color}
			rows[name] = row
		}
		row.Amount += s.ConvertedMonthlyCost
		row.Count++
	}

	out := make([]CategorySpend, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// StatusDistribution counts every subscription by status.
func StatusDistribution(subs []core.NormalizedSubscription) []DistributionEntry {
	known := make([]string, 0, 4)
	for _, s := range core.Statuses() {
		known = append(known, string(s))
	}
	return distribution(subs, known, func(s core.NormalizedSubscription) string {
		return string(s.Status)
	}, func(v string) string {
		return colorOr(statusColors[core.Status(v)])
	})
}

// BillingCycleDistribution counts every subscription by billing cycle.
func BillingCycleDistribution(subs []core.NormalizedSubscription) []DistributionEntry {
	known := make([]string, 0, 4)
	for _, c := range core.BillingCycles() {
		known = append(known, string(c))
	}
	return distribution(subs, known, func(s core.NormalizedSubscription) string {
		return string(s.BillingCycle)
	}, func(v string) string {
		return colorOr(cycleColors[core.BillingCycle(v)])
	})
}

func colorOr(c string) string {
	if c == "" {
		return NeutralColor
	}
	return c
}

// distribution lists known values in their given order, then any other
// observed value alphabetically. Values with no members are omitted. Names
// are the values with their first letter capitalised.
func distribution(subs []core.NormalizedSubscription, known []string, key func(core.NormalizedSubscription) string, color func(string) string) []DistributionEntry {
	counts := make(map[string]int)
	for _, s := range subs {
		counts[key(s)]++
	}

	out := make([]DistributionEntry, 0, len(counts))
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
		if n := counts[k]; n > 0 {
			out = append(out, DistributionEntry{Name: displayName(k), Value: n, Color: color(k)})
		}
	}

	var extra []string
	for k := range counts {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, DistributionEntry{Name: displayName(k), Value: counts[k], Color: NeutralColor})
	}
	return out
}

func displayName(v string) string {
	r, size := utf8.DecodeRuneInString(v)
	if r == utf8.RuneError {
		return v
	}
	return string(unicode.ToUpper(r)) + v[size:]
}

// MonthlyTrend returns one point per calendar month for the trailing months
// ending with the month containing now, oldest first. With no spending
// history every point carries the current monthly total.
func MonthlyTrend(subs []core.NormalizedSubscription, now time.Time, months int) []TrendPoint {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	amount := Round2(TotalMonthlySpending(subs))
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := make([]TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		out = append(out, TrendPoint{Month: m.Format("Jan 2006"), Amount: amount})
	}
	return out
}
