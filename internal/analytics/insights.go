package analytics

import (
	"time"

	"subtrack/internal/core"
)

// YearlyDiscountRate is the saving assumed when a monthly plan is switched
// to annual billing.
const YearlyDiscountRate = 0.15

// NoSubscription names the most expensive subscription when there is none.
const NoSubscription = "None"

// Expensive identifies the costliest active, paid subscription.
type Expensive struct {
	Name string  `json:"name"`
	Cost float64 `json:"cost"`
}

// Insights summarises spending for the dashboard header.
type Insights struct {
	TotalMonthly           float64   `json:"totalMonthly"`
	TotalYearly            float64   `json:"totalYearly"`
	AveragePerSubscription float64   `json:"averagePerSubscription"`
	SubscriptionCount      int       `json:"subscriptionCount"`
	MostExpensive          Expensive `json:"mostExpensive"`
	PotentialSavings       float64   `json:"potentialSavings"`
}

// ComputeInsights derives the headline figures over active, paid
// subscriptions. Amounts are rounded to two decimals.
func ComputeInsights(subs []core.NormalizedSubscription) Insights {
	var (
		total   float64
		count   int
		savings float64
		top     = Expensive{Name: NoSubscription}
	)
	for _, s := range subs {
		if !s.IsActivePaid() {
			continue
		}
		count++
		total += s.ConvertedMonthlyCost
		if s.ConvertedMonthlyCost > top.Cost {
			top = Expensive{Name: s.Name, Cost: s.ConvertedMonthlyCost}
		}
		if s.BillingCycle == core.Monthly {
			savings += s.ConvertedMonthlyCost * YearlyDiscountRate
		}
	}

	in := Insights{
		TotalMonthly:      Round2(total),
		TotalYearly:       Round2(total * 12),
		SubscriptionCount: count,
		MostExpensive:     Expensive{Name: top.Name, Cost: Round2(top.Cost)},
		PotentialSavings:  Round2(savings),
	}
	if count > 0 {
		in.AveragePerSubscription = Round2(total / float64(count))
	}
	return in
}

// Dashboard bundles every aggregate for one target currency.
type Dashboard struct {
	Currency             string              `json:"currency"`
	TotalMonthlySpending float64             `json:"totalMonthlySpending"`
	TotalYearlySpending  float64             `json:"totalYearlySpending"`
	Counts               Counts              `json:"counts"`
	CategoryBreakdown    []CategorySpend     `json:"categoryBreakdown"`
	StatusDistribution   []DistributionEntry `json:"statusDistribution"`
	BillingCycles        []DistributionEntry `json:"billingCycleDistribution"`
	MonthlyTrend         []TrendPoint        `json:"monthlyTrend"`
	Insights             Insights            `json:"insights"`
}

// BuildDashboard computes the dashboard for subscriptions already
// normalized to currency.
func BuildDashboard(subs []core.NormalizedSubscription, categories []core.Category, currency string, now time.Time, months int) Dashboard {
	breakdown := CategoryBreakdown(subs, categories)
	for i := range breakdown {
		breakdown[i].Amount = Round2(breakdown[i].Amount)
	}
	monthly := TotalMonthlySpending(subs)
	return Dashboard{
		Currency:             currency,
		TotalMonthlySpending: Round2(monthly),
		TotalYearlySpending:  Round2(monthly * 12),
		Counts:               CountSubscriptions(subs),
		CategoryBreakdown:    breakdown,
		StatusDistribution:   StatusDistribution(subs),
		BillingCycles:        BillingCycleDistribution(subs),
		MonthlyTrend:         MonthlyTrend(subs, now, months),
		Insights:             ComputeInsights(subs),
	}
}
