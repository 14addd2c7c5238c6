package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"subtrack/internal/core"
)

// Reminder types.
const (
	ReminderBilling        = "billing"
	ReminderTrial          = "trial"
	ReminderSpending       = "spending"
	ReminderRecommendation = "recommendation"
)

// Reminder priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Reminder thresholds.
const (
	BillingWindowDays    = 3
	TrialWindowDays      = 7
	TrialUrgentDays      = 2
	HighSpendingMonthly  = 50
	ManySubscriptionsMax = 10
)

var priorityRank = map[string]int{PriorityHigh: 3, PriorityMedium: 2, PriorityLow: 1}

// Reminder is a notification computed from the current subscription set.
type Reminder struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Priority       string `json:"priority"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

// Reminders lists upcoming charges, trials about to end, expensive
// subscriptions and an overall recommendation when too many are active.
// Only active subscriptions are considered. Highest priority comes first.
func Reminders(subs []core.NormalizedSubscription, now time.Time) []Reminder {
	var out []Reminder
	active := 0

	for _, s := range subs {
		if s.Status != core.StatusActive {
			continue
		}
		active++

		if !s.NextBillingDate.IsZero() {
			days := daysUntil(now, s.NextBillingDate.Time)
			if days >= 0 && days <= BillingWindowDays {
				prio := PriorityMedium
				if days == 0 {
					prio = PriorityHigh
				}
				out = append(out, Reminder{
					ID:             "billing-" + s.ID,
					Type:           ReminderBilling,
					Title:          "Billing Reminder",
					Message:        fmt.Sprintf("%s will be charged in %s", s.Name, plural(days, "day")),
					Priority:       prio,
					SubscriptionID: s.ID,
				})
			}
		}

		if end := s.FreeTrialEnd(); !end.IsZero() {
			days := daysUntil(now, end.Time)
			if days >= 0 && days <= TrialWindowDays {
				prio := PriorityMedium
				if days <= TrialUrgentDays {
					prio = PriorityHigh
				}
				out = append(out, Reminder{
					ID:             "trial-" + s.ID,
					Type:           ReminderTrial,
					Title:          "Free Trial Ending",
					Message:        fmt.Sprintf("Your free trial for %s ends in %s", s.Name, plural(days, "day")),
					Priority:       prio,
					SubscriptionID: s.ID,
				})
			}
		}

		if s.ConvertedMonthlyCost > HighSpendingMonthly {
			out = append(out, Reminder{
				ID:             "high-spending-" + s.ID,
				Type:           ReminderSpending,
				Title:          "High Spending Alert",
				Message:        fmt.Sprintf("%s costs %s/month - consider reviewing", s.Name, formatAmount(s.ConvertedMonthlyCost, s.TargetCurrency)),
				Priority:       PriorityLow,
				SubscriptionID: s.ID,
			})
		}
	}

	if active > ManySubscriptionsMax {
		out = append(out, Reminder{
			ID:       "too-many-subscriptions",
			Type:     ReminderRecommendation,
			Title:    "Too Many Subscriptions",
			Message:  fmt.Sprintf("You have %d active subscriptions. Consider reviewing unused ones.", active),
			Priority: PriorityLow,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] > priorityRank[out[j].Priority]
	})
	return out
}

// daysUntil counts whole days from now to t, rounding partial days up.
func daysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatAmount(v float64, currency string) string {
	amount := fmt.Sprintf("%.2f", Round2(v))
	if info, ok := core.LookupCurrency(currency); ok {
		return info.Symbol + amount
	}
	return strings.TrimSpace(currency + " " + amount)
}
