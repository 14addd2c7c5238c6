package services

import (
	"context"

	"subtrack/internal/core"
	applog "subtrack/internal/log"
)

// Converter turns an amount in one currency into another. It must not fail.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) float64
}

// Normalizer computes each subscription's monthly cost per person in a
// target currency.
type Normalizer struct {
	converter Converter
	logger    *applog.Logger
}

// NewNormalizer creates a normalizer backed by converter.
func NewNormalizer(converter Converter, logger *applog.Logger) *Normalizer {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Normalizer{
		converter: converter,
		logger:    logger.WithComponent(applog.ComponentAnalytics),
	}
}

// MonthlyCost returns sub's monthly-equivalent price, split across its
// co-payers, converted to target. Cycle and split are applied in the
// subscription's own currency before conversion.
func (n *Normalizer) MonthlyCost(ctx context.Context, sub core.Subscription, target string) float64 {
	native := GetCycleNormalizer(sub.BillingCycle).MonthlyAmount(sub.Price)
	perPerson := native / float64(sub.Shares())
	if n.converter == nil {
		return perPerson
	}
	return n.converter.Convert(ctx, perPerson, sub.Currency, target)
}

// ProcessAll annotates every subscription with its converted monthly cost.
// The input is not modified; order is preserved.
func (n *Normalizer) ProcessAll(ctx context.Context, subs []core.Subscription, target string) []core.NormalizedSubscription {
	out := make([]core.NormalizedSubscription, 0, len(subs))
	for _, s := range subs {
		s.SharedBy = s.Shares()
		out = append(out, core.NormalizedSubscription{
			Subscription:         s,
			ConvertedMonthlyCost: n.MonthlyCost(ctx, s, target),
			TargetCurrency:       target,
		})
	}
	n.logger.DebugContext(ctx, "Normalized subscriptions",
		applog.FieldCount, len(out),
		applog.FieldToCurrency, target)
	return out
}
