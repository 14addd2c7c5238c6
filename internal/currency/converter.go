package currency

import (
	"context"

	applog "subtrack/internal/log"
	"subtrack/internal/metrics"
)

// RateSource is anything that can hand out a rate table.
type RateSource interface {
	Rates(ctx context.Context) RateTable
}

// Warning kinds reported when a conversion degrades.
const (
	WarnUnknownFrom = "unknown_from_currency"
	WarnUnknownTo   = "unknown_to_currency"
)

// Warning describes a conversion that could not be completed.
type Warning struct {
	Kind     string
	Currency string
	Amount   float64
}

// Conversion is the outcome of one conversion. Amount is always usable;
// Warning is set when the amount was passed through partially or fully
// unconverted.
type Conversion struct {
	Amount  float64
	Source  string
	Warning *Warning
}

// Converter routes every conversion through the rate table's base currency.
type Converter struct {
	rates   RateSource
	logger  *applog.Logger
	metrics *metrics.Metrics
	onWarn  func(context.Context, Warning)
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithConverterLogger sets the logger used for fail-soft diagnostics.
func WithConverterLogger(l *applog.Logger) ConverterOption {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConverterMetrics records conversion outcomes on m.
func WithConverterMetrics(m *metrics.Metrics) ConverterOption {
	return func(c *Converter) { c.metrics = m }
}

// WithWarningHook is called for every degraded conversion.
func WithWarningHook(fn func(context.Context, Warning)) ConverterOption {
	return func(c *Converter) { c.onWarn = fn }
}

// NewConverter creates a converter reading rates from src.
func NewConverter(src RateSource, opts ...ConverterOption) *Converter {
	c := &Converter{
		rates:  src,
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(applog.ComponentCurrency)
	return c
}

// Convert returns amount expressed in to. It never fails; see Exchange for
// the diagnostics.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	return c.Exchange(ctx, amount, from, to).Amount
}

// Exchange converts amount from one currency to another.
//
// Equal currencies return amount untouched. Otherwise amount is divided by
// the source rate (skipped for the base currency) and multiplied by the
// target rate. An unknown source returns amount as is; an unknown target
// returns the base-currency amount.
func (c *Converter) Exchange(ctx context.Context, amount float64, from, to string) Conversion {
	if from == to {
		c.metrics.Conversion(metrics.ConvertIdentity)
		return Conversion{Amount: amount}
	}

	table := FallbackRates()
	if c.rates != nil {
		table = c.rates.Rates(ctx)
	}

	inBase := amount
	if from != table.Base {
		fromRate, ok := table.Rate(from)
		if !ok {
			return c.degrade(ctx, Conversion{Amount: amount, Source: table.Source},
				Warning{Kind: WarnUnknownFrom, Currency: from, Amount: amount}, to)
		}
		inBase = amount / fromRate
	}

	toRate, ok := table.Rate(to)
	if !ok {
		return c.degrade(ctx, Conversion{Amount: inBase, Source: table.Source},
			Warning{Kind: WarnUnknownTo, Currency: to, Amount: amount}, from)
	}

	c.metrics.Conversion(metrics.ConvertOK)
	return Conversion{Amount: inBase * toRate, Source: table.Source}
}

func (c *Converter) degrade(ctx context.Context, conv Conversion, w Warning, other string) Conversion {
	conv.Warning = &w

	outcome := metrics.ConvertUnknownFrom
	from, to := w.Currency, other
	if w.Kind == WarnUnknownTo {
		outcome = metrics.ConvertUnknownTo
		from, to = other, w.Currency
	}
	c.metrics.Conversion(outcome)

	fields := applog.NewFields().WithConversion(w.Amount, from, to)
	c.logger.WarnContext(ctx, "Currency not found in rates, returning unconverted amount", fields.ToSlice()...)

	if c.onWarn != nil {
		c.onWarn(ctx, w)
	}
	return conv
}
