// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for billing-cycle normalization.
// Each cycle (daily, weekly, monthly, yearly) has its own strategy that turns
// a price charged once per cycle into a monthly-equivalent amount.

package services

import (
	"sync"

	"subtrack/internal/core"
)

// Months-per-cycle factors.
const (
	WeeksPerMonth = 4.33
	DaysPerMonth  = 30
	MonthsPerYear = 12
)

// CycleNormalizer is the strategy interface for converting a per-cycle price
// into a per-month price in the same currency.
type CycleNormalizer interface {
	MonthlyAmount(price float64) float64
}

// MonthlyCycle charges once a month.
type MonthlyCycle struct{}

func (MonthlyCycle) MonthlyAmount(price float64) float64 { return price }

// YearlyCycle spreads the annual price over twelve months.
type YearlyCycle struct{}

func (YearlyCycle) MonthlyAmount(price float64) float64 { return price / MonthsPerYear }

// WeeklyCycle uses an average of 4.33 weeks per month.
type WeeklyCycle struct{}

func (WeeklyCycle) MonthlyAmount(price float64) float64 { return price * WeeksPerMonth }

// DailyCycle assumes a 30 day month.
type DailyCycle struct{}

func (DailyCycle) MonthlyAmount(price float64) float64 { return price * DaysPerMonth }

var (
	cycleMu         sync.RWMutex
	cycleStrategies = map[core.BillingCycle]CycleNormalizer{
		core.Monthly: MonthlyCycle{},
		core.Yearly:  YearlyCycle{},
		core.Weekly:  WeeklyCycle{},
		core.Daily:   DailyCycle{},
	}
)

// GetCycleNormalizer returns the strategy for cycle. Unknown cycles fall back
// to monthly semantics.
func GetCycleNormalizer(cycle core.BillingCycle) CycleNormalizer {
	cycleMu.RLock()
	defer cycleMu.RUnlock()
	if n, ok := cycleStrategies[cycle]; ok {
		return n
	}
	return MonthlyCycle{}
}

// RegisterCycleNormalizer adds or replaces the strategy for a cycle.
func RegisterCycleNormalizer(cycle core.BillingCycle, n CycleNormalizer) {
	cycleMu.Lock()
	defer cycleMu.Unlock()
	cycleStrategies[cycle] = n
}
