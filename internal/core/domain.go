package core

import (
	"errors"
	"time"
)

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
	Weekly  BillingCycle = "weekly"
	Daily   BillingCycle = "daily"
)

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"
	StatusExpired   Status = "expired"
)

// UncategorizedName is the display name used when a subscription's category
// cannot be resolved.
const UncategorizedName = "Uncategorized"

type (
	BillingCycle string

	Status string

	Date struct {
		time.Time
	}

	Subscription struct {
		ID                        string       `json:"id"`
		Name                      string       `json:"name"`
		Description               string       `json:"description,omitempty"`
		Price                     float64      `json:"price"`
		Currency                  string       `json:"currency"`
		BillingCycle              BillingCycle `json:"billingCycle"`
		NextBillingDate           Date         `json:"nextBillingDate"`
		Status                    Status       `json:"status"`
		CategoryID                string       `json:"categoryId"`
		ServiceURL                string       `json:"serviceUrl,omitempty"`
		Notes                     string       `json:"notes,omitempty"`
		AutoRenew                 bool         `json:"autoRenew"`
		SharedBy                  int          `json:"sharedBy"`
		HasFreeTrial              bool         `json:"hasFreeTrial"`
		FreeTrialMonths           int          `json:"freeTrialMonths,omitempty"`
		FreeTrialStartDate        Date         `json:"freeTrialStartDate"`
		PaidSubscriptionStartDate Date         `json:"paidSubscriptionStartDate"`
		CreatedAt                 time.Time    `json:"createdAt"`
		UpdatedAt                 time.Time    `json:"updatedAt"`
	}

	Category struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		Color       string    `json:"color"`
		Icon        string    `json:"icon"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// NormalizedSubscription is a subscription annotated with its monthly
	// cost per person in a target currency.
	NormalizedSubscription struct {
		Subscription
		ConvertedMonthlyCost float64 `json:"convertedMonthlyCost"`
		TargetCurrency       string  `json:"targetCurrency"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidCycle    = errors.New("invalid billing cycle")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidSharedBy = errors.New("invalid shared by")
	ErrInvalidColor    = errors.New("invalid color")
	ErrMissingCategory = errors.New("missing category")
	ErrMissingNextBill = errors.New("missing next billing date")
)

// Valid reports whether c is one of the supported billing cycles.
func (c BillingCycle) Valid() bool {
	switch c {
	case Monthly, Yearly, Weekly, Daily:
		return true
	}
	return false
}

// Valid reports whether s is one of the supported statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusPaused, StatusExpired:
		return true
	}
	return false
}

// BillingCycles lists the cycles in display order.
func BillingCycles() []BillingCycle {
	return []BillingCycle{Monthly, Yearly, Weekly, Daily}
}

// Statuses lists the statuses in display order.
func Statuses() []Status {
	return []Status{StatusActive, StatusCancelled, StatusPaused, StatusExpired}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MarshalJSON renders the date as YYYY-MM-DD, or null when empty.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD, RFC 3339, null or "".
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return errors.New("date must be a string")
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Shares returns the number of co-payers, never less than 1.
func (s Subscription) Shares() int {
	if s.SharedBy < 1 {
		return 1
	}
	return s.SharedBy
}

// IsActivePaid reports whether the subscription counts towards spending.
func (s Subscription) IsActivePaid() bool {
	return s.Status == StatusActive && !s.HasFreeTrial
}

// FreeTrialEnd returns the end of the free trial, or the zero date when the
// subscription has no trial window.
func (s Subscription) FreeTrialEnd() Date {
	if !s.HasFreeTrial || s.FreeTrialStartDate.IsZero() {
		return Date{}
	}
	return Date{Time: s.FreeTrialStartDate.AddDate(0, s.FreeTrialMonths, 0)}
}
