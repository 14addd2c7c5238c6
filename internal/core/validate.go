package core

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidationErrors maps a JSON field name to the problem found with it.
type ValidationErrors map[string]error

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f].Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-field errors to errors.Is.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, err := range v {
		errs = append(errs, err)
	}
	return errs
}

// Messages returns the field errors as plain strings.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for f, err := range v {
		out[f] = err.Error()
	}
	return out
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Validate checks a subscription before it is stored. The spending pipeline
// never calls it; it tolerates whatever the store hands back.
func (s Subscription) Validate() error {
	errs := ValidationErrors{}

	name := strings.TrimSpace(s.Name)
	if name == "" {
		errs["name"] = ErrEmptyName
	} else if len(s.Name) > 100 {
		errs["name"] = fmt.Errorf("%w: must be less than 100 characters", ErrEmptyName)
	}

	if s.Price <= 0 {
		errs["price"] = fmt.Errorf("%w: must be a positive number", ErrInvalidPrice)
	}

	if strings.TrimSpace(s.CategoryID) == "" {
		errs["categoryId"] = ErrMissingCategory
	}

	if s.NextBillingDate.IsZero() {
		errs["nextBillingDate"] = ErrMissingNextBill
	}

	if len(s.Description) > 500 {
		errs["description"] = fmt.Errorf("description must be less than 500 characters")
	}

	if s.Currency != "" && !IsSupportedCurrency(s.Currency) {
		errs["currency"] = fmt.Errorf("%w: %q is not supported", ErrInvalidCurrency, s.Currency)
	}

	if s.BillingCycle != "" && !s.BillingCycle.Valid() {
		errs["billingCycle"] = fmt.Errorf("%w: must be one of monthly, yearly, weekly, daily", ErrInvalidCycle)
	}

	if s.Status != "" && !s.Status.Valid() {
		errs["status"] = fmt.Errorf("%w: must be one of active, cancelled, paused, expired", ErrInvalidStatus)
	}

	if s.ServiceURL != "" {
		if u, err := url.Parse(s.ServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs["serviceUrl"] = fmt.Errorf("invalid URL format")
		}
	}

	if s.SharedBy < 0 || s.SharedBy > 100 {
		errs["sharedBy"] = fmt.Errorf("%w: must be between 1 and 100", ErrInvalidSharedBy)
	}

	if len(s.Notes) > 1000 {
		errs["notes"] = fmt.Errorf("notes must be less than 1000 characters")
	}

	if s.HasFreeTrial {
		if s.FreeTrialMonths < 1 || s.FreeTrialMonths > 24 {
			errs["freeTrialMonths"] = fmt.Errorf("free trial months must be between 1 and 24")
		}
		if s.FreeTrialStartDate.IsZero() {
			errs["freeTrialStartDate"] = fmt.Errorf("free trial start date is required when hasFreeTrial is true")
		}
		if s.PaidSubscriptionStartDate.IsZero() {
			errs["paidSubscriptionStartDate"] = fmt.Errorf("paid subscription start date is required when hasFreeTrial is true")
		}
	}

	return errs.orNil()
}

func (c Category) Validate() error {
	errs := ValidationErrors{}

	if strings.TrimSpace(c.Name) == "" {
		errs["name"] = ErrEmptyName
	} else if len(c.Name) > 50 {
		errs["name"] = fmt.Errorf("%w: must be less than 50 characters", ErrEmptyName)
	}

	if len(c.Description) > 200 {
		errs["description"] = fmt.Errorf("description must be less than 200 characters")
	}

	if c.Color != "" && !hexColor.MatchString(c.Color) {
		errs["color"] = fmt.Errorf("%w: must be a hex color like #FF0000", ErrInvalidColor)
	}

	return errs.orNil()
}

// ApplyDefaults fills the fields a freshly created subscription may omit.
func (s *Subscription) ApplyDefaults() {
	if s.Currency == "" {
		s.Currency = BaseCurrency
	}
	s.Currency = NormalizeCurrency(s.Currency)
	if s.BillingCycle == "" {
		s.BillingCycle = Monthly
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.SharedBy < 1 {
		s.SharedBy = 1
	}
}

// ApplyDefaults fills display defaults for a category.
func (c *Category) ApplyDefaults() {
	if c.Color == "" {
		c.Color = "#3B82F6"
	}
	if c.Icon == "" {
		c.Icon = "more"
	}
}

// Sanitize trims string fields and strips angle brackets.
func Sanitize(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(s))
}

// SanitizeSubscription applies Sanitize to every free-text field.
func SanitizeSubscription(s *Subscription) {
	s.Name = Sanitize(s.Name)
	s.Description = Sanitize(s.Description)
	s.Currency = Sanitize(s.Currency)
	s.CategoryID = Sanitize(s.CategoryID)
	s.ServiceURL = Sanitize(s.ServiceURL)
	s.Notes = Sanitize(s.Notes)
}

// SanitizeCategory applies Sanitize to every free-text field.
func SanitizeCategory(c *Category) {
	c.Name = Sanitize(c.Name)
	c.Description = Sanitize(c.Description)
	c.Color = Sanitize(c.Color)
	c.Icon = Sanitize(c.Icon)
}
