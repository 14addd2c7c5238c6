// Package storage persists subscriptions and categories.
package storage

import (
	"context"
	"errors"
	"math"

	"subtrack/internal/core"
)

// DefaultPageLimit is used when a listing does not ask for a page size.
const DefaultPageLimit = 50

// NoLimit returns every matching row in one page.
const NoLimit = -1

// MaxPage bounds the page number so offsets cannot overflow.
const MaxPage = 1 << 20

var ErrNotFound = errors.New("not found")

// Repository is the persistence port used by services and handlers. Writes
// are last-write-wins.
type Repository interface {
	ListSubscriptions(ctx context.Context, opts ListOptions) (SubscriptionPage, error)
	GetSubscription(ctx context.Context, id string) (core.Subscription, error)
	CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	// SeedDefaultCategories inserts the default categories when none exist
	// and reports whether it did. The current categories are returned
	// either way.
	SeedDefaultCategories(ctx context.Context) ([]core.Category, bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// ListOptions filters and pages subscription listings. Results are ordered
// by creation time, oldest first.
type ListOptions struct {
	Status     core.Status
	CategoryID string
	Page       int
	Limit      int
}

// normalize fills in paging defaults.
func (o ListOptions) normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Page > MaxPage {
		o.Page = MaxPage
	}
	if o.Limit == 0 {
		o.Limit = DefaultPageLimit
	}
	if o.Limit < 0 {
		o.Limit = NoLimit
		o.Page = 1
	}
	return o
}

func (o ListOptions) offset() int {
	if o.Limit < 0 || o.Page <= 1 {
		return 0
	}
	if o.Page-1 > math.MaxInt/o.Limit {
		return math.MaxInt
	}
	return (o.Page - 1) * o.Limit
}

func (o ListOptions) matches(s core.Subscription) bool {
	if o.Status != "" && s.Status != o.Status {
		return false
	}
	if o.CategoryID != "" && s.CategoryID != o.CategoryID {
		return false
	}
	return true
}

// Pagination describes where a page sits within the full result.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// SubscriptionPage is one page of a subscription listing.
type SubscriptionPage struct {
	Items      []core.Subscription `json:"subscriptions"`
	Pagination Pagination          `json:"pagination"`
}

func newPagination(opts ListOptions, total int) Pagination {
	p := Pagination{Page: opts.Page, Limit: opts.Limit, Total: total}
	switch {
	case opts.Limit < 0:
		p.Limit = total
		if total > 0 {
			p.TotalPages = 1
		}
	default:
		p.TotalPages = total / opts.Limit
		if total%opts.Limit != 0 {
			p.TotalPages++
		}
	}
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
	return p
}

// ListAll returns every subscription matching opts, ignoring paging.
func ListAll(ctx context.Context, repo Repository, opts ListOptions) ([]core.Subscription, error) {
	opts.Page, opts.Limit = 1, NoLimit
	page, err := repo.ListSubscriptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

