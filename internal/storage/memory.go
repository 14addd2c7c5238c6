package storage

import (
	"context"
	"sort"
	"sync"

	"subtrack/internal/core"
	applog "subtrack/internal/log"
)

// MemoryStore keeps everything in process memory. Data is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	opts options
	seq  int64
	subs map[string]memoryRow
	cats []core.Category
}

type memoryRow struct {
	sub core.Subscription
	seq int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts: buildOptions(opts),
		subs: make(map[string]memoryRow),
	}
}

// ListSubscriptions implements Repository.
func (s *MemoryStore) ListSubscriptions(_ context.Context, opts ListOptions) (SubscriptionPage, error) {
	opts = opts.normalize()

	s.mu.RLock()
	rows := make([]memoryRow, 0, len(s.subs))
	for _, r := range s.subs {
		if opts.matches(r.sub) {
			rows = append(rows, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].sub.CreatedAt.Equal(rows[j].sub.CreatedAt) {
			return rows[i].sub.CreatedAt.Before(rows[j].sub.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	total := len(rows)
	start := opts.offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && opts.Limit < total-start {
		end = start + opts.Limit
	}

	items := make([]core.Subscription, 0, end-start)
	for _, r := range rows[start:end] {
		items = append(items, r.sub)
	}
	return SubscriptionPage{Items: items, Pagination: newPagination(opts, total)}, nil
}

// GetSubscription implements Repository.
func (s *MemoryStore) GetSubscription(_ context.Context, id string) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, ErrNotFound
	}
	return r.sub, nil
}

// CreateSubscription implements Repository.
func (s *MemoryStore) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	now := s.opts.now()
	sub.ID = s.opts.newID()
	sub.CreatedAt, sub.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.subs[sub.ID] = memoryRow{sub: sub, seq: s.seq}
	return sub, nil
}

// UpdateSubscription implements Repository.
func (s *MemoryStore) UpdateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.subs[sub.ID]
	if !ok {
		return core.Subscription{}, ErrNotFound
	}
	sub.CreatedAt = r.sub.CreatedAt
	sub.UpdatedAt = s.opts.now()
	s.subs[sub.ID] = memoryRow{sub: sub, seq: r.seq}
	return sub, nil
}

// DeleteSubscription implements Repository.
func (s *MemoryStore) DeleteSubscription(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

// ListCategories implements Repository.
func (s *MemoryStore) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.cats...), nil
}

// CreateCategory implements Repository.
func (s *MemoryStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(c), nil
}

func (s *MemoryStore) addCategoryLocked(c core.Category) core.Category {
	now := s.opts.now()
	c.ID = s.opts.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	s.cats = append(s.cats, c)
	return c
}

// SeedDefaultCategories implements Repository.
func (s *MemoryStore) SeedDefaultCategories(ctx context.Context) ([]core.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cats) > 0 {
		return append([]core.Category(nil), s.cats...), false, nil
	}
	for _, c := range defaultCategories {
		s.addCategoryLocked(c)
	}
	s.opts.logger.InfoContext(ctx, "Seeded default categories", applog.FieldCount, len(s.cats))
	return append([]core.Category(nil), s.cats...), true, nil
}

// Ping implements Repository.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Repository.
func (s *MemoryStore) Close() error { return nil }
