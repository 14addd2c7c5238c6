package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/storage"
)

// EventPublisher announces subscription writes to other systems.
type EventPublisher interface {
	PublishSubscriptionChanged(ctx context.Context, event, id, name string) error
}

// SubscriptionService validates writes, persists them and publishes change
// events. Publishing is best effort: a write that reached the repository is
// never reported as failed because the broker was unavailable.
type SubscriptionService struct {
	repo   storage.Repository
	events EventPublisher
	logger *applog.Logger
	audit  *applog.StructuredLogger
}

// NewSubscriptionService wires a repository and an optional publisher.
func NewSubscriptionService(repo storage.Repository, events EventPublisher, logger *applog.Logger) *SubscriptionService {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentStorage)
	return &SubscriptionService{
		repo:   repo,
		events: events,
		logger: logger,
		audit:  applog.NewStructuredLogger(logger),
	}
}

// Repository exposes the underlying store for read-only consumers.
func (s *SubscriptionService) Repository() storage.Repository {
	return s.repo
}

// List returns one page of subscriptions.
func (s *SubscriptionService) List(ctx context.Context, opts storage.ListOptions) (storage.SubscriptionPage, error) {
	page, err := s.repo.ListSubscriptions(ctx, opts)
	if err != nil {
		return storage.SubscriptionPage{}, fmt.Errorf("list subscriptions: %w", err)
	}
	return page, nil
}

// All returns every subscription.
func (s *SubscriptionService) All(ctx context.Context) ([]core.Subscription, error) {
	subs, err := storage.ListAll(ctx, s.repo, storage.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// Get returns one subscription or storage.ErrNotFound.
func (s *SubscriptionService) Get(ctx context.Context, id string) (core.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Create sanitizes, defaults and validates sub before saving it. Validation
// failures are returned as core.ValidationErrors.
func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := prepare(&sub); err != nil {
		return core.Subscription{}, err
	}

	saved, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	s.audit.LogSubscriptionChanged(ctx, applog.OpCreate, saved.ID, saved.Name)
	s.publish(ctx, amqp.EventCreated, saved.ID, saved.Name)
	return saved, nil
}

// Update replaces the subscription with the given id.
func (s *SubscriptionService) Update(ctx context.Context, id string, sub core.Subscription) (core.Subscription, error) {
	sub.ID = id
	if err := prepare(&sub); err != nil {
		return core.Subscription{}, err
	}

	saved, err := s.repo.UpdateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	s.audit.LogSubscriptionChanged(ctx, applog.OpUpdate, saved.ID, saved.Name)
	s.publish(ctx, amqp.EventUpdated, saved.ID, saved.Name)
	return saved, nil
}

// Delete removes the subscription with the given id.
func (s *SubscriptionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	s.audit.LogSubscriptionChanged(ctx, applog.OpDelete, id, "")
	s.publish(ctx, amqp.EventDeleted, id, "")
	return nil
}

// Categories lists every category.
func (s *SubscriptionService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// CreateCategory validates and saves a category.
func (s *SubscriptionService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	core.SanitizeCategory(&c)
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return saved, nil
}

// Initialize seeds the default categories on an empty store.
func (s *SubscriptionService) Initialize(ctx context.Context) ([]core.Category, bool, error) {
	cats, seeded, err := s.repo.SeedDefaultCategories(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("seed categories: %w", err)
	}
	return cats, seeded, nil
}

func prepare(sub *core.Subscription) error {
	core.SanitizeSubscription(sub)
	sub.ApplyDefaults()
	return sub.Validate()
}

func (s *SubscriptionService) publish(ctx context.Context, event, id, name string) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping change event",
			applog.FieldSubscriptionID, id)
		return
	}
	if err := s.events.PublishSubscriptionChanged(ctx, event, id, name); err != nil {
		s.audit.LogError(ctx, "Failed to publish change event", err, applog.ComponentAMQP, event,
			applog.NewFields().WithSubscription(id, name))
	}
}

// Close closes the repository and the publisher when it holds resources.
func (s *SubscriptionService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.events.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close subscription service: %w", err)
	}
	return nil
}
