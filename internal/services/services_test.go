package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/export"
	"subtrack/internal/storage"
)

type recordedEvent struct {
	event, id, name string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishSubscriptionChanged(_ context.Context, event, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{event, id, name})
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func validSubscription() core.Subscription {
	return core.Subscription{
		Name:            "  Netflix <b> ",
		Price:           15,
		Currency:        "usd",
		CategoryID:      "cat-1",
		NextBillingDate: core.NewDate(2025, 7, 1),
	}
}

func TestSubscriptionService_CreatePublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewSubscriptionService(storage.NewMemoryStore(), pub, nil)

	got, err := svc.Create(context.Background(), validSubscription())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Name != "Netflix b" {
		t.Errorf("Name not sanitized: %q", got.Name)
	}
	if got.Currency != "USD" || got.BillingCycle != core.Monthly || got.Status != core.StatusActive || got.SharedBy != 1 {
		t.Errorf("defaults not applied: %+v", got)
	}
	if len(pub.events) != 1 || pub.events[0].event != amqp.EventCreated || pub.events[0].id != got.ID {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestSubscriptionService_CreateValidation(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewSubscriptionService(storage.NewMemoryStore(), pub, nil)

	sub := validSubscription()
	sub.Price = 0
	sub.Currency = "XYZ"

	_, err := svc.Create(context.Background(), sub)
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if _, ok := verrs["price"]; !ok {
		t.Error("expected price error")
	}
	if !errors.Is(err, core.ErrInvalidCurrency) {
		t.Error("expected currency error to be reachable with errors.Is")
	}
	if len(pub.events) != 0 {
		t.Error("invalid writes must not publish")
	}
}

func TestSubscriptionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	repo := storage.NewMemoryStore()
	svc := NewSubscriptionService(repo, pub, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validSubscription())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	upd := created
	upd.Price = 20
	if _, err := svc.Update(ctx, created.ID, upd); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(pub.events) != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", len(pub.events))
	}
	if pub.events[1].event != amqp.EventUpdated || pub.events[2].event != amqp.EventDeleted {
		t.Errorf("unexpected events: %+v", pub.events)
	}
}

func TestSubscriptionService_NotFound(t *testing.T) {
	svc := NewSubscriptionService(storage.NewMemoryStore(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, "nope", validSubscription()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionService_Categories(t *testing.T) {
	svc := NewSubscriptionService(storage.NewMemoryStore(), nil, nil)
	ctx := context.Background()

	cats, seeded, err := svc.Initialize(ctx)
	if err != nil || !seeded || len(cats) != 10 {
		t.Fatalf("Initialize() = %d, %v, %v", len(cats), seeded, err)
	}

	c, err := svc.CreateCategory(ctx, core.Category{Name: " Utilities "})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if c.Name != "Utilities" || c.Color != "#3B82F6" || c.Icon != "more" {
		t.Errorf("unexpected category: %+v", c)
	}

	if _, err := svc.CreateCategory(ctx, core.Category{Name: "Bad", Color: "red"}); !errors.Is(err, core.ErrInvalidColor) {
		t.Errorf("expected ErrInvalidColor, got %v", err)
	}
}

func TestSubscriptionService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewSubscriptionService(storage.NewMemoryStore(), pub, nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !pub.closed {
		t.Error("publisher should be closed")
	}

	if err := NewSubscriptionService(nil, nil, nil).Close(); err != nil {
		t.Fatalf("Close with nil components: %v", err)
	}
}

func TestSpendingService_Dashboard(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	for _, s := range []core.Subscription{
		{Name: "A", Price: 10, Currency: "USD", BillingCycle: core.Monthly, Status: core.StatusActive, SharedBy: 1},
		{Name: "B", Price: 240, Currency: "USD", BillingCycle: core.Yearly, Status: core.StatusActive, SharedBy: 1},
		{Name: "Trial", Price: 100, Currency: "USD", BillingCycle: core.Monthly, Status: core.StatusActive, HasFreeTrial: true},
	} {
		if _, err := repo.CreateSubscription(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := NewSpendingService(repo, NewNormalizer(rateConverter(map[string]float64{"USD": 1, "INR": 83.5}), nil),
		WithNow(func() time.Time { return now }), WithTrendMonths(3))

	d, err := svc.Dashboard(ctx, "usd", 0)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Currency != "USD" || d.TotalMonthlySpending != 30 || d.Counts.ActiveFreeTrial != 1 {
		t.Errorf("unexpected dashboard: %+v", d)
	}
	if len(d.MonthlyTrend) != 3 || d.MonthlyTrend[2].Month != "Mar 2025" {
		t.Errorf("unexpected trend: %+v", d.MonthlyTrend)
	}

	d, err = svc.Dashboard(ctx, "", 1)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Currency != core.DefaultDisplayCurrency || d.TotalMonthlySpending != 2505 {
		t.Errorf("default currency dashboard: %s %v", d.Currency, d.TotalMonthlySpending)
	}

	if _, err := svc.Dashboard(ctx, "XYZ", 0); !errors.Is(err, core.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestSpendingService_Export(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	cats, _, err := repo.SeedDefaultCategories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateSubscription(ctx, core.Subscription{
		Name: "Netflix", Price: 12, Currency: "USD", BillingCycle: core.Monthly,
		Status: core.StatusActive, SharedBy: 2, CategoryID: cats[0].ID,
	}); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := NewSpendingService(repo, NewNormalizer(rateConverter(map[string]float64{"USD": 1, "INR": 83.5}), nil),
		WithNow(func() time.Time { return now }))

	recs, err := svc.ExportRecords(ctx, "inr")
	if err != nil {
		t.Fatalf("ExportRecords() error = %v", err)
	}
	if len(recs) != 1 || recs[0].MonthlyCost != "501.00" || recs[0].Category != cats[0].Name || recs[0].DisplayCurrency != "INR" {
		t.Errorf("unexpected records: %+v", recs)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf, export.FormatJSON, "USD"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"totalMonthly": "6.00"`) {
		t.Errorf("unexpected export: %s", buf.String())
	}

	if err := svc.Export(ctx, &buf, export.FormatCSV, "XYZ"); !errors.Is(err, core.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}
	if !svc.Now().Equal(now) {
		t.Error("Now() should use the injected clock")
	}
}
