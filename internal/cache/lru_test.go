package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](4, 5*time.Minute, WithClock(clk.Now))

	c.Set("a", 1)
	clk.Advance(4*time.Minute + 59*time.Second)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected fresh hit, got %v %v", v, ok)
	}

	clk.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry must expire once its age reaches the TTL")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry not removed")
	}
}

func TestLRUCacheStoredAt(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start}
	c := NewLRUCache[string](1, time.Hour, WithClock(clk.Now))
	c.Set("k", "v")
	clk.Advance(time.Minute)
	_, at, ok := c.GetWithTime("k")
	if !ok || !at.Equal(start) {
		t.Fatalf("stored at = %v, ok=%v", at, ok)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used entry should survive")
	}
	c.Delete("a")
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestManagerSweep(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](4, time.Minute, WithClock(clk.Now))
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(nil)
	m.Register(c)
	if n := m.Sweep(); n != 0 {
		t.Fatalf("nothing should expire yet, got %d", n)
	}
	clk.Advance(2 * time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("expected 2 evictions, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
