package session

import (
	"sync"
	"testing"
	"time"

	"gapless-controller/internal/catalog"
	"gapless-controller/internal/playback"
)

// manualClock drives the simulated players. Timers use real time.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) playback.Timer {
	return time.AfterFunc(d, f)
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testCatalog() catalog.Static {
	return catalog.Static{
		{MediaID: "m1", Start: 0, End: 30, Title: "A"},
		{MediaID: "m1", Start: 40, End: 70, Title: "B"},
		{MediaID: "m1", Start: 70, End: 100, Title: "C"},
		{MediaID: "m2", Start: 0, End: 50, Title: "D"},
	}
}

func newTestService(t *testing.T) (*Service, *manualClock) {
	t.Helper()
	clock := newManualClock()
	svc := NewService(NewInMemoryRepository(), testCatalog(), nil, nil, Options{Clock: clock})
	if err := svc.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return svc, clock
}
