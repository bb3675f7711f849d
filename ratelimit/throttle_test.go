package ratelimit

import (
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestThrottle_Allow_Burst(t *testing.T) {
	th := NewThrottle(10, 5, slog.Default())
	defer th.Stop()

	identifier := "client-1"

	for i := 0; i < 5; i++ {
		if !th.Allow(identifier) {
			t.Errorf("Allow() request %d should fit in the burst", i+1)
		}
	}
	if th.Allow(identifier) {
		t.Error("Allow() should reject once the burst is spent")
	}
}

func TestThrottle_Allow_IndependentIdentifiers(t *testing.T) {
	th := NewThrottle(10, 2, slog.Default())
	defer th.Stop()

	for i := 0; i < 2; i++ {
		if !th.Allow("a") {
			t.Errorf("Allow(a) request %d should be allowed", i+1)
		}
	}
	if th.Allow("a") {
		t.Error("Allow(a) should be rejected when throttled")
	}
	if !th.Allow("b") {
		t.Error("Allow(b) should be allowed (separate identifier)")
	}
}

func TestThrottle_RefillOverTime(t *testing.T) {
	th := NewThrottle(100, 1, slog.Default())
	defer th.Stop()

	identifier := "refill"

	if !th.Allow(identifier) {
		t.Fatal("Allow() first request should be allowed")
	}
	if th.Allow(identifier) {
		t.Fatal("Allow() second immediate request should be rejected")
	}

	// At 100 req/s a token returns within ~10ms.
	time.Sleep(30 * time.Millisecond)
	if !th.Allow(identifier) {
		t.Error("Allow() should succeed after the bucket refills")
	}
}

func TestThrottle_LRUEviction(t *testing.T) {
	th := NewThrottleWithConfig(10, 10, 2, slog.Default())
	defer th.Stop()

	for i := 0; i < 4; i++ {
		th.Allow(fmt.Sprintf("id-%d", i))
	}

	stats := th.Stats()
	if stats.CurrentIdentifiers > 2 {
		t.Errorf("CurrentIdentifiers = %d, want <= 2 (LRU bound)", stats.CurrentIdentifiers)
	}
	if stats.TotalEvictions != 2 {
		t.Errorf("TotalEvictions = %d, want 2", stats.TotalEvictions)
	}
}

func TestThrottle_Stats_MemoryPressure(t *testing.T) {
	th := NewThrottleWithConfig(10, 10, 4, slog.Default())
	defer th.Stop()

	th.Allow("one")
	th.Allow("two")

	if got := th.Stats().MemoryPressure; got != 50.0 {
		t.Errorf("MemoryPressure = %v, want 50.0", got)
	}
}

func TestThrottle_Stop_Idempotent(t *testing.T) {
	th := NewThrottle(10, 10, nil)
	th.Stop()
	th.Stop() // must not panic
}
