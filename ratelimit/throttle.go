package ratelimit

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttleEntry tracks a token bucket and its last access time.
type throttleEntry struct {
	identifier string
	bucket     *rate.Limiter
	lastAccess time.Time
}

// Throttle shapes sustained request rates per identifier using a token
// bucket. Where Limiter answers "how many events in the trailing window",
// Throttle answers "is this client exceeding N requests per second with a
// burst of B" and is meant to sit in front of expensive handlers.
//
// Tracked identifiers are bounded by LRU eviction and a background sweep,
// the same way Limiter bounds its keys.
type Throttle struct {
	entries         map[string]*list.Element // identifier -> list element
	lruList         *list.List               // LRU list of *throttleEntry
	mu              sync.Mutex
	ratePerSecond   int
	burst           int
	maxIdentifiers  int
	logger          *slog.Logger
	cleanupInterval time.Duration
	idleTimeout     time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalEvictions int64
	totalCleanups  int64
}

// NewThrottle creates a Throttle allowing ratePerSecond sustained requests
// with the given burst per identifier, with default capacity.
func NewThrottle(ratePerSecond, burst int, logger *slog.Logger) *Throttle {
	return NewThrottleWithConfig(ratePerSecond, burst, DefaultMaxTrackedKeys, logger)
}

// NewThrottleWithConfig creates a Throttle with a custom identifier
// capacity. maxIdentifiers of 0 means unlimited (not recommended).
func NewThrottleWithConfig(ratePerSecond, burst, maxIdentifiers int, logger *slog.Logger) *Throttle {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIdentifiers < 0 {
		logger.Warn("Invalid maxIdentifiers, using default", "maxIdentifiers", maxIdentifiers, "default", DefaultMaxTrackedKeys)
		maxIdentifiers = DefaultMaxTrackedKeys
	}

	th := &Throttle{
		entries:         make(map[string]*list.Element),
		lruList:         list.New(),
		ratePerSecond:   ratePerSecond,
		burst:           burst,
		maxIdentifiers:  maxIdentifiers,
		logger:          logger,
		cleanupInterval: DefaultCleanupInterval,
		idleTimeout:     DefaultIdleTimeout,
		stopCleanup:     make(chan struct{}),
	}

	go th.cleanupLoop()

	return th
}

// Allow reports whether a request from the identifier fits its token
// bucket right now.
func (th *Throttle) Allow(identifier string) bool {
	now := time.Now()

	th.mu.Lock()
	defer th.mu.Unlock()

	if elem, exists := th.entries[identifier]; exists {
		th.lruList.MoveToFront(elem)
		entry := elem.Value.(*throttleEntry)
		entry.lastAccess = now
		return entry.bucket.Allow()
	}

	if th.maxIdentifiers > 0 && len(th.entries) >= th.maxIdentifiers {
		th.evictLRU()
	}

	entry := &throttleEntry{
		identifier: identifier,
		bucket:     rate.NewLimiter(rate.Limit(th.ratePerSecond), th.burst),
		lastAccess: now,
	}
	th.entries[identifier] = th.lruList.PushFront(entry)

	return entry.bucket.Allow()
}

// evictLRU removes the least recently used identifier. Must be called with
// the mutex held.
func (th *Throttle) evictLRU() {
	elem := th.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*throttleEntry)
	delete(th.entries, entry.identifier)
	th.lruList.Remove(elem)
	th.totalEvictions++

	th.logger.Debug("Throttle LRU eviction",
		"identifier", entry.identifier,
		"total_evictions", th.totalEvictions,
		"current_entries", len(th.entries))
}

func (th *Throttle) cleanupLoop() {
	ticker := time.NewTicker(th.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			th.Cleanup()
		case <-th.stopCleanup:
			return
		}
	}
}

// Cleanup reclaims identifiers idle longer than the idle timeout.
func (th *Throttle) Cleanup() {
	th.mu.Lock()
	defer th.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := th.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*throttleEntry)

		if now.Sub(entry.lastAccess) > th.idleTimeout {
			delete(th.entries, entry.identifier)
			th.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		th.totalCleanups++
		th.logger.Debug("Throttle cleanup completed",
			"removed", removed,
			"remaining", len(th.entries),
			"total_cleanups", th.totalCleanups)
	}
}

// Stop terminates the background sweep. Safe to call more than once.
func (th *Throttle) Stop() {
	th.stopOnce.Do(func() {
		close(th.stopCleanup)
	})
}

// ThrottleStats holds Throttle counters for monitoring.
type ThrottleStats struct {
	CurrentIdentifiers int     // Identifiers currently tracked
	MaxIdentifiers     int     // Configured capacity (0 = unlimited)
	TotalEvictions     int64   // LRU evictions performed
	TotalCleanups      int64   // Background sweeps that removed entries
	MemoryPressure     float64 // Percentage of capacity in use (0-100)
}

// Stats returns a snapshot of the throttle's counters.
func (th *Throttle) Stats() ThrottleStats {
	th.mu.Lock()
	defer th.mu.Unlock()

	stats := ThrottleStats{
		CurrentIdentifiers: len(th.entries),
		MaxIdentifiers:     th.maxIdentifiers,
		TotalEvictions:     th.totalEvictions,
		TotalCleanups:      th.totalCleanups,
	}
	if th.maxIdentifiers > 0 {
		stats.MemoryPressure = float64(stats.CurrentIdentifiers) / float64(stats.MaxIdentifiers) * 100.0
	}
	return stats
}
