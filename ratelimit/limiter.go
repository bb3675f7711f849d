package ratelimit

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxTrackedKeys is the maximum number of distinct keys a
	// Limiter tracks before evicting the least recently used one.
	DefaultMaxTrackedKeys = 10000

	// DefaultCleanupInterval is how often the background sweep runs.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultIdleTimeout is how long a key may go unseen before the sweep
	// reclaims it.
	DefaultIdleTimeout = 30 * time.Minute
)

// windowEntry tracks the recent event timestamps for one key.
type windowEntry struct {
	key        string
	events     []time.Time
	lastAccess time.Time
}

// Limiter counts events per key inside a sliding window. The window length
// and limit are supplied per call, so one Limiter can serve differently
// configured routes (login, API, webhooks) without duplication.
//
// Memory is bounded two ways: an LRU cap on the number of tracked keys for
// churn of many distinct keys (rotating attacker IPs), and a periodic sweep
// that reclaims keys idle longer than the configured timeout.
type Limiter struct {
	entries         map[string]*list.Element // key -> list element
	lruList         *list.List               // LRU list of *windowEntry
	mu              sync.Mutex
	maxKeys         int
	logger          *slog.Logger
	cleanupInterval time.Duration
	idleTimeout     time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalAllowed   int64
	totalRejected  int64
	totalEvictions int64
	totalCleanups  int64
}

// NewLimiter creates a Limiter with default capacity and sweep settings.
func NewLimiter(logger *slog.Logger) *Limiter {
	return NewLimiterWithConfig(DefaultMaxTrackedKeys, DefaultCleanupInterval, DefaultIdleTimeout, logger)
}

// NewLimiterWithConfig creates a Limiter with custom capacity and sweep
// settings. maxKeys bounds the number of distinct keys tracked at once
// (0 means unlimited, not recommended in production). Invalid values fall
// back to defaults with a warning rather than failing: a limiter that
// refuses to start would fail open.
func NewLimiterWithConfig(maxKeys int, cleanupInterval, idleTimeout time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if maxKeys < 0 {
		logger.Warn("Invalid maxKeys, using default", "maxKeys", maxKeys, "default", DefaultMaxTrackedKeys)
		maxKeys = DefaultMaxTrackedKeys
	}
	if cleanupInterval <= 0 {
		logger.Warn("Invalid cleanupInterval, using default", "cleanupInterval", cleanupInterval, "default", DefaultCleanupInterval)
		cleanupInterval = DefaultCleanupInterval
	}
	if idleTimeout <= 0 {
		logger.Warn("Invalid idleTimeout, using default", "idleTimeout", idleTimeout, "default", DefaultIdleTimeout)
		idleTimeout = DefaultIdleTimeout
	}

	l := &Limiter{
		entries:         make(map[string]*list.Element),
		lruList:         list.New(),
		maxKeys:         maxKeys,
		logger:          logger,
		cleanupInterval: cleanupInterval,
		idleTimeout:     idleTimeout,
		stopCleanup:     make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Check records an event for key and reports whether the post-increment
// count fits within max events per window, along with the remaining budget
// (clamped at zero). The event that makes the count reach max exactly is
// still allowed; the next one is rejected.
//
// Rejected events still count against the window, so a client hammering a
// limited endpoint does not earn fresh budget any sooner.
func (l *Limiter) Check(key string, max int, window time.Duration) (bool, int) {
	now := time.Now()
	windowStart := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.lookupOrCreate(key, now)

	// Drop events that slid out of the window (in-place filtering).
	n := 0
	for _, ts := range entry.events {
		if ts.After(windowStart) {
			entry.events[n] = ts
			n++
		}
	}
	entry.events = entry.events[:n]

	entry.events = append(entry.events, now)
	count := len(entry.events)

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}

	if count > max {
		l.totalRejected++
		l.logger.Debug("Rate limit exceeded",
			"key", entry.key,
			"count", count,
			"max", max,
			"window", window,
			"total_rejected", l.totalRejected)
		return false, remaining
	}

	l.totalAllowed++
	return true, remaining
}

// lookupOrCreate returns the window entry for key, creating and LRU-evicting
// as needed. Must be called with the mutex held.
func (l *Limiter) lookupOrCreate(key string, now time.Time) *windowEntry {
	if elem, exists := l.entries[key]; exists {
		l.lruList.MoveToFront(elem)
		entry := elem.Value.(*windowEntry)
		entry.lastAccess = now
		return entry
	}

	if l.maxKeys > 0 && len(l.entries) >= l.maxKeys {
		l.evictLRU()
	}

	entry := &windowEntry{
		key:        key,
		lastAccess: now,
	}
	l.entries[key] = l.lruList.PushFront(entry)
	return entry
}

// evictLRU removes the least recently used entry. Must be called with the
// mutex held.
func (l *Limiter) evictLRU() {
	elem := l.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*windowEntry)
	delete(l.entries, entry.key)
	l.lruList.Remove(elem)
	l.totalEvictions++

	l.logger.Debug("Rate limiter LRU eviction",
		"key", entry.key,
		"total_evictions", l.totalEvictions,
		"current_entries", len(l.entries))
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// Cleanup reclaims keys that have been idle longer than the configured
// timeout. The background sweep calls this periodically; it is exported so
// tests and operators can force a sweep.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := l.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*windowEntry)

		if now.Sub(entry.lastAccess) > l.idleTimeout {
			delete(l.entries, entry.key)
			l.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		l.totalCleanups++
		l.logger.Debug("Rate limiter cleanup completed",
			"removed", removed,
			"remaining", len(l.entries),
			"total_cleanups", l.totalCleanups)
	}
}

// Stop terminates the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// LimiterStats holds Limiter counters for monitoring and alerting.
type LimiterStats struct {
	CurrentKeys    int     // Number of keys currently tracked
	MaxKeys        int     // Configured capacity (0 = unlimited)
	TotalAllowed   int64   // Events that fit in their window
	TotalRejected  int64   // Events that exceeded their window
	TotalEvictions int64   // LRU evictions performed
	TotalCleanups  int64   // Background sweeps that removed entries
	MemoryPressure float64 // Percentage of capacity in use (0-100)
}

// Stats returns a snapshot of the limiter's counters. A MemoryPressure
// consistently above 80 suggests raising maxKeys; a fast-growing
// TotalEvictions suggests a distributed source of rotating keys.
func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := LimiterStats{
		CurrentKeys:    len(l.entries),
		MaxKeys:        l.maxKeys,
		TotalAllowed:   l.totalAllowed,
		TotalRejected:  l.totalRejected,
		TotalEvictions: l.totalEvictions,
		TotalCleanups:  l.totalCleanups,
	}
	if l.maxKeys > 0 {
		stats.MemoryPressure = float64(stats.CurrentKeys) / float64(stats.MaxKeys) * 100.0
	}
	return stats
}
