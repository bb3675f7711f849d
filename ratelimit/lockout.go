package ratelimit

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"github.com/bookwell/websec/internal/util"
)

const (
	// DefaultLockoutThreshold is the number of consecutive failed logins
	// after which an identity is blocked.
	DefaultLockoutThreshold = 10

	// DefaultLockoutWindow is the observation period. Failures older than
	// this no longer count, and a block ends once the window elapses after
	// the most recent failure.
	DefaultLockoutWindow = 15 * time.Minute

	// DefaultMaxTrackedIdentities bounds the number of identities tracked.
	DefaultMaxTrackedIdentities = 10000
)

// lockoutEntry tracks consecutive failures for one identity.
type lockoutEntry struct {
	identity    string
	failures    int
	lastFailure time.Time
	lastAccess  time.Time
}

// Lockout tracks consecutive failed logins per identity (typically an email
// address) and blocks further attempts once a threshold is reached within
// the observation window. A successful login must be signaled explicitly
// via RecordSuccess; elapsed time is the only other way a block clears.
type Lockout struct {
	entries         map[string]*list.Element // identity -> list element
	lruList         *list.List               // LRU list of *lockoutEntry
	mu              sync.Mutex
	threshold       int
	window          time.Duration
	maxIdentities   int
	logger          *slog.Logger
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once

	totalLockouts  int64
	totalEvictions int64
	totalCleanups  int64
}

// NewLockout creates a Lockout with default threshold, window and capacity.
func NewLockout(logger *slog.Logger) *Lockout {
	return NewLockoutWithConfig(DefaultLockoutThreshold, DefaultLockoutWindow, DefaultMaxTrackedIdentities, logger)
}

// NewLockoutWithConfig creates a Lockout with a custom failure threshold,
// observation window and identity capacity. Invalid values fall back to
// defaults with a warning.
func NewLockoutWithConfig(threshold int, window time.Duration, maxIdentities int, logger *slog.Logger) *Lockout {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 {
		logger.Warn("Invalid lockout threshold, using default", "threshold", threshold, "default", DefaultLockoutThreshold)
		threshold = DefaultLockoutThreshold
	}
	if window <= 0 {
		logger.Warn("Invalid lockout window, using default", "window", window, "default", DefaultLockoutWindow)
		window = DefaultLockoutWindow
	}
	if maxIdentities < 0 {
		logger.Warn("Invalid maxIdentities, using default", "maxIdentities", maxIdentities, "default", DefaultMaxTrackedIdentities)
		maxIdentities = DefaultMaxTrackedIdentities
	}

	lo := &Lockout{
		entries:         make(map[string]*list.Element),
		lruList:         list.New(),
		threshold:       threshold,
		window:          window,
		maxIdentities:   maxIdentities,
		logger:          logger,
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go lo.cleanupLoop()

	return lo
}

// RecordFailure increments the identity's consecutive-failure counter and
// refreshes its timestamp. A failure arriving after the observation window
// has fully elapsed starts a fresh streak rather than extending a stale one.
func (lo *Lockout) RecordFailure(identity string) {
	now := time.Now()

	lo.mu.Lock()
	defer lo.mu.Unlock()

	if elem, exists := lo.entries[identity]; exists {
		lo.lruList.MoveToFront(elem)
		entry := elem.Value.(*lockoutEntry)
		entry.lastAccess = now

		if now.Sub(entry.lastFailure) > lo.window {
			entry.failures = 0
		}
		entry.failures++
		entry.lastFailure = now

		if entry.failures == lo.threshold {
			lo.totalLockouts++
			// The identity is an email or username; only a redacted
			// prefix may reach the log.
			lo.logger.Warn("Account lockout threshold reached",
				"identity", util.RedactIdentifier(identity, 3),
				"failures", entry.failures,
				"threshold", lo.threshold,
				"window", lo.window,
				"total_lockouts", lo.totalLockouts)
		}
		return
	}

	if lo.maxIdentities > 0 && len(lo.entries) >= lo.maxIdentities {
		lo.evictLRU()
	}

	entry := &lockoutEntry{
		identity:    identity,
		failures:    1,
		lastFailure: now,
		lastAccess:  now,
	}
	lo.entries[identity] = lo.lruList.PushFront(entry)
}

// RecordSuccess resets the identity's failure streak. The HTTP layer calls
// this after a successful authentication; nothing else clears a streak
// before the window elapses.
func (lo *Lockout) RecordSuccess(identity string) {
	lo.mu.Lock()
	defer lo.mu.Unlock()

	if elem, exists := lo.entries[identity]; exists {
		entry := elem.Value.(*lockoutEntry)
		delete(lo.entries, entry.identity)
		lo.lruList.Remove(elem)
	}
}

// IsBlocked reports whether the identity has reached the failure threshold
// within the observation window. Once the window elapses after the most
// recent failure the block ends on its own, with no reset call required.
func (lo *Lockout) IsBlocked(identity string) bool {
	now := time.Now()

	lo.mu.Lock()
	defer lo.mu.Unlock()

	elem, exists := lo.entries[identity]
	if !exists {
		return false
	}
	entry := elem.Value.(*lockoutEntry)

	if now.Sub(entry.lastFailure) > lo.window {
		// Stale streak; reclaim it opportunistically.
		delete(lo.entries, entry.identity)
		lo.lruList.Remove(elem)
		return false
	}
	return entry.failures >= lo.threshold
}

// Failures returns the identity's current consecutive-failure count.
// Intended for audit detail, not for authorization decisions.
func (lo *Lockout) Failures(identity string) int {
	lo.mu.Lock()
	defer lo.mu.Unlock()

	if elem, exists := lo.entries[identity]; exists {
		return elem.Value.(*lockoutEntry).failures
	}
	return 0
}

// evictLRU removes the least recently used identity. Must be called with
// the mutex held.
func (lo *Lockout) evictLRU() {
	elem := lo.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*lockoutEntry)
	delete(lo.entries, entry.identity)
	lo.lruList.Remove(elem)
	lo.totalEvictions++

	lo.logger.Debug("Lockout tracker LRU eviction",
		"total_evictions", lo.totalEvictions,
		"current_entries", len(lo.entries))
}

func (lo *Lockout) cleanupLoop() {
	ticker := time.NewTicker(lo.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lo.Cleanup()
		case <-lo.stopCleanup:
			return
		}
	}
}

// Cleanup reclaims identities whose window has fully elapsed. Exported so
// tests and operators can force a sweep.
func (lo *Lockout) Cleanup() {
	lo.mu.Lock()
	defer lo.mu.Unlock()

	now := time.Now()
	removed := 0

	var next *list.Element
	for elem := lo.lruList.Front(); elem != nil; elem = next {
		next = elem.Next()
		entry := elem.Value.(*lockoutEntry)

		if now.Sub(entry.lastFailure) > lo.window {
			delete(lo.entries, entry.identity)
			lo.lruList.Remove(elem)
			removed++
		}
	}

	if removed > 0 {
		lo.totalCleanups++
		lo.logger.Debug("Lockout tracker cleanup completed",
			"removed", removed,
			"remaining", len(lo.entries),
			"total_cleanups", lo.totalCleanups)
	}
}

// Stop terminates the background sweep. Safe to call more than once.
func (lo *Lockout) Stop() {
	lo.stopOnce.Do(func() {
		close(lo.stopCleanup)
	})
}

// LockoutStats holds Lockout counters for monitoring.
type LockoutStats struct {
	CurrentIdentities int   // Identities currently tracked
	MaxIdentities     int   // Configured capacity (0 = unlimited)
	Threshold         int   // Failure threshold
	TotalLockouts     int64 // Times an identity crossed the threshold
	TotalEvictions    int64 // LRU evictions performed
	TotalCleanups     int64 // Background sweeps that removed entries
}

// Stats returns a snapshot of the tracker's counters.
func (lo *Lockout) Stats() LockoutStats {
	lo.mu.Lock()
	defer lo.mu.Unlock()

	return LockoutStats{
		CurrentIdentities: len(lo.entries),
		MaxIdentities:     lo.maxIdentities,
		Threshold:         lo.threshold,
		TotalLockouts:     lo.totalLockouts,
		TotalEvictions:    lo.totalEvictions,
		TotalCleanups:     lo.totalCleanups,
	}
}
