// Package ratelimit provides in-memory request rate limiting and
// failed-login lockout tracking for the web backend.
//
// Three independent structures are provided:
//
//   - Limiter counts events per key inside a sliding time window and is the
//     primary per-IP / per-route request limit.
//   - Lockout tracks consecutive failed logins per identity and blocks the
//     identity once a threshold is reached inside the observation window.
//   - Throttle shapes sustained request rates per identifier with a token
//     bucket, for callers that also want a requests-per-second ceiling in
//     front of the sliding window.
//
// All three are bounded in memory: tracked keys are held in an LRU list,
// evicted when a configured capacity is reached, and swept by a background
// cleanup goroutine when idle. State is process-local and best effort; it is
// intentionally not persisted across restarts.
//
// Every structure is safe for concurrent use. Each owns a single mutex; a
// read-modify-write against one key is atomic with respect to concurrent
// updates to the same key, and no cross-key ordering is guaranteed.
//
// Example:
//
//	limiter := ratelimit.NewLimiter(logger)
//	defer limiter.Stop()
//
//	allowed, remaining := limiter.Check(clientIP, 100, time.Minute)
//	if !allowed {
//	    // Translate into a 429 at the HTTP layer.
//	}
//
//	lockout := ratelimit.NewLockout(logger)
//	defer lockout.Stop()
//
//	if lockout.IsBlocked(email) {
//	    // Generic "invalid credentials" response; do not reveal the block.
//	}
package ratelimit
