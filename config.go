package websec

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bookwell/websec/credential"
	"github.com/bookwell/websec/instrumentation"
	"github.com/bookwell/websec/ratelimit"
)

// Config holds the security core configuration. Zero-value fields are
// replaced by secure defaults at construction; explicitly invalid values
// (negative limits, sub-default thresholds of zero set on purpose) fail
// Validate instead of degrading silently.
type Config struct {
	// Credential holds the Argon2id parameters for newly produced hashes.
	Credential credential.Params

	// RateLimit configures the sliding-window limiter's memory bounds.
	// Window length and request limits are per-call arguments, not config.
	RateLimit RateLimitConfig

	// Lockout configures the failed-login tracker.
	Lockout LockoutConfig

	// Throttle configures the optional per-client token bucket.
	// A zero Rate disables it.
	Throttle ThrottleConfig

	// Audit configures security-event logging.
	Audit AuditConfig

	// Instrumentation configures OpenTelemetry metrics and tracing.
	Instrumentation instrumentation.Config

	// Logger is used by every component. Defaults to slog.Default().
	Logger *slog.Logger
}

// RateLimitConfig bounds the sliding-window limiter's tracked keys.
type RateLimitConfig struct {
	// MaxTrackedKeys caps distinct keys before LRU eviction.
	// 0 means the package default.
	MaxTrackedKeys int

	// CleanupInterval is how often idle keys are swept.
	CleanupInterval time.Duration

	// IdleTimeout is how long a key may go unseen before the sweep
	// reclaims it.
	IdleTimeout time.Duration
}

// LockoutConfig controls the failed-login lockout tracker.
type LockoutConfig struct {
	// Threshold is the consecutive-failure count that blocks an identity.
	// 0 means the package default of 10.
	Threshold int

	// Window is the observation period. 0 means the default of 15m.
	Window time.Duration

	// MaxTrackedIdentities caps tracked identities before LRU eviction.
	MaxTrackedIdentities int
}

// ThrottleConfig controls the per-client token bucket.
type ThrottleConfig struct {
	// Rate is sustained requests per second per identifier.
	// 0 disables the throttle entirely.
	Rate int

	// Burst is the bucket size. Defaults to Rate when 0.
	Burst int

	// MaxTrackedIdentifiers caps tracked identifiers before LRU eviction.
	MaxTrackedIdentifiers int
}

// AuditConfig controls security-event logging.
type AuditConfig struct {
	// Enabled turns audit logging on. Off by default; the embedding
	// application decides whether its log sink is an acceptable audit
	// destination.
	Enabled bool
}

// DefaultConfig returns a production-ready configuration: current Argon2id
// parameters, default limiter capacities, a 10-failure/15-minute lockout,
// audit logging on, instrumentation off.
func DefaultConfig() Config {
	return Config{
		Credential: credential.DefaultParams(),
		RateLimit: RateLimitConfig{
			MaxTrackedKeys:  ratelimit.DefaultMaxTrackedKeys,
			CleanupInterval: ratelimit.DefaultCleanupInterval,
			IdleTimeout:     ratelimit.DefaultIdleTimeout,
		},
		Lockout: LockoutConfig{
			Threshold:            ratelimit.DefaultLockoutThreshold,
			Window:               ratelimit.DefaultLockoutWindow,
			MaxTrackedIdentities: ratelimit.DefaultMaxTrackedIdentities,
		},
		Audit: AuditConfig{Enabled: true},
	}
}

// withDefaults fills zero-value fields with package defaults. Negative
// values are left alone for Validate to reject.
func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Credential == (credential.Params{}) {
		c.Credential = credential.DefaultParams()
	}
	if c.RateLimit.MaxTrackedKeys == 0 {
		c.RateLimit.MaxTrackedKeys = ratelimit.DefaultMaxTrackedKeys
	}
	if c.RateLimit.CleanupInterval == 0 {
		c.RateLimit.CleanupInterval = ratelimit.DefaultCleanupInterval
	}
	if c.RateLimit.IdleTimeout == 0 {
		c.RateLimit.IdleTimeout = ratelimit.DefaultIdleTimeout
	}
	if c.Lockout.Threshold == 0 {
		c.Lockout.Threshold = ratelimit.DefaultLockoutThreshold
	}
	if c.Lockout.Window == 0 {
		c.Lockout.Window = ratelimit.DefaultLockoutWindow
	}
	if c.Lockout.MaxTrackedIdentities == 0 {
		c.Lockout.MaxTrackedIdentities = ratelimit.DefaultMaxTrackedIdentities
	}
	if c.Throttle.Rate > 0 && c.Throttle.Burst == 0 {
		c.Throttle.Burst = c.Throttle.Rate
	}
	if c.Throttle.Rate > 0 && c.Throttle.MaxTrackedIdentifiers == 0 {
		c.Throttle.MaxTrackedIdentifiers = ratelimit.DefaultMaxTrackedKeys
	}
	return c
}

// Validate rejects configurations that would weaken a security guarantee.
// Called by NewSuite after defaults are applied.
func (c Config) Validate() error {
	if c.RateLimit.MaxTrackedKeys < 0 {
		return fmt.Errorf("%w: RateLimit.MaxTrackedKeys is negative", ErrInvalidConfig)
	}
	if c.RateLimit.CleanupInterval < 0 || c.RateLimit.IdleTimeout < 0 {
		return fmt.Errorf("%w: RateLimit sweep intervals must not be negative", ErrInvalidConfig)
	}
	if c.Lockout.Threshold < 0 || c.Lockout.Window < 0 || c.Lockout.MaxTrackedIdentities < 0 {
		return fmt.Errorf("%w: Lockout values must not be negative", ErrInvalidConfig)
	}
	if c.Throttle.Rate < 0 || c.Throttle.Burst < 0 || c.Throttle.MaxTrackedIdentifiers < 0 {
		return fmt.Errorf("%w: Throttle values must not be negative", ErrInvalidConfig)
	}
	return nil
}
