package websec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookwell/websec/audit"
	"github.com/bookwell/websec/credential"
	"github.com/bookwell/websec/csrf"
	"github.com/bookwell/websec/instrumentation"
	"github.com/bookwell/websec/ratelimit"
)

// Suite wires the security primitives together from one Config and is the
// intended dependency-injection root: the HTTP layer constructs one Suite
// at startup and passes it to its handlers. The primitives stay independent
// of each other; the Suite's own methods only add audit logging and metrics
// around them, so callers that need the bare predicates can use the
// component fields directly.
type Suite struct {
	Hasher   *credential.Hasher
	Limiter  *ratelimit.Limiter
	Lockout  *ratelimit.Lockout
	Throttle *ratelimit.Throttle // nil when Config.Throttle.Rate is 0
	Auditor  *audit.Auditor

	inst   *instrumentation.Instrumentation
	logger *slog.Logger
}

// NewSuite builds a Suite. Zero-value config fields get secure defaults;
// invalid values fail with an error wrapping ErrInvalidConfig. No network
// or file handles are opened; the only background work is the limiters'
// cleanup goroutines, released by Stop.
func NewSuite(cfg Config) (*Suite, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := credential.NewHasher(cfg.Credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	inst, err := instrumentation.New(cfg.Instrumentation)
	if err != nil {
		return nil, fmt.Errorf("websec: instrumentation setup failed: %w", err)
	}

	s := &Suite{
		Hasher: hasher,
		Limiter: ratelimit.NewLimiterWithConfig(
			cfg.RateLimit.MaxTrackedKeys,
			cfg.RateLimit.CleanupInterval,
			cfg.RateLimit.IdleTimeout,
			cfg.Logger,
		),
		Lockout: ratelimit.NewLockoutWithConfig(
			cfg.Lockout.Threshold,
			cfg.Lockout.Window,
			cfg.Lockout.MaxTrackedIdentities,
			cfg.Logger,
		),
		Auditor: audit.NewAuditor(cfg.Logger, cfg.Audit.Enabled),
		inst:    inst,
		logger:  cfg.Logger,
	}

	if cfg.Throttle.Rate > 0 {
		s.Throttle = ratelimit.NewThrottleWithConfig(
			cfg.Throttle.Rate,
			cfg.Throttle.Burst,
			cfg.Throttle.MaxTrackedIdentifiers,
			cfg.Logger,
		)
	}

	return s, nil
}

// Stop releases the background goroutines and flushes instrumentation.
// Safe to call more than once.
func (s *Suite) Stop() {
	s.Limiter.Stop()
	s.Lockout.Stop()
	if s.Throttle != nil {
		s.Throttle.Stop()
	}
	if err := s.inst.Shutdown(context.Background()); err != nil {
		s.logger.Warn("Instrumentation shutdown failed", "error", err)
	}
}

// Metrics exposes the instrument holder for callers that record their own
// HTTP-layer telemetry alongside the core's.
func (s *Suite) Metrics() *instrumentation.Metrics {
	return s.inst.Metrics()
}

// CheckRateLimit runs the sliding-window check for key and, on rejection,
// emits the audit event and metric. limitName is the logical route label
// ("login", "api") used for telemetry; key is the client identifier the
// caller extracted (typically IP or IP+route).
func (s *Suite) CheckRateLimit(ctx context.Context, limitName, key string, maxRequests int, window time.Duration) (bool, int) {
	allowed, remaining := s.Limiter.Check(key, maxRequests, window)
	if !allowed {
		s.Auditor.LogRateLimitExceeded(ctx, key, limitName)
		s.inst.Metrics().RecordRateLimitRejected(ctx, limitName)
	}
	return allowed, remaining
}

// AllowRequest runs the token-bucket throttle for identifier. Always true
// when the throttle is disabled.
func (s *Suite) AllowRequest(ctx context.Context, identifier string) bool {
	if s.Throttle == nil {
		return true
	}
	if !s.Throttle.Allow(identifier) {
		s.inst.Metrics().RecordThrottleRejected(ctx)
		return false
	}
	return true
}

// VerifyCredential checks password against the stored credential for
// identity, folding in lockout tracking, audit logging and metrics:
//
//   - a blocked identity fails immediately without touching the hasher;
//   - a failed verification records the failure and may trigger lockout;
//   - a successful verification resets the failure streak and reports
//     via needsRehash whether the caller should Hash and persist a
//     replacement credential now that it holds the plaintext.
//
// The result is deliberately a pair of booleans, not an error; the caller
// translates false into its own generic "invalid credentials" response.
func (s *Suite) VerifyCredential(ctx context.Context, identity, password, stored string) (ok, needsRehash bool) {
	if s.Lockout.IsBlocked(identity) {
		s.inst.Metrics().RecordBlockedAttempt(ctx)
		s.Auditor.LogEvent(ctx, audit.Event{
			Type:     audit.EventAuthFailure,
			Identity: identity,
			Details:  map[string]any{"reason": "identity_blocked"},
		})
		return false, false
	}

	start := time.Now()
	ok = s.Hasher.Verify(password, stored)
	algorithm := credential.DetectAlgorithm(stored).String()
	s.inst.Metrics().RecordVerifyDuration(ctx, time.Since(start), algorithm)

	if !ok {
		s.Lockout.RecordFailure(identity)
		s.inst.Metrics().RecordAuthFailure(ctx, "wrong_password")
		if s.Lockout.IsBlocked(identity) {
			s.inst.Metrics().RecordLockoutTriggered(ctx)
			s.Auditor.LogLockout(ctx, identity, s.Lockout.Failures(identity))
		}
		return false, false
	}

	s.Lockout.RecordSuccess(identity)

	if s.Hasher.NeedsRehash(stored) {
		needsRehash = true
		s.inst.Metrics().RecordCredentialRehash(ctx, algorithm)
		s.Auditor.LogCredentialRehashNeeded(ctx, identity, algorithm)
	}
	return ok, needsRehash
}

// HashCredential produces a fresh stored credential, recording the hash
// duration.
func (s *Suite) HashCredential(ctx context.Context, password string) (string, error) {
	start := time.Now()
	stored, err := s.Hasher.Hash(password)
	s.inst.Metrics().RecordHashDuration(ctx, time.Since(start))
	return stored, err
}

// VerifyCSRF checks a CSRF token pair and, on rejection, emits the audit
// event and metric. path and clientID are audit detail only.
func (s *Suite) VerifyCSRF(ctx context.Context, path, clientID, candidate, expected string) bool {
	if csrf.VerifyToken(candidate, expected) {
		return true
	}
	s.Auditor.LogCSRFRejected(ctx, path, clientID)
	s.inst.Metrics().RecordCSRFRejected(ctx)
	return false
}
