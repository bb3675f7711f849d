package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the security core.
type Metrics struct {
	// Authentication
	AuthFailures     metric.Int64Counter
	CredentialRehash metric.Int64Counter
	HashDuration     metric.Float64Histogram
	VerifyDuration   metric.Float64Histogram

	// Rate limiting
	RateLimitRejected metric.Int64Counter
	ThrottleRejected  metric.Int64Counter
	LockoutsTriggered metric.Int64Counter
	BlockedAttempts   metric.Int64Counter

	// Request protection
	CSRFRejected       metric.Int64Counter
	ValidationRejected metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	var err error

	credMeter := inst.Meter("credential")

	m.AuthFailures, err = credMeter.Int64Counter(
		"websec.auth.failures",
		metric.WithDescription("Total number of failed authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth.failures counter: %w", err)
	}

	m.CredentialRehash, err = credMeter.Int64Counter(
		"websec.credential.rehash_needed",
		metric.WithDescription("Verified credentials found in an outdated storage format"),
		metric.WithUnit("{credential}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential.rehash_needed counter: %w", err)
	}

	m.HashDuration, err = credMeter.Float64Histogram(
		"websec.credential.hash.duration",
		metric.WithDescription("Password hashing duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential.hash.duration histogram: %w", err)
	}

	m.VerifyDuration, err = credMeter.Float64Histogram(
		"websec.credential.verify.duration",
		metric.WithDescription("Password verification duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential.verify.duration histogram: %w", err)
	}

	rateMeter := inst.Meter("ratelimit")

	m.RateLimitRejected, err = rateMeter.Int64Counter(
		"websec.ratelimit.rejected",
		metric.WithDescription("Requests rejected by the sliding-window limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.rejected counter: %w", err)
	}

	m.ThrottleRejected, err = rateMeter.Int64Counter(
		"websec.throttle.rejected",
		metric.WithDescription("Requests rejected by the token-bucket throttle"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create throttle.rejected counter: %w", err)
	}

	m.LockoutsTriggered, err = rateMeter.Int64Counter(
		"websec.lockout.triggered",
		metric.WithDescription("Identities that crossed the failed-login threshold"),
		metric.WithUnit("{identity}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lockout.triggered counter: %w", err)
	}

	m.BlockedAttempts, err = rateMeter.Int64Counter(
		"websec.lockout.blocked_attempts",
		metric.WithDescription("Authentication attempts rejected because the identity is locked out"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lockout.blocked_attempts counter: %w", err)
	}

	guardMeter := inst.Meter("guard")

	m.CSRFRejected, err = guardMeter.Int64Counter(
		"websec.csrf.rejected",
		metric.WithDescription("State-changing requests rejected for a missing or mismatched CSRF token"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create csrf.rejected counter: %w", err)
	}

	m.ValidationRejected, err = guardMeter.Int64Counter(
		"websec.validation.rejected",
		metric.WithDescription("Untrusted fields rejected by input validation"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation.rejected counter: %w", err)
	}

	return m, nil
}

// RecordAuthFailure increments the auth failure counter with a reason label.
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFailureReason, reason),
	))
}

// RecordRateLimitRejected increments the sliding-window rejection counter.
// The label is the logical route or limit name, never the raw key: keys
// carry client IPs, and metric labels must stay low-cardinality and
// PII-free.
func (m *Metrics) RecordRateLimitRejected(ctx context.Context, limitName string) {
	m.RateLimitRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrLimitName, limitName),
	))
}

// RecordThrottleRejected increments the throttle rejection counter.
func (m *Metrics) RecordThrottleRejected(ctx context.Context) {
	m.ThrottleRejected.Add(ctx, 1)
}

// RecordLockoutTriggered increments the lockout counter.
func (m *Metrics) RecordLockoutTriggered(ctx context.Context) {
	m.LockoutsTriggered.Add(ctx, 1)
}

// RecordBlockedAttempt increments the blocked-attempt counter.
func (m *Metrics) RecordBlockedAttempt(ctx context.Context) {
	m.BlockedAttempts.Add(ctx, 1)
}

// RecordCSRFRejected increments the CSRF rejection counter.
func (m *Metrics) RecordCSRFRejected(ctx context.Context) {
	m.CSRFRejected.Add(ctx, 1)
}

// RecordValidationRejected increments the validation rejection counter with
// the rejected field's name.
func (m *Metrics) RecordValidationRejected(ctx context.Context, field string) {
	m.ValidationRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFieldName, field),
	))
}

// RecordCredentialRehash increments the rehash counter with the outdated
// algorithm's name.
func (m *Metrics) RecordCredentialRehash(ctx context.Context, algorithm string) {
	m.CredentialRehash.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAlgorithm, algorithm),
	))
}

// RecordHashDuration records one password-hash duration.
func (m *Metrics) RecordHashDuration(ctx context.Context, d time.Duration) {
	m.HashDuration.Record(ctx, float64(d.Milliseconds()))
}

// RecordVerifyDuration records one verification duration with the stored
// credential's algorithm as a label.
func (m *Metrics) RecordVerifyDuration(ctx context.Context, d time.Duration, algorithm string) {
	m.VerifyDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(
		attribute.String(AttrAlgorithm, algorithm),
	))
}
