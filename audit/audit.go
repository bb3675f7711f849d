// Package audit records security-relevant events (authentication failures,
// rate limiting, lockouts, CSRF and validation rejections) as structured
// log lines for monitoring. It is a write-only sink: nothing in the library
// consumes its output, and the destination is whatever the injected
// slog.Logger writes to.
//
// Identities (emails, usernames) are PII and never appear verbatim; they are
// logged as a truncated SHA-256 hash, enough to correlate events for one
// account without exposing the account.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor writes security audit events. The zero value is unusable; create
// one with NewAuditor. Safe for concurrent use.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates an Auditor. When enabled is false every Log method is
// a no-op, which lets callers wire auditing unconditionally and flip it in
// config.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event is one security audit record.
type Event struct {
	Type      string         // one of the Event* constants in events.go
	Identity  string         // account identifier; hashed before logging
	ClientID  string         // caller-supplied client identifier (usually an IP)
	Path      string         // request path the event occurred on
	Details   map[string]any // event-specific extras; must not contain secrets
	Timestamp time.Time      // set by LogEvent
}

// LogEvent writes an event. The request ID, if present in ctx, is attached
// for correlation with the HTTP layer's own logs.
func (a *Auditor) LogEvent(ctx context.Context, event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.InfoContext(ctx, "security_audit",
		"event_type", event.Type,
		"identity_hash", HashIdentity(event.Identity),
		"client_id", event.ClientID,
		"path", event.Path,
		"request_id", RequestIDFromContext(ctx),
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogAuthFailure records a failed authentication attempt. reason is an
// internal label (wrong_password, account_blocked, malformed_credential);
// it never reaches the end user, who only ever sees a generic response.
func (a *Auditor) LogAuthFailure(ctx context.Context, path, clientID, reason string) {
	a.LogEvent(ctx, Event{
		Type:     EventAuthFailure,
		ClientID: clientID,
		Path:     path,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded records a rejected request.
func (a *Auditor) LogRateLimitExceeded(ctx context.Context, clientID, path string) {
	a.LogEvent(ctx, Event{
		Type:     EventRateLimitExceeded,
		ClientID: clientID,
		Path:     path,
	})
}

// LogLockout records an identity crossing the failed-login threshold.
func (a *Auditor) LogLockout(ctx context.Context, identity string, failures int) {
	a.LogEvent(ctx, Event{
		Type:     EventLockoutTriggered,
		Identity: identity,
		Details: map[string]any{
			"failures": failures,
		},
	})
}

// LogCSRFRejected records a state-changing request with a missing or
// mismatched CSRF token.
func (a *Auditor) LogCSRFRejected(ctx context.Context, path, clientID string) {
	a.LogEvent(ctx, Event{
		Type:     EventCSRFRejected,
		ClientID: clientID,
		Path:     path,
	})
}

// LogValidationRejected records a field that failed input validation.
// Only the field name and a rejection label are logged, never the value;
// rejected input is by definition attacker-controlled.
func (a *Auditor) LogValidationRejected(ctx context.Context, path, field, reason string) {
	a.LogEvent(ctx, Event{
		Type: EventValidationRejected,
		Path: path,
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	})
}

// LogCredentialRehashNeeded records that a successfully verified credential
// is stored in an outdated format, so operators can watch migration
// progress.
func (a *Auditor) LogCredentialRehashNeeded(ctx context.Context, identity, algorithm string) {
	a.LogEvent(ctx, Event{
		Type:     EventCredentialRehashNeeded,
		Identity: identity,
		Details: map[string]any{
			"algorithm": algorithm,
		},
	})
}

// HashIdentity returns a 16-character SHA-256 prefix of an identity for
// logging, or "<empty>" for an empty identity.
func HashIdentity(identity string) string {
	if identity == "" {
		return "<empty>"
	}
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])[:16]
}
