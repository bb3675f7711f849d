package audit

// Event type constants for security audit logging. Using constants keeps
// the vocabulary consistent across call sites and monitoring queries.
const (
	// EventAuthFailure is logged when authentication fails (wrong
	// credentials, malformed stored credential, blocked identity).
	EventAuthFailure = "auth_failure"

	// EventRateLimitExceeded is logged when a request is rejected by the
	// sliding-window limiter or the throttle.
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventLockoutTriggered is logged when an identity reaches the
	// consecutive-failed-login threshold.
	EventLockoutTriggered = "lockout_triggered"

	// EventCSRFRejected is logged when a state-changing request carries a
	// missing or mismatched CSRF token.
	EventCSRFRejected = "csrf_rejected"

	// EventValidationRejected is logged when an untrusted field fails
	// validation before persistence.
	EventValidationRejected = "validation_rejected"

	// EventCredentialRehashNeeded is logged when a verified credential is
	// stored in a legacy or outdated format and should be migrated.
	EventCredentialRehashNeeded = "credential_rehash_needed"
)
