package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span and metric attribute keys.
//
// SECURITY WARNING: never put actual sensitive values (passwords, stored
// credentials, CSRF tokens, raw identities) into traces or metrics. Only
// metadata belongs here: algorithm names, rejection reasons, limit names.
// Telemetry is persisted longer and read by a wider audience than the
// systems it observes.
const (
	// AttrAlgorithm is the credential algorithm name (argon2id, bcrypt,
	// pbkdf2-sha256, legacy-sha256), never the credential itself.
	AttrAlgorithm = "websec.credential.algorithm"

	// AttrFailureReason is the internal auth-failure label.
	AttrFailureReason = "websec.auth.failure_reason"

	// AttrLimitName is the logical name of a rate limit (login, api),
	// never the raw key, which may embed a client IP.
	AttrLimitName = "websec.ratelimit.limit_name"

	// AttrFieldName is the name of a field rejected by validation,
	// never its value.
	AttrFieldName = "websec.validation.field"

	// AttrEventType is the audit event type on spans that emit one.
	AttrEventType = "websec.audit.event_type"
)

// RecordError records an error on a span with an error status (nil-safe).
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe).
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe).
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}
