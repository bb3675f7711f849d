// Package util provides small shared helpers used across the websec
// packages. Anything domain-specific belongs in the concern packages, not
// here.
package util

// SafeTruncate truncates s to at most maxLen bytes without panicking.
// Used when capping sanitized input and when logging identifiers where only
// a prefix should ever appear. A negative maxLen is treated as 0.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// RedactIdentifier returns a short, non-reversible preview of an identifier
// for log lines: the first keep bytes followed by "…", or "<empty>" for an
// empty input. It is presentation-only; audit logging hashes identifiers
// separately before they reach a sink.
func RedactIdentifier(s string, keep int) string {
	if s == "" {
		return "<empty>"
	}
	if keep <= 0 || len(s) <= keep {
		return s
	}
	return s[:keep] + "…"
}
