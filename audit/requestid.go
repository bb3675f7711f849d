package audit

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
)

// requestIDContextKey is the context key for request IDs.
type requestIDContextKey struct{}

// requestIDPattern accepts the request ID formats common proxies emit
// (alphanumeric, hyphens, underscores, 1-128 chars). Anything else is
// rejected so a forged header cannot smuggle newlines or oversized
// payloads into audit lines.
var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// NewRequestID generates a random request ID: 16 bytes of entropy as a
// 22-character unpadded base64url string. Panics if the system RNG fails,
// the same policy as csrf.GenerateToken.
func NewRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("audit: crypto/rand.Read failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ValidRequestID reports whether an upstream-supplied request ID is safe to
// propagate into logs. The HTTP layer calls this before trusting a header
// value; invalid IDs should be replaced with NewRequestID().
func ValidRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored in ctx, or "" when
// none is present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return requestID
	}
	return ""
}
