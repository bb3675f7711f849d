// Package csrf issues and verifies anti-CSRF tokens for state-changing
// requests. Tokens are opaque high-entropy values; where the expected value
// lives (session, cookie, form field) is the embedding web layer's choice.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	// TokenBytes is the entropy of a generated token in bytes.
	TokenBytes = 32

	// TokenLength is the length of a generated token string (hex encoded).
	TokenLength = TokenBytes * 2
)

// GenerateToken returns a fresh token: TokenBytes of cryptographically
// secure randomness rendered as TokenLength hex characters.
//
// The function panics if the system's random source fails. Silently
// degrading to predictable tokens is unacceptable, and there is no sane way
// to continue serving requests without a working CSPRNG.
func GenerateToken() string {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("csrf: crypto/rand.Read failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// VerifyToken reports whether candidate matches expected. The comparison is
// constant time regardless of where the first mismatching byte occurs, so
// response timing leaks nothing about the expected value. An empty
// candidate or expected value never verifies.
func VerifyToken(candidate, expected string) bool {
	if candidate == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1
}
