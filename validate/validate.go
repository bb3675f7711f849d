// Package validate checks and neutralizes untrusted request fields before
// they reach a data store or a template. Every validator is pure, rejects by
// returning a falsy value rather than an error, and never panics on
// malformed input, so callers cannot accidentally fail open by dropping an
// error.
package validate

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bookwell/websec/internal/util"
)

const (
	// DefaultMaxLength is the sanitized-string cap applied when callers
	// pass a non-positive max length.
	DefaultMaxLength = 1000

	// MinPhoneDigits is the minimum number of significant digits a phone
	// number must carry after punctuation is stripped.
	MinPhoneDigits = 7

	// maxPhoneDigits follows E.164.
	maxPhoneDigits = 15

	// maxEmailLength per RFC 5321.
	maxEmailLength = 254
)

// emailPattern is a structural check, not full RFC 5322: one local part,
// one domain with at least one dot and an alphabetic TLD. Edge cases the
// pattern cannot express (double dots, leading/trailing dots) are rejected
// separately in Email.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// idPattern accepts only digit strings that fit comfortably in an int64.
// Anything else in an id-shaped field (operators, quotes, whitespace) is an
// injection attempt and is rejected outright.
var idPattern = regexp.MustCompile(`^[0-9]{1,18}$`)

// SanitizeString escapes the HTML-significant characters (<, >, &, ", ')
// in input to their entity forms and caps the result at maxLen bytes.
// A non-positive maxLen means DefaultMaxLength. Callers holding *string
// map nil to "" before calling; empty input yields empty output.
func SanitizeString(input string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	escaped := html.EscapeString(input)
	truncated := util.SafeTruncate(escaped, maxLen)
	return trimPartialEntity(truncated)
}

// SanitizePtr sanitizes an optional field: a nil pointer is treated as the
// empty string. Convenient for JSON payloads decoded into *string fields.
func SanitizePtr(input *string, maxLen int) string {
	if input == nil {
		return ""
	}
	return SanitizeString(*input, maxLen)
}

// trimPartialEntity drops a trailing entity that truncation cut in half,
// so the output never ends with a reintroduced bare "&". The longest
// entity EscapeString emits is five bytes.
func trimPartialEntity(s string) string {
	start := len(s) - 5
	if start < 0 {
		start = 0
	}
	for i := len(s) - 1; i >= start; i-- {
		switch s[i] {
		case ';':
			return s
		case '&':
			return s[:i]
		}
	}
	return s
}

// Email reports whether s is structurally a valid email address:
// a non-empty local part, an @, and a dotted domain. Double dots, empty
// domain labels, and oversized addresses are rejected. Empty input is
// rejected; callers holding *string treat nil the same way.
func Email(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}
	if !emailPattern.MatchString(s) {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}

	local, domain, _ := strings.Cut(s, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}

// Phone reports whether s looks like a dialable phone number. Common
// punctuation (spaces, parentheses, hyphens, dots, a leading +) is
// tolerated; after stripping it, the remainder must be all digits and
// carry between MinPhoneDigits and 15 significant digits.
func Phone(s string) bool {
	if s == "" {
		return false
	}

	stripped := strings.TrimPrefix(s, "+")
	var digits strings.Builder
	for _, r := range stripped {
		switch r {
		case ' ', '(', ')', '-', '.':
			// punctuation, ignore
		default:
			if r < '0' || r > '9' {
				return false
			}
			digits.WriteRune(r)
		}
	}

	n := digits.Len()
	return n >= MinPhoneDigits && n <= maxPhoneDigits
}

// ID coerces an id-shaped value to a positive integer. Accepted inputs are
// positive integers (any Go integer kind), whole positive floats (JSON
// numbers decode as float64), and strings of digits only. Negative numbers,
// zero, fractions, and strings containing anything beyond digits are
// rejected with ok=false; an id field carrying "1; DROP TABLE users" is an
// attack, not a number.
func ID(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return positive(int64(n))
	case int8:
		return positive(int64(n))
	case int16:
		return positive(int64(n))
	case int32:
		return positive(int64(n))
	case int64:
		return positive(n)
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return positive(int64(n))
	case uint8:
		return positive(int64(n))
	case uint16:
		return positive(int64(n))
	case uint32:
		return positive(int64(n))
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return positive(int64(n))
	case float64:
		// The comparison must stay below 1<<63: math.MaxInt64 rounds up
		// to exactly 2^63 as a float64, and converting that to int64
		// overflows to the minimum value.
		if n <= 0 || n != math.Trunc(n) || n >= math.Ldexp(1, 63) {
			return 0, false
		}
		return positive(int64(n))
	case float32:
		return ID(float64(n))
	case string:
		if !idPattern.MatchString(n) {
			return 0, false
		}
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return positive(parsed)
	default:
		return 0, false
	}
}

func positive(n int64) (int64, bool) {
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// AllowedFields builds an allow-list set from field names. Intended for
// package-level configuration of the writable keys per record type.
func AllowedFields(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// FilterFields returns a new map holding only the entries of fields whose
// key is in allowed, values untouched. The input map is never mutated; the
// output keys are always a subset of both the input keys and the allow
// list.
func FilterFields(fields map[string]any, allowed map[string]struct{}) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		if _, ok := allowed[key]; ok {
			filtered[key] = value
		}
	}
	return filtered
}
