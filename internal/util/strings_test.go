package util

import "testing"

func TestSafeTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than maxLen", "short", 10, "short"},
		{"equal to maxLen", "exactly10c", 10, "exactly10c"},
		{"longer than maxLen", "this-is-a-long-identifier", 8, "this-is-"},
		{"empty string", "", 5, ""},
		{"maxLen zero", "test", 0, ""},
		{"maxLen negative", "test", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTruncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("SafeTruncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestRedactIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		keep  int
		want  string
	}{
		{"empty", "", 4, "<empty>"},
		{"short enough", "ab", 4, "ab"},
		{"redacted", "user@example.com", 4, "user…"},
		{"keep zero", "secret", 0, "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactIdentifier(tt.input, tt.keep); got != tt.want {
				t.Errorf("RedactIdentifier(%q, %d) = %q, want %q", tt.input, tt.keep, got, tt.want)
			}
		})
	}
}
