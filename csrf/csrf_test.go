package csrf

import (
	"encoding/hex"
	"testing"
)

func TestGenerateToken_Format(t *testing.T) {
	token := GenerateToken()

	if len(token) != TokenLength {
		t.Errorf("len(token) = %d, want %d", len(token), TokenLength)
	}
	decoded, err := hex.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not valid hex: %v", err)
	}
	if len(decoded) != TokenBytes {
		t.Errorf("decoded length = %d, want %d", len(decoded), TokenBytes)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := GenerateToken()
		if seen[token] {
			t.Fatalf("GenerateToken() produced a duplicate: %s", token)
		}
		seen[token] = true
	}
}

func TestVerifyToken(t *testing.T) {
	token := GenerateToken()
	other := GenerateToken()

	tests := []struct {
		name      string
		candidate string
		expected  string
		want      bool
	}{
		{"matching tokens", token, token, true},
		{"different tokens", token, other, false},
		{"empty candidate", "", token, false},
		{"empty expected", token, "", false},
		{"both empty", "", "", false},
		{"prefix of expected", token[:32], token, false},
		{"expected plus suffix", token + "00", token, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyToken(tt.candidate, tt.expected); got != tt.want {
				t.Errorf("VerifyToken() = %v, want %v", got, tt.want)
			}
		})
	}
}
