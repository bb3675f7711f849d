package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Hex fabricates the digest part of a retained pbkdf2-sha256
// credential the way the previous backend release wrote it.
func pbkdf2Hex(password, salt string, iterations int) string {
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, 32, sha256.New)
	return hex.EncodeToString(digest)
}

// bcryptFixture fabricates a retained bcrypt credential.
func bcryptFixture(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword() error = %v", err)
	}
	return string(hash)
}
