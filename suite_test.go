package websec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bookwell/websec/credential"
)

// testConfig keeps hashing cheap so the suite tests stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Credential = credential.Params{
		MemoryKiB:   1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

func newTestSuite(t *testing.T, cfg Config) *Suite {
	t.Helper()
	s, err := NewSuite(cfg)
	if err != nil {
		t.Fatalf("NewSuite() error = %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestNewSuite_Defaults(t *testing.T) {
	s := newTestSuite(t, Config{})

	if s.Hasher == nil || s.Limiter == nil || s.Lockout == nil || s.Auditor == nil {
		t.Error("NewSuite() left a component nil")
	}
	if s.Throttle != nil {
		t.Error("Throttle should be nil when not configured")
	}
	if s.Metrics() == nil {
		t.Error("Metrics() should not be nil")
	}
}

func TestNewSuite_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lockout.Threshold = -1

	if _, err := NewSuite(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewSuite() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewSuite_WeakCredentialParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credential = credential.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 4, KeyLength: 32}

	if _, err := NewSuite(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewSuite() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewSuite_ThrottleEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Throttle.Rate = 50

	s := newTestSuite(t, cfg)
	if s.Throttle == nil {
		t.Fatal("Throttle should be constructed when Rate > 0")
	}
	if !s.AllowRequest(context.Background(), "client") {
		t.Error("AllowRequest() first call should be allowed")
	}
}

func TestSuite_AllowRequest_DisabledThrottle(t *testing.T) {
	s := newTestSuite(t, testConfig())

	for i := 0; i < 100; i++ {
		if !s.AllowRequest(context.Background(), "client") {
			t.Fatal("AllowRequest() must always allow with the throttle disabled")
		}
	}
}

func TestSuite_CheckRateLimit(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	s := newTestSuite(t, cfg)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		allowed, remaining := s.CheckRateLimit(ctx, "login", "203.0.113.7", 5, time.Minute)
		if !allowed {
			t.Errorf("call %d should be allowed", i)
		}
		if want := 5 - i; remaining != want {
			t.Errorf("call %d remaining = %d, want %d", i, remaining, want)
		}
	}

	allowed, remaining := s.CheckRateLimit(ctx, "login", "203.0.113.7", 5, time.Minute)
	if allowed || remaining != 0 {
		t.Errorf("6th call = (%v, %d), want (false, 0)", allowed, remaining)
	}

	// The rejection must hit the audit log.
	if !strings.Contains(buf.String(), "rate_limit_exceeded") {
		t.Errorf("audit log missing rate_limit_exceeded event: %s", buf.String())
	}
}

func TestSuite_VerifyCredential_Success(t *testing.T) {
	s := newTestSuite(t, testConfig())
	ctx := context.Background()

	stored, err := s.HashCredential(ctx, "correct-password")
	if err != nil {
		t.Fatalf("HashCredential() error = %v", err)
	}

	ok, rehash := s.VerifyCredential(ctx, "user@example.com", "correct-password", stored)
	if !ok {
		t.Error("VerifyCredential() ok = false, want true")
	}
	if rehash {
		t.Error("needsRehash = true for a fresh hash, want false")
	}
}

func TestSuite_VerifyCredential_LegacyMigration(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	s := newTestSuite(t, cfg)
	ctx := context.Background()

	legacy := credential.LegacyDigest("old-password")

	ok, rehash := s.VerifyCredential(ctx, "user@example.com", "old-password", legacy)
	if !ok {
		t.Error("VerifyCredential() ok = false for valid legacy credential, want true")
	}
	if !rehash {
		t.Error("needsRehash = false for legacy credential, want true")
	}
	if !strings.Contains(buf.String(), "credential_rehash_needed") {
		t.Errorf("audit log missing rehash event: %s", buf.String())
	}
}

func TestSuite_VerifyCredential_LockoutFlow(t *testing.T) {
	cfg := testConfig()
	cfg.Lockout.Threshold = 3
	cfg.Lockout.Window = time.Minute

	s := newTestSuite(t, cfg)
	ctx := context.Background()

	stored, err := s.HashCredential(ctx, "right")
	if err != nil {
		t.Fatalf("HashCredential() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if ok, _ := s.VerifyCredential(ctx, "victim@example.com", "wrong", stored); ok {
			t.Fatal("VerifyCredential() ok = true for wrong password")
		}
	}

	// Blocked now: even the correct password is rejected without a hash run.
	if ok, _ := s.VerifyCredential(ctx, "victim@example.com", "right", stored); ok {
		t.Error("VerifyCredential() ok = true for blocked identity, want false")
	}
	if !s.Lockout.IsBlocked("victim@example.com") {
		t.Error("IsBlocked() = false after threshold failures, want true")
	}

	// Other identities are unaffected.
	if ok, _ := s.VerifyCredential(ctx, "other@example.com", "right", stored); !ok {
		t.Error("VerifyCredential() ok = false for unaffected identity, want true")
	}
}

func TestSuite_VerifyCredential_SuccessResetsStreak(t *testing.T) {
	cfg := testConfig()
	cfg.Lockout.Threshold = 3

	s := newTestSuite(t, cfg)
	ctx := context.Background()

	stored, err := s.HashCredential(ctx, "right")
	if err != nil {
		t.Fatalf("HashCredential() error = %v", err)
	}

	s.VerifyCredential(ctx, "user@example.com", "wrong", stored)
	s.VerifyCredential(ctx, "user@example.com", "wrong", stored)
	if ok, _ := s.VerifyCredential(ctx, "user@example.com", "right", stored); !ok {
		t.Fatal("correct password below threshold should verify")
	}

	if got := s.Lockout.Failures("user@example.com"); got != 0 {
		t.Errorf("Failures() = %d after successful login, want 0", got)
	}
}

func TestSuite_VerifyCSRF(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	s := newTestSuite(t, cfg)
	ctx := context.Background()

	token := "a1b2c3"
	if !s.VerifyCSRF(ctx, "/companies/42", "203.0.113.7", token, token) {
		t.Error("VerifyCSRF() = false for matching tokens, want true")
	}
	if s.VerifyCSRF(ctx, "/companies/42", "203.0.113.7", "forged", token) {
		t.Error("VerifyCSRF() = true for mismatched tokens, want false")
	}
	if !strings.Contains(buf.String(), "csrf_rejected") {
		t.Errorf("audit log missing csrf_rejected event: %s", buf.String())
	}
}

func TestSuite_Stop_Idempotent(t *testing.T) {
	s, err := NewSuite(testConfig())
	if err != nil {
		t.Fatalf("NewSuite() error = %v", err)
	}
	s.Stop()
	s.Stop() // must not panic
}
