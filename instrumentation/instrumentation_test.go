package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if inst.config.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want %q", inst.config.ServiceName, DefaultServiceName)
	}
	if inst.config.ServiceVersion != DefaultServiceVersion {
		t.Errorf("ServiceVersion = %q, want %q", inst.config.ServiceVersion, DefaultServiceVersion)
	}
	if inst.Metrics() == nil {
		t.Error("Metrics() should not be nil")
	}
	if inst.MeterProvider() == nil {
		t.Error("MeterProvider() should not be nil")
	}
	if inst.TracerProvider() == nil {
		t.Error("TracerProvider() should not be nil")
	}
}

func TestNew_Disabled(t *testing.T) {
	inst, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Recording against no-op providers must be safe.
	ctx := context.Background()
	m := inst.Metrics()
	m.RecordAuthFailure(ctx, "wrong_password")
	m.RecordRateLimitRejected(ctx, "login")
	m.RecordThrottleRejected(ctx)
	m.RecordLockoutTriggered(ctx)
	m.RecordBlockedAttempt(ctx)
	m.RecordCSRFRejected(ctx)
	m.RecordValidationRejected(ctx, "email")
	m.RecordCredentialRehash(ctx, "legacy-sha256")
	m.RecordHashDuration(ctx, 120*time.Millisecond)
	m.RecordVerifyDuration(ctx, 80*time.Millisecond, "argon2id")
}

func TestInstrumentation_Meters(t *testing.T) {
	inst, err := New(Config{ServiceName: "test-service"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if meter := inst.Meter("credential"); meter == nil {
		t.Error("Meter() should not be nil")
	}
	if tracer := inst.Tracer("ratelimit"); tracer == nil {
		t.Error("Tracer() should not be nil")
	}
}

func TestInstrumentation_Shutdown_Idempotent(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := inst.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
