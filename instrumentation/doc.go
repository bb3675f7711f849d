// Package instrumentation provides OpenTelemetry (OTEL) metrics and tracing
// for the websec security core.
//
// All instruments are created up front and exposed through the Metrics
// holder, so recording a security event is one method call at the call
// site. When Config.Enabled is false, no-op providers back every
// instrument and recording costs nothing, which lets the embedding
// application wire instrumentation unconditionally.
//
// Example:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName:    "booking-backend",
//	    ServiceVersion: "1.4.2",
//	    Enabled:        true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	inst.Metrics().RecordAuthFailure(ctx, "wrong_password")
//
// No attribute ever carries a credential, token, or raw identity; see the
// attribute-key documentation in tracing.go.
package instrumentation
