package instrumentation

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultServiceName is used when the embedding application provides
	// no service name.
	DefaultServiceName = "websec"

	// DefaultServiceVersion is used when no version is provided.
	DefaultServiceVersion = "unknown"
)

// Config holds instrumentation configuration.
type Config struct {
	// ServiceName identifies the embedding service in exported telemetry.
	ServiceName string

	// ServiceVersion is the version of the embedding service.
	ServiceVersion string

	// Enabled controls whether instrumentation is active. When false,
	// no-op providers are used and recording has zero overhead.
	Enabled bool

	// Resource allows custom resource attributes. If nil, a default
	// resource is created from ServiceName and ServiceVersion.
	Resource *resource.Resource
}

// Instrumentation provides OpenTelemetry components for the security core.
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	metrics *Metrics

	shutdownFuncs []func(context.Context) error
	shutdownOnce  sync.Once
}

// New creates an Instrumentation instance. With Enabled false the instance
// is fully functional but records nothing.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	res := config.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	// Providers are no-op either way for now; exporters (Prometheus, OTLP)
	// are wired by the embedding application through the global otel
	// providers and can be added here compatibly later.
	inst.meterProvider = noop.NewMeterProvider()
	inst.tracerProvider = tracenoop.NewTracerProvider()

	var err error
	inst.metrics, err = newMetrics(inst)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return inst, nil
}

// Meter returns a named meter for the given scope (e.g. "credential",
// "ratelimit", "csrf", "validate").
func (i *Instrumentation) Meter(scope string) metric.Meter {
	return i.meterProvider.Meter("github.com/bookwell/websec/" + scope)
}

// Tracer returns a named tracer for the given scope.
func (i *Instrumentation) Tracer(scope string) trace.Tracer {
	return i.tracerProvider.Tracer("github.com/bookwell/websec/" + scope)
}

// Metrics returns the pre-configured metric instruments.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// MeterProvider returns the underlying meter provider.
func (i *Instrumentation) MeterProvider() metric.MeterProvider {
	return i.meterProvider
}

// TracerProvider returns the underlying tracer provider.
func (i *Instrumentation) TracerProvider() trace.TracerProvider {
	return i.tracerProvider
}

// Shutdown flushes and stops all registered providers. Safe to call more
// than once.
func (i *Instrumentation) Shutdown(ctx context.Context) error {
	var shutdownErr error

	i.shutdownOnce.Do(func() {
		for _, fn := range i.shutdownFuncs {
			if err := fn(ctx); err != nil && shutdownErr == nil {
				shutdownErr = err
			}
		}
	})

	return shutdownErr
}
