package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tavolo/pos-relay/internal/config"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabledConfig(service string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: service,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	preserveGlobals(t)
	prevTP := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "dev")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup must not touch the global provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
}

func TestSetupOTel_InstallsProviderAndPropagator(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabledConfig("relay-test"), "v1.2.3")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
	}

	// Trace context survives an inject/extract round trip.
	ctx, span := otel.Tracer("test").Start(context.Background(), "pull-orders")
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	span.End()
	if len(carrier) == 0 {
		t.Fatalf("propagator injected nothing")
	}
	_ = otel.GetTextMapPropagator().Extract(context.Background(), carrier)
}

func TestSetupOTel_TLSBranch(t *testing.T) {
	preserveGlobals(t)

	cfg := enabledConfig("relay-tls")
	cfg.Insecure = false

	shutdown, err := SetupOTel(context.Background(), cfg, "v1")
	if err != nil {
		t.Fatalf("SetupOTel with TLS creds: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetupOTel_ExporterFailureLeavesGlobalsIntact(t *testing.T) {
	preserveGlobals(t)

	orig := traceExporterFn
	t.Cleanup(func() { traceExporterFn = orig })
	traceExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("collector unreachable")
	}

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	if _, err := SetupOTel(context.Background(), enabledConfig("relay-broken"), "v1"); err == nil {
		t.Fatalf("expected exporter error")
	}
	if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("failed setup must not replace globals")
	}
}

func TestSetupOTel_ResourceFailureLeavesGlobalsIntact(t *testing.T) {
	preserveGlobals(t)

	orig := relayResourceFn
	t.Cleanup(func() { relayResourceFn = orig })
	relayResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, errors.New("bad resource")
	}

	prevTP := otel.GetTracerProvider()

	if _, err := SetupOTel(context.Background(), enabledConfig("relay-broken"), "v1"); err == nil {
		t.Fatalf("expected resource error")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("failed setup must not replace the provider")
	}
}

func TestSetupOTel_ShutdownCompletes(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabledConfig("relay-shutdown"), "v1")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}

	// Exporter connects lazily; shutdown with no spans must return promptly.
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
