// Package observability configures OpenTelemetry tracing for the relay:
// an OTLP/gRPC exporter, a service resource, and a parent-based ratio
// sampler. Spans cover the HTTP layer (otelgin), the service layer, and GORM
// (via the gorm otel plugin), so one trace follows a pull request from
// transport to SQL.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tavolo/pos-relay/internal/config"
)

// Seams for tests: swap exporter/resource construction without a collector.
var (
	otlpClientFn    = otlptracegrpc.NewClient
	traceExporterFn = otlptrace.New
	relayResourceFn = relayResource
)

// relayResource describes this process to the trace backend.
func relayResource(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
	return resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
}

// buildExporter constructs the OTLP/gRPC span exporter. Connection setup is
// lazy, so this succeeds even when the collector is unreachable.
func buildExporter(ctx context.Context, cfg config.OTELConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(
			credentials.NewClientTLSFromCert(nil, "")))
	}
	return traceExporterFn(ctx, otlpClientFn(opts...))
}

// SetupOTel installs the global tracer provider and propagators and returns
// the provider's shutdown function. With tracing disabled it installs nothing
// and returns a no-op shutdown, so main never needs to branch.
//
// Globals are only touched after every fallible step has succeeded; a failed
// setup leaves the previous provider and propagator in place.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := relayResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}
