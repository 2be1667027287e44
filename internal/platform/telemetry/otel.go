// Package telemetry provides OpenTelemetry tracing for record edits.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies tracers created by this module.
const InstrumentationName = "github.com/jsamuelsen/certrecord"

const shutdownTimeout = 5 * time.Second

// Config holds telemetry configuration.
type Config struct {
	Enabled      bool
	Endpoint     string
	ServiceName  string
	Version      string
	Environment  string
	SamplingRate float64
}

// Provider holds the tracer provider and provides a Shutdown method.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
}

// New configures an OTLP/gRPC trace pipeline and installs it globally.
// Returns a noop provider if telemetry is disabled.
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	return newProvider(cfg, exporter, true)
}

// NewWithExporter builds a provider that exports each span synchronously
// when it ends, and installs it globally. Intended for in-memory exporters.
func NewWithExporter(cfg *Config, exporter sdktrace.SpanExporter) (*Provider, error) {
	return newProvider(cfg, exporter, false)
}

// newProvider batches exports when batch is set; the OTLP exporter must not
// block span ends on a network round trip.
func newProvider(cfg *Config, exporter sdktrace.SpanExporter, batch bool) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	export := sdktrace.WithSyncer(exporter)
	if batch {
		export = sdktrace.WithBatcher(exporter)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		export,
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
	)
	otel.SetTracerProvider(tracerProvider)

	return &Provider{tracerProvider: tracerProvider}, nil
}

// Tracer returns a tracer from the provider, or from the global provider
// when telemetry is disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracerProvider == nil {
		return otel.Tracer(InstrumentationName)
	}
	return p.tracerProvider.Tracer(InstrumentationName)
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil // Noop provider
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.tracerProvider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down tracer provider: %w", err)
	}

	return nil
}
