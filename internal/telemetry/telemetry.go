// Package telemetry wires the tracer every other package reaches for via
// its own package-level otel.Tracer(...) call (resolver, merkle, sync) to a
// real exporter. Until Init is called, otel's global provider is the
// built-in no-op, so every span those packages record is simply discarded.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Shutdown flushes and releases whatever Init set up. Callers should defer
// it for the lifetime of the process.
type Shutdown func(ctx context.Context) error

// Init installs a trace provider that writes spans as JSON to w, and
// registers it as otel's global provider. Passing a nil w is the common
// case for tests and short-lived CLI invocations: spans are still recorded
// and exported, just to io.Discard.
func Init(serviceName string, w io.Writer) (Shutdown, error) {
	if w == nil {
		w = io.Discard
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		return provider.Shutdown(ctx)
	}, nil
}
