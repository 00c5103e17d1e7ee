// Package otel provides OpenTelemetry integration for n8nmcp tool calls and
// n8n API requests.
package otel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/petal-labs/n8nmcp"

// SetupConfig configures Setup.
type SetupConfig struct {
	// OTLPEndpoint is the OTLP/HTTP collector URL. Tracing stays disabled
	// when empty.
	OTLPEndpoint string
	ServiceName  string
	Version      string
}

// Telemetry holds the tracer and observers wired into the server.
type Telemetry struct {
	Tracer          trace.Tracer
	ToolObserver    *ToolObserver
	RequestObserver *RequestMetrics

	shutdown func(context.Context) error
}

// Shutdown flushes and stops the exporter, if one was started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// Setup builds the tracer provider and observers. Metrics use the global
// meter provider, which is a no-op unless the embedding process installs one.
func Setup(ctx context.Context, cfg SetupConfig) (*Telemetry, error) {
	telemetry := &Telemetry{}

	var tp trace.TracerProvider = noop.NewTracerProvider()
	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		traceURL, err := tracesURL(endpoint)
		if err != nil {
			return nil, err
		}
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(traceURL))
		if err != nil {
			return nil, fmt.Errorf("otel: create OTLP exporter: %w", err)
		}

		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = "n8nmcp"
		}
		res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", cfg.Version),
		))
		if err != nil {
			return nil, fmt.Errorf("otel: build resource: %w", err)
		}

		sdkProvider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otelapi.SetTracerProvider(sdkProvider)
		otelapi.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		telemetry.shutdown = sdkProvider.Shutdown
		tp = sdkProvider
	}

	telemetry.Tracer = tp.Tracer(instrumentationName)

	meter := otelapi.GetMeterProvider().Meter(instrumentationName)
	toolObserver, err := NewToolObserver(meter, telemetry.Tracer)
	if err != nil {
		return nil, fmt.Errorf("otel: tool observer: %w", err)
	}
	requestMetrics, err := NewRequestMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("otel: request metrics: %w", err)
	}
	telemetry.ToolObserver = toolObserver
	telemetry.RequestObserver = requestMetrics
	return telemetry, nil
}

// tracesURL appends the OTLP traces path when endpoint is a bare collector
// address.
func tracesURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("otel: invalid OTLP endpoint %q", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/v1/traces"
	}
	return u.String(), nil
}
