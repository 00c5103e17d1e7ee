package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/n8nmcp/n8n"
)

// RequestMetrics records n8n API round trips as OpenTelemetry metrics.
type RequestMetrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRequestMetrics creates the n8n request instruments on meter.
func NewRequestMetrics(meter metric.Meter) (*RequestMetrics, error) {
	requests, err := meter.Int64Counter("n8nmcp.n8n.requests",
		metric.WithDescription("Number of n8n API requests"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("n8nmcp.n8n.failures",
		metric.WithDescription("Number of failed n8n API requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("n8nmcp.n8n.request.duration",
		metric.WithDescription("Duration of n8n API requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RequestMetrics{
		requests: requests,
		failures: failures,
		duration: duration,
	}, nil
}

// ObserveRequest implements n8n.RequestObserver.
func (m *RequestMetrics) ObserveRequest(observation n8n.RequestObservation) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", observation.Operation),
		attribute.String("method", observation.Method),
		attribute.Int("status_code", observation.StatusCode),
	)

	ctx := context.Background()
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, seconds(observation.DurationMS), attrs)
	if !observation.Success {
		m.failures.Add(ctx, 1, attrs)
	}
}

var _ n8n.RequestObserver = (*RequestMetrics)(nil)
