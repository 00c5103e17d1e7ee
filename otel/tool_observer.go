package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/n8nmcp/tool"
)

// Outcome values of the mcp.tool.outcome attribute.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeN8NError = "n8n_error"
	OutcomeInternal = "internal_error"
)

// outcomeOf folds a tool error code into a low-cardinality outcome. Rejected
// calls never reached n8n.
func outcomeOf(observation tool.ToolInvokeObservation) string {
	if observation.Success {
		return OutcomeOK
	}
	switch observation.ErrorCode {
	case tool.ToolErrorCodeInvalidArguments, tool.ToolErrorCodeUnknownTool:
		return OutcomeRejected
	case tool.ToolErrorCodeN8NAPIError:
		return OutcomeN8NError
	default:
		return OutcomeInternal
	}
}

// ToolObserver turns tool.ToolInvokeObservation events into a
// "tools/call <name>" span plus call and n8n-failure metrics.
type ToolObserver struct {
	tracer trace.Tracer
	now    func() time.Time

	calls       metric.Int64Counter
	duration    metric.Float64Histogram
	n8nFailures metric.Int64Counter
}

func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	calls, err := meter.Int64Counter(
		"n8nmcp.tool.calls",
		metric.WithDescription("MCP tools/call requests by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"n8nmcp.tool.duration",
		metric.WithDescription("Time from tools/call dispatch to rendered result"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	n8nFailures, err := meter.Int64Counter(
		"n8nmcp.tool.n8n_failures",
		metric.WithDescription("Tool calls that failed on an n8n reply, by HTTP status"),
	)
	if err != nil {
		return nil, err
	}
	return &ToolObserver{
		tracer:      tracer,
		now:         time.Now,
		calls:       calls,
		duration:    duration,
		n8nFailures: n8nFailures,
	}, nil
}

// ObserveInvoke implements tool.Observer.
func (o *ToolObserver) ObserveInvoke(observation tool.ToolInvokeObservation) {
	if o == nil {
		return
	}
	ctx := context.Background()
	outcome := outcomeOf(observation)
	name := attribute.String("mcp.tool.name", observation.ToolName)
	common := metric.WithAttributes(name, attribute.String("mcp.tool.outcome", outcome))

	o.calls.Add(ctx, 1, common)
	o.duration.Record(ctx, seconds(observation.DurationMS), common)
	if outcome == OutcomeN8NError {
		o.n8nFailures.Add(ctx, 1, metric.WithAttributes(name, attribute.Int("n8n.status_code", observation.N8NStatus)))
	}

	if o.tracer == nil {
		return
	}
	// The observation arrives after the call; backdate the span to cover it.
	end := o.now()
	start := end.Add(-time.Duration(observation.DurationMS) * time.Millisecond)
	_, span := o.tracer.Start(ctx, "tools/call "+observation.ToolName,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(name, attribute.String("mcp.tool.outcome", outcome)),
	)
	if outcome == OutcomeOK {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetAttributes(attribute.String("n8nmcp.error_code", observation.ErrorCode))
		if observation.N8NStatus != 0 {
			span.SetAttributes(attribute.Int("n8n.status_code", observation.N8NStatus))
		}
		span.SetStatus(codes.Error, observation.ErrorCode)
	}
	span.End(trace.WithTimestamp(end))
}

func seconds(ms int64) float64 {
	return time.Duration(ms * int64(time.Millisecond)).Seconds()
}

var _ tool.Observer = (*ToolObserver)(nil)
