package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the pulsegraph tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("pulsegraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
//
// Presses are not traced individually; a run can press millions of times.
type SpanManager interface {
	// StartRunSpan starts a span for an entire simulation run.
	StartRunSpan(ctx context.Context, mode, runID string) (context.Context, trace.Span)

	// StartScanSpan starts a span for a feeder period scan.
	// The scan span should be a child of the run span.
	StartScanSpan(ctx context.Context, target string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRunSpan starts a span for an entire simulation run.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, mode, runID string) (context.Context, trace.Span) {
	return StartRunSpan(ctx, mode, runID)
}

// StartScanSpan starts a span for a feeder period scan.
func (m *otelSpanManager) StartScanSpan(ctx context.Context, target string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulsegraph.scan",
		trace.WithAttributes(
			attribute.String("scan.target", target),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartRunSpan starts a span for an entire simulation run.
// Uses the global OTel tracer.
func StartRunSpan(ctx context.Context, mode, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pulsegraph.run",
		trace.WithAttributes(
			attribute.String("run.mode", mode),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
