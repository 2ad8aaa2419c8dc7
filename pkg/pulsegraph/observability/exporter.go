package observability

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter writes finished spans to a slog logger.
type logExporter struct {
	logger *slog.Logger
}

// NewLogExporter returns a span exporter that logs one Info record per
// finished span. It lets the command emit spans without a collector:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithSyncer(observability.NewLogExporter(logger)))
//	otel.SetTracerProvider(tp)
func NewLogExporter(logger *slog.Logger) sdktrace.SpanExporter {
	return &logExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attrs := []slog.Attr{
			slog.String("span", span.Name()),
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
			slog.Float64("duration_ms", float64(span.EndTime().Sub(span.StartTime()).Microseconds())/1000),
			slog.String("status", span.Status().Code.String()),
		}
		if parent := span.Parent(); parent.IsValid() {
			attrs = append(attrs, slog.String("parent_id", parent.SpanID().String()))
		}
		for _, kv := range span.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		for _, event := range span.Events() {
			attrs = append(attrs, slog.String("event", event.Name))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "span finished", attrs...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
