// Package tracing wraps the process-wide OpenTelemetry tracer so callers can
// start spans without holding a tracer reference. Until SetTracer is called,
// StartSpan is a no-op passthrough, which keeps tests quiet.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the tracer used by StartSpan. Called once at startup.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span under the active one in ctx. End the returned span.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// GetTraceID returns the active trace ID, "" when nothing is recording.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the active span ID, "" when nothing is recording.
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
