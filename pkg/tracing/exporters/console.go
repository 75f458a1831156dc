package exporters

import (
	"context"
	"encoding/json"
	"os"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ConsoleExporter writes one JSON line per finished span to stdout. Used when
// no OTLP collector is configured, mainly local development.
type ConsoleExporter struct{}

type consoleSpan struct {
	TraceID  string        `json:"trace_id"`
	SpanID   string        `json:"span_id"`
	ParentID string        `json:"parent_id,omitempty"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Status   string        `json:"status,omitempty"`
}

func (c *ConsoleExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	enc := json.NewEncoder(os.Stdout)
	for _, span := range spans {
		out := consoleSpan{
			TraceID:  span.SpanContext().TraceID().String(),
			SpanID:   span.SpanContext().SpanID().String(),
			Name:     span.Name(),
			Duration: span.EndTime().Sub(span.StartTime()),
		}
		if span.Parent().IsValid() {
			out.ParentID = span.Parent().SpanID().String()
		}
		if desc := span.Status().Description; desc != "" {
			out.Status = desc
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleExporter) Shutdown(ctx context.Context) error {
	return nil
}
