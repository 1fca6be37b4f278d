package queue

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// traceIDFromContext extracts the active trace ID so it can ride along
// with the job across the process boundary.
func traceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}
