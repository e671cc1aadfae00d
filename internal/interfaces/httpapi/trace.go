package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("matchboard/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// Envelope writers and middleware run inside these spans and do not get
// their own.
var spanPrefixes = []string{"httpapi.Handler.", "httpapi.boardToDTO"}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		// untraced route such as /healthz or /metrics
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	for _, prefix := range spanPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
