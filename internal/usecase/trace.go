package usecase

import (
	"context"

	"github.com/riskibarqy/matchboard/internal/domain/match"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("matchboard/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startUsecaseSpan only opens a span under a traced caller. Console sessions
// and fetch tasks without a parent get a no-op span.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func selectionAttrs(league string, season match.Season) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("match.league", league)}
	if !season.IsZero() {
		attrs = append(attrs, attribute.String("match.season", season.String()))
	}
	return attrs
}
