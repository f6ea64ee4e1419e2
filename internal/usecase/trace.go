package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

var usecaseTracer = otel.Tracer("sportfengur-relay/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startUsecaseSpan only extends an existing trace; calls made outside a traced
// request stay untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return startSpan(ctx, usecaseTracer, name, false, attrs)
}

// startCycleSpan traces a refresh cycle. Cycles fire from debounce timers with
// no request behind them, so a new root span is started when there is no parent.
func startCycleSpan(ctx context.Context, name string, key competition.Key) (context.Context, trace.Span) {
	return startSpan(ctx, usecaseTracer, name, true, keyAttributes(key))
}

func startSpan(ctx context.Context, tracer trace.Tracer, name string, root bool, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" {
		return ctx, usecaseNoopSpan
	}
	if !root && !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func keyAttributes(key competition.Key) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if key.EventID > 0 {
		attrs = append(attrs, attribute.Int64("sportfengur.event_id", key.EventID))
	}
	if key.ClassID > 0 {
		attrs = append(attrs, attribute.Int64("sportfengur.class_id", key.ClassID))
	}
	if key.CompetitionID.Valid() {
		attrs = append(attrs, attribute.String("sportfengur.competition", key.CompetitionID.Slug()))
	}
	return attrs
}

// endSpan marks the span failed when err is set, then ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
