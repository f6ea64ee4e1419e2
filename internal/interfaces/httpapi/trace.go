package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("sportfengur-relay/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// Filtered routes (/health, /metrics) carry no parent span.
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

// requestSpanName replaces numeric path segments (event, class and competition
// ids) with {id} so feed requests group under one span name per route shape.
func requestSpanName(method, path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment != "" && isDigits(segment) {
			segments[i] = "{id}"
		}
	}
	return method + " " + strings.Join(segments, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
