package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

func newRecordingTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider.Tracer("test"), recorder
}

func TestStartSpan_UntracedCallStaysUntraced(t *testing.T) {
	t.Parallel()

	tracer, recorder := newRecordingTracer(t)
	ctx := context.Background()

	got, span := startSpan(ctx, tracer, "usecase.CompetitionResolver.Resolve", false, nil)
	span.End()

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, recorder.Ended())
}

func TestStartSpan_RefreshCycleStartsRootWithKey(t *testing.T) {
	t.Parallel()

	tracer, recorder := newRecordingTracer(t)
	key := competition.Key{EventID: 999, ClassID: 12, CompetitionID: competition.AFinal}

	_, span := startSpan(context.Background(), tracer, "usecase.RefreshPipeline.Run", true, keyAttributes(key))
	endSpan(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "usecase.RefreshPipeline.Run", ended[0].Name())
	assert.False(t, ended[0].Parent().IsValid())
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.Int64("sportfengur.event_id", 999),
		attribute.Int64("sportfengur.class_id", 12),
		attribute.String("sportfengur.competition", "a"),
	}, ended[0].Attributes())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestStartSpan_ChildOfWebhookRequestRecordsFailure(t *testing.T) {
	t.Parallel()

	tracer, recorder := newRecordingTracer(t)
	ctx, parent := tracer.Start(context.Background(), "POST /event_einkunn_saeti")

	_, child := startSpan(ctx, tracer, "usecase.LeaderboardFetcher.FetchLeaderboard", false,
		keyAttributes(competition.Key{ClassID: 12, CompetitionID: competition.Preliminary}))
	endSpan(child, errors.New("fetch results: vendor unavailable"))
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	got := ended[0]
	assert.Equal(t, parent.SpanContext().SpanID(), got.Parent().SpanID())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "fetch results: vendor unavailable", got.Status().Description)
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.Int64("sportfengur.class_id", 12),
		attribute.String("sportfengur.competition", "forkeppni"),
	}, got.Attributes())
}

func TestKeyAttributes_SkipsUnknownParts(t *testing.T) {
	t.Parallel()

	assert.Empty(t, keyAttributes(competition.Key{}))
	assert.Equal(t,
		[]attribute.KeyValue{attribute.Int64("sportfengur.event_id", 5)},
		keyAttributes(competition.Key{EventID: 5}),
	)
}
