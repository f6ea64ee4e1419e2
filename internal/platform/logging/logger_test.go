package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(redact bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core))
	logger.redact = redact
	return logger, logs
}

func TestLogger_RedactsStructuredValues(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(true)
	logger.Info("webhook received",
		"event", "event_einkunn_saeti",
		"class_id", int64(789),
		"payload", map[string]any{"eventId": 999},
		"error", errors.New("boom"),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "event_einkunn_saeti", fields["event"])
	assert.Equal(t, int64(789), fields["class_id"])
	assert.Equal(t, redactedValue, fields["payload"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogger_DebugKeepsStructuredValues(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(false)
	logger.With("component", "test").Warn("payload", "payload", map[string]any{"eventId": 999})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, map[string]any{"eventId": 999}, fields["payload"])
}

func TestZapFields_OddArgs(t *testing.T) {
	t.Parallel()

	fields := zapFields([]any{"only"}, true)
	require.Len(t, fields, 1)
	assert.Equal(t, "only", fields[0].Key)
}

func TestSetMirror_ReceivesRedactedArgs(t *testing.T) {
	var got []any
	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		assert.Equal(t, LevelWarn, level)
		assert.Equal(t, "vendor fallback", msg)
		got = args
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger, _ := observedLogger(true)
	logger.WarnContext(context.Background(), "vendor fallback", "path", "/is/startinglist/789/1", "body", []byte("{}"), "error", errors.New("timeout"))

	assert.Equal(t, []any{"path", "/is/startinglist/789/1", "body", redactedValue, "error", "timeout"}, got)
}
