package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestSkipMirroredLog(t *testing.T) {
	assert.True(t, skipMirroredLog("http request", []any{"method", "GET", "path", "/healthz"}))
	assert.True(t, skipMirroredLog("http request", []any{"path", "/metrics"}))
	assert.False(t, skipMirroredLog("http request", []any{"path", "/forkeppni"}))
	assert.False(t, skipMirroredLog("refresh cycle finished", []any{"path", "/healthz"}))
}

func TestLogAttributes(t *testing.T) {
	attrs := logAttributes([]any{"class_id", int64(789), "took", 1500 * time.Millisecond, "error", errors.New("timeout"), "dangling"})
	require.Len(t, attrs, 4)

	assert.Equal(t, "class_id", attrs[0].Key)
	assert.Equal(t, int64(789), attrs[0].Value.AsInt64())
	assert.Equal(t, "1.5s", attrs[1].Value.AsString())
	assert.Equal(t, "timeout", attrs[2].Value.AsString())
	assert.Equal(t, otellog.KindEmpty, attrs[3].Value.Kind())
}

func TestToOTelSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, toOTelSeverity(zapcore.DebugLevel))
	assert.Equal(t, otellog.SeverityWarn, toOTelSeverity(zapcore.WarnLevel))
	assert.Equal(t, otellog.SeverityError, toOTelSeverity(zapcore.ErrorLevel))
}
