package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"

	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

const uptraceLogInstrumentation = "sportfengur-relay/internal/platform/logging"

// Poll traffic from graphics clients and probes would drown the useful entries.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/healthz": {},
	"/metrics": {},
}

func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	otelLogger := otelglobal.Logger(
		uptraceLogInstrumentation,
		otellog.WithInstrumentationVersion(serviceVersion),
	)

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if skipMirroredLog(msg, args) {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}

		severity := toOTelSeverity(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		now := time.Now().UTC()
		var record otellog.Record
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(strings.ToUpper(level.String()))
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		if attrs := logAttributes(args); len(attrs) > 0 {
			record.AddAttributes(attrs...)
		}

		otelLogger.Emit(ctx, record)
	}
}

func skipMirroredLog(msg string, args []any) bool {
	if msg != "http request" {
		return false
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); !ok || key != "path" {
			continue
		}
		path, _ := args[i+1].(string)
		_, quiet := quietPaths[path]
		return quiet
	}
	return false
}

// logAttributes converts logger key/value pairs. Values arrive already
// redacted, so anything structured is flattened with fmt.
func logAttributes(args []any) []otellog.KeyValue {
	if len(args) == 0 {
		return nil
	}

	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprintf("arg_%d", i/2)
		if k, ok := args[i].(string); ok && strings.TrimSpace(k) != "" {
			key = k
		}
		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: logValue(args[i+1])})
	}
	return attrs
}

func logValue(value any) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	default:
		return otellog.StringValue(fmt.Sprint(v))
	}
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level <= zapcore.DebugLevel:
		return otellog.SeverityDebug
	case level == zapcore.InfoLevel:
		return otellog.SeverityInfo
	case level == zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityError
	}
}
