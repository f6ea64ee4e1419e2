package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "sportfengur-relay",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestUptraceDisabledReason(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{name: "flag off", cfg: config.Config{UptraceDSN: "https://token@api.uptrace.dev/1"}, want: "UPTRACE_ENABLED=false"},
		{name: "blank dsn", cfg: config.Config{UptraceEnabled: true, UptraceDSN: "  "}, want: "UPTRACE_DSN empty"},
		{name: "enabled", cfg: config.Config{UptraceEnabled: true, UptraceDSN: "https://token@api.uptrace.dev/1"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uptraceDisabledReason(tt.cfg))
		})
	}
}

func TestRelayResourceAttributes(t *testing.T) {
	attrs := relayResourceAttributes(config.Config{SportFengurBaseURL: "https://sportfengur.com/api/v1"})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("relay.vendor", "sportfengur"),
		attribute.String("relay.vendor.host", "sportfengur.com"),
	}, attrs)

	attrs = relayResourceAttributes(config.Config{})
	assert.Equal(t, []attribute.KeyValue{attribute.String("relay.vendor", "sportfengur")}, attrs)
}

func TestInitPyroscopeAndPprof_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, stop())

	srv, err := StartPprofServer(config.Config{}, logging.NewNop())
	require.NoError(t, err)
	require.Nil(t, srv)
	require.NoError(t, StopPprofServer(srv, nil, 0))
}
