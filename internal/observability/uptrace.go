package observability

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/sportfengur-relay/internal/config"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
)

// InitUptrace exports relay traces (and optionally logs) to Uptrace. Metrics
// stay on the Prometheus endpoint, so the OTel metric pipeline is not started.
// The returned func flushes pending spans and must run before exit.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if reason := uptraceDisabledReason(cfg); reason != "" {
		logging.SetMirror(nil)
		logger.Info("uptrace disabled", "reason", reason)
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(uptraceOptions(cfg)...)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	} else {
		logging.SetMirror(nil)
	}

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
		"vendor_host", vendorHost(cfg.SportFengurBaseURL),
		"logs_enabled", cfg.UptraceLogsEnabled,
	)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return errors.Join(uptrace.ForceFlush(ctx), uptrace.Shutdown(ctx))
	}, nil
}

func uptraceDisabledReason(cfg config.Config) string {
	switch {
	case !cfg.UptraceEnabled:
		return "UPTRACE_ENABLED=false"
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		return "UPTRACE_DSN empty"
	default:
		return ""
	}
}

func uptraceOptions(cfg config.Config) []uptrace.Option {
	return []uptrace.Option{
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(relayResourceAttributes(cfg)...),
		uptrace.WithMetricsDisabled(),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	}
}

// relayResourceAttributes tags every span with the vendor it relays from.
func relayResourceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("relay.vendor", "sportfengur"),
	}
	if host := vendorHost(cfg.SportFengurBaseURL); host != "" {
		attrs = append(attrs, attribute.String("relay.vendor.host", host))
	}
	return attrs
}

func vendorHost(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return ""
	}
	return u.Host
}
