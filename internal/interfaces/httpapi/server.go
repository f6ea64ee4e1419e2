package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
)

type RouterConfig struct {
	Logger                *logging.Logger
	Metrics               *metrics.Recorder
	MetricsEnabled        bool
	CORSAllowedOrigins    []string
	WebhookSecret         string
	WebhookSecretRequired bool
	ControlToken          string
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsEnabled)
	registerWebhookRoutes(mux, handler, cfg.WebhookSecret, cfg.WebhookSecretRequired)
	registerLeaderboardRoutes(mux, handler)
	registerCatalogRoutes(mux, handler)
	registerControlRoutes(mux, handler, cfg.ControlToken)

	return RequestTracing(RequestLogging(logger, RequestMetrics(cfg.Metrics, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, captureRoute(mux))))))
}

var errPanicRecovered = errors.New("panic recovered")

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", fmt.Sprint(rec), "path", r.URL.Path)
				writeError(ctx, w, errPanicRecovered)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
