package httpapi

import (
	"net/http"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsEnabled bool) {
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /healthz", handler.Health)
	if metricsEnabled {
		mux.Handle("GET /metrics", handler.MetricsHandler())
	}
}

func registerWebhookRoutes(mux *http.ServeMux, handler *Handler, secret string, required bool) {
	for _, def := range webhook.Definitions() {
		mux.Handle("POST /"+string(def.Event), RequireWebhookSecret(secret, required, handler.ReceiveWebhook(def.Event)))
	}
	mux.Handle("POST /webhooks/test", RequireWebhookSecret(secret, required, http.HandlerFunc(handler.TestWebhook)))
}

// The feed paths overlap too much for distinct wildcard patterns to coexist
// in one ServeMux, so one route per depth dispatches on the segments. Literal
// routes still take precedence over these.
func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /current", handler.CurrentLeaderboard)
	mux.HandleFunc("GET /current/{eventID}", handler.CurrentLeaderboard)
	mux.HandleFunc("GET /leaderboard.csv", handler.LeaderboardCSV)
	mux.HandleFunc("GET /{first}", handler.LeaderboardFeed)
	mux.HandleFunc("GET /{first}/{second}", handler.LeaderboardFeed)
	mux.HandleFunc("GET /{first}/{second}/{third}", handler.LeaderboardFeed)
}

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /events/search", handler.SearchEvents)
	mux.HandleFunc("GET /event/{eventID}/participants", handler.EventParticipants)
	mux.HandleFunc("GET /event/{eventID}/tests", handler.EventTests)
}

func registerControlRoutes(mux *http.ServeMux, handler *Handler, controlToken string) {
	mux.Handle("GET /config/event-filter", RequireControlToken(controlToken, http.HandlerFunc(handler.GetEventFilter)))
	mux.Handle("POST /config/event-filter", RequireControlToken(controlToken, http.HandlerFunc(handler.SetEventFilter)))
	mux.Handle("GET /control/webhooks", RequireControlToken(controlToken, http.HandlerFunc(handler.ListWebhookHistory)))
	mux.Handle("POST /cache/raslisti/clear", RequireControlToken(controlToken, http.HandlerFunc(handler.ClearStartingListCache)))
}
