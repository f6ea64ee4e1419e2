package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/logging"
	"github.com/riskibarqy/sportfengur-relay/internal/platform/metrics"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

type Handler struct {
	leaderboardService *usecase.LeaderboardQueryService
	webhookService     *usecase.WebhookService
	catalogService     *usecase.EventCatalogService
	startingLists      leaderboard.StartingListRepository
	refreshes          *usecase.RefreshCoordinator
	metrics            *metrics.Recorder
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	leaderboardService *usecase.LeaderboardQueryService,
	webhookService *usecase.WebhookService,
	catalogService *usecase.EventCatalogService,
	startingLists leaderboard.StartingListRepository,
	refreshes *usecase.RefreshCoordinator,
	recorder *metrics.Recorder,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leaderboardService: leaderboardService,
		webhookService:     webhookService,
		catalogService:     catalogService,
		startingLists:      startingLists,
		refreshes:          refreshes,
		metrics:            recorder,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) MetricsHandler() http.Handler {
	if h.metrics == nil {
		return http.NotFoundHandler()
	}
	return h.metrics.Handler()
}

type eventFilterInput struct {
	EventID string `validate:"omitempty,numeric"`
}

type eventFilterResponse struct {
	EventIDFilter *int64 `json:"eventIdFilter"`
}

type healthResponse struct {
	Status                 string              `json:"status"`
	LastWebhookAt          *string             `json:"lastWebhookAt"`
	LastWebhookProcessedAt *string             `json:"lastWebhookProcessedAt"`
	LastError              *string             `json:"lastError"`
	LastErrorAt            *string             `json:"lastErrorAt,omitempty"`
	Refreshes              []refreshStatusItem `json:"refreshes"`
}

type refreshStatusItem struct {
	CompetitionID int64   `json:"competitionId"`
	Competition   string  `json:"competition"`
	State         string  `json:"state"`
	LastRunAt     *string `json:"lastRunAt"`
	LastEventID   int64   `json:"lastEventId,omitempty"`
	LastClassID   int64   `json:"lastClassId,omitempty"`
	LastError     *string `json:"lastError"`
}

type webhookHistoryItem struct {
	ID            string `json:"id"`
	At            string `json:"at"`
	Event         string `json:"eventName"`
	Status        string `json:"status"`
	EventID       int64  `json:"eventId,omitempty"`
	ClassID       int64  `json:"classId,omitempty"`
	CompetitionID int64  `json:"competitionId,omitempty"`
	Published     string `json:"published,omitempty"`
	Message       string `json:"message,omitempty"`
	DurationMS    int64  `json:"durationMs"`
}

type clearCacheResponse struct {
	Cleared int `json:"cleared"`
}

type currentLeaderboardResponse struct {
	Metadata    *leaderboardMetadata     `json:"metadata"`
	Leaderboard []leaderboard.Contestant `json:"leaderboard"`
}

type leaderboardMetadata struct {
	EventID       int64  `json:"eventId"`
	ClassID       int64  `json:"classId"`
	CompetitionID int64  `json:"competitionId"`
	Competition   string `json:"competition"`
	UpdatedAt     string `json:"updatedAt"`
}
