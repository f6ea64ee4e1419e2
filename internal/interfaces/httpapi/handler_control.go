package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const maxControlBodyBytes = 64 << 10

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	health := h.webhookService.Health()

	resp := healthResponse{
		Status:                 "ok",
		LastWebhookAt:          formatOptionalTime(health.LastWebhookAt),
		LastWebhookProcessedAt: formatOptionalTime(health.LastProcessedAt),
		LastErrorAt:            formatOptionalTime(health.LastErrorAt),
		Refreshes:              h.refreshStatus(),
	}
	if health.LastError != "" {
		lastError := health.LastError
		resp.LastError = &lastError
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *Handler) refreshStatus() []refreshStatusItem {
	items := []refreshStatusItem{}
	if h.refreshes == nil {
		return items
	}
	for _, status := range h.refreshes.Status() {
		item := refreshStatusItem{
			CompetitionID: int64(status.Competition),
			Competition:   status.Competition.Slug(),
			State:         string(status.State),
		}
		if status.HasRun {
			item.LastRunAt = formatOptionalTime(status.LastRun.FinishedAt)
			item.LastEventID = status.LastRun.Request.Key.EventID
			item.LastClassID = status.LastRun.Request.Key.ClassID
			if status.LastRun.Err != nil {
				msg := status.LastRun.Err.Error()
				item.LastError = &msg
			}
		}
		items = append(items, item)
	}
	return items
}

func (h *Handler) GetEventFilter(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEventFilter")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.eventFilterResponse())
}

// SetEventFilter accepts {"eventIdFilter": n} or {"eventId": n}. A null or
// empty value clears the filter.
func (h *Handler) SetEventFilter(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetEventFilter")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxControlBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read body: %v", usecase.ErrInvalidInput, err))
		return
	}
	var req map[string]any
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload", usecase.ErrInvalidInput))
		return
	}

	raw, ok := req["eventIdFilter"]
	if !ok {
		raw, ok = req["eventId"]
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: missing eventIdFilter (or eventId) in request body", usecase.ErrInvalidInput))
		return
	}

	input := eventFilterInput{EventID: filterValueString(raw)}
	if err := h.validateRequest(ctx, input); err != nil {
		writeError(ctx, w, err)
		return
	}

	var eventID int64
	if input.EventID != "" {
		eventID, err = strconv.ParseInt(input.EventID, 10, 64)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: eventIdFilter %q", usecase.ErrInvalidInput, input.EventID))
			return
		}
	}
	if err := h.webhookService.SetEventFilter(ctx, eventID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.eventFilterResponse())
}

func (h *Handler) ListWebhookHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWebhookHistory")
	defer span.End()

	entries := h.webhookService.History()
	items := make([]webhookHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toWebhookHistoryItem(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ClearStartingListCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearStartingListCache")
	defer span.End()

	cleared := h.startingLists.ClearAll(ctx)
	writeSuccess(ctx, w, http.StatusOK, clearCacheResponse{Cleared: cleared})
}

func (h *Handler) eventFilterResponse() eventFilterResponse {
	if id, ok := h.webhookService.EventFilter(); ok {
		return eventFilterResponse{EventIDFilter: &id}
	}
	return eventFilterResponse{}
}

func filterValueString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func toWebhookHistoryItem(entry webhook.HistoryEntry) webhookHistoryItem {
	return webhookHistoryItem{
		ID:            entry.ID,
		At:            entry.ReceivedAt.UTC().Format(time.RFC3339Nano),
		Event:         string(entry.Event),
		Status:        string(entry.Status),
		EventID:       entry.EventID,
		ClassID:       entry.ClassID,
		CompetitionID: entry.CompetitionID,
		Published:     entry.Published,
		Message:       entry.Message,
		DurationMS:    entry.Duration.Milliseconds(),
	}
}

func formatOptionalTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339Nano)
	return &formatted
}
