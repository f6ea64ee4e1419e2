package httpapi

import (
	"net/http"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

const catalogCacheControl = "public, max-age=300"

func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchEvents")
	defer span.End()

	body, err := h.catalogService.SearchEvents(ctx, r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "search events failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeRawJSON(w, body, catalogCacheControl)
}

func (h *Handler) EventParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EventParticipants")
	defer span.End()

	eventID, err := competition.ParseID(r.PathValue("eventID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	body, err := h.catalogService.Participants(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch participants failed", "event_id", eventID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeRawJSON(w, body, catalogCacheControl)
}

func (h *Handler) EventTests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EventTests")
	defer span.End()

	eventID, err := competition.ParseID(r.PathValue("eventID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	body, err := h.catalogService.Tests(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch event tests failed", "event_id", eventID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeRawJSON(w, body, catalogCacheControl)
}
