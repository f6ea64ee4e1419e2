package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const (
	webhookAckText      = "received"
	maxWebhookBodyBytes = 1 << 20
)

// ReceiveWebhook answers the vendor as soon as the payload validates; the
// refresh it triggers runs after the response is written.
func (h *Handler) ReceiveWebhook(event webhook.Event) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.Handler.ReceiveWebhook")
		defer span.End()

		values, err := decodeWebhookValues(r)
		if err != nil {
			h.logger.WarnContext(ctx, "webhook body could not be parsed", "event", string(event), "error", err)
			writeText(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		payload, err := h.webhookService.Accept(ctx, event, values)
		if err != nil {
			var validationErr *webhook.ValidationError
			switch {
			case errors.As(err, &validationErr):
				h.logger.WarnContext(ctx, "webhook rejected", "event", string(event), "error", err)
				writeText(w, http.StatusBadRequest, validationErr.Error())
			case errors.Is(err, usecase.ErrNotFound):
				writeText(w, http.StatusNotFound, "Unknown webhook")
			default:
				h.logger.ErrorContext(ctx, "webhook accept failed", "event", string(event), "error", err)
				writeText(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		h.logger.InfoContext(ctx, "webhook received",
			"event", string(event),
			"event_id", payload.EventID,
			"class_id", payload.ClassID,
			"competition_id", payload.CompetitionID,
		)
		writeText(w, http.StatusOK, webhookAckText)
	})
}

// TestWebhook lets operators check connectivity and the shared secret.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TestWebhook")
	defer span.End()

	values, err := decodeWebhookValues(r)
	if err != nil {
		h.logger.WarnContext(ctx, "test webhook body could not be parsed", "error", err)
	}
	h.logger.InfoContext(ctx, "test webhook received", "payload", values)
	writeText(w, http.StatusOK, webhookAckText)
}

// decodeWebhookValues reads a JSON or form encoded body into a flat map.
// An empty body yields an empty map so validation can name the missing fields.
func decodeWebhookValues(r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxWebhookBodyBytes)
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxWebhookBodyBytes); err != nil {
				return nil, fmt.Errorf("parse multipart form: %w", err)
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		values := make(map[string]any, len(r.PostForm))
		for key, v := range r.PostForm {
			values[key] = v
		}
		return values, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	values := map[string]any{}
	if strings.TrimSpace(string(body)) == "" {
		return values, nil
	}
	if err := sonic.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	return values, nil
}
