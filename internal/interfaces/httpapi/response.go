package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/webhook"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "sportfengur-relay"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// errorRule maps one error class onto the envelope. Rules are checked in order.
type errorRule struct {
	match  func(error) bool
	mapped mappedError
}

var (
	internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

	errorRules = []errorRule{
		{isErr(usecase.ErrInvalidInput), mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
		{isErr(competition.ErrInvalidIdentifier), mappedError{http.StatusBadRequest, "invalidIdentifier", "INVALID_ARGUMENT"}},
		{isValidationError, mappedError{http.StatusBadRequest, "invalidPayload", "INVALID_ARGUMENT"}},
		{isErr(usecase.ErrNotFound), mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
		{isErr(usecase.ErrUnauthorized), mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
		{isErr(usecase.ErrDependencyUnavailable), mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	}
)

func isErr(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func isValidationError(err error) bool {
	var validationErr *webhook.ValidationError
	return errors.As(err, &validationErr)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError renders err in the envelope. 500s never echo the underlying
// message, which may carry vendor bodies or panic values.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped.HTTPStatus == http.StatusInternalServerError {
		message = "internal server error"
	}

	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
		},
	})
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.mapped
		}
	}
	return internalError
}

// writeText answers webhook callers, which expect a plain-text body.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeFeed writes payload without the envelope. Graphics clients poll these
// routes and bind directly to the array.
func writeFeed(ctx context.Context, w http.ResponseWriter, payload any) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(ctx, w, http.StatusOK, payload)
}

func writeRawJSON(w http.ResponseWriter, body []byte, cacheControl string) {
	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
