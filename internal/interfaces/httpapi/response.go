package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchboard/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "matchboard"
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
	Domain       string `json:"domain"`
	Reason       string `json:"reason"`
	Message      string `json:"message"`
	Location     string `json:"location,omitempty"`
	LocationType string `json:"locationType,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var errorMappings = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{usecase.ErrMissingSelection, mappedError{http.StatusConflict, "selectionRequired", "FAILED_PRECONDITION"}},
}

var internalMapping = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL"}

// fieldError reports request body fields rejected by the validator.
type fieldError struct {
	fields validator.ValidationErrors
}

func (e *fieldError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for _, fe := range e.fields {
		parts = append(parts, fieldMessage(fe))
	}
	return fmt.Sprintf("%v: %s", usecase.ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *fieldError) Unwrap() error { return usecase.ErrInvalidInput }

func fieldMessage(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag())
	}
	return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors:  errorItems(err, mapped),
		},
	})
}

func errorItems(err error, mapped mappedError) []googleErrorItem {
	var fe *fieldError
	if !errors.As(err, &fe) {
		return []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: err.Error()}}
	}

	items := make([]googleErrorItem, 0, len(fe.fields))
	for _, field := range fe.fields {
		items = append(items, googleErrorItem{
			Domain:       errorDomain,
			Reason:       mapped.Reason,
			Message:      fieldMessage(field),
			Location:     field.Field(),
			LocationType: "body",
		})
	}
	return items
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, internalMapping.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    internalMapping.HTTPStatus,
			Message: msg,
			Status:  internalMapping.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: internalMapping.Reason, Message: msg}},
		},
	})
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.mapped
		}
	}
	return internalMapping
}
