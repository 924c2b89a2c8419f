package shared

import (
	"errors"
	"net/http"

	"gestimmo/internal/domain/workflow"
	"gestimmo/internal/transport/http/api"
)

// FailTransition maps workflow sentinel errors onto the API surface.
func FailTransition(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, workflow.ErrUnknownEntity):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, workflow.ErrUnauthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, workflow.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, workflow.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, workflow.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", "record changed concurrently, retry", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "transition_failed", "transition failed", requestID)
	}
}
