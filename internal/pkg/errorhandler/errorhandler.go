package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/groomly/groomly-api/internal/pkg/apperr"
	"github.com/groomly/groomly-api/internal/pkg/logger"
	"github.com/groomly/groomly-api/internal/pkg/response"
)

// HandleDomainError maps an error of the scheduling core onto an HTTP response.
func HandleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var verrs apperr.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		LogValidationError(ctx, verrs)
		response.ValidationError(w, verrs)
	case errors.Is(err, apperr.ErrValidation):
		LogValidationError(ctx, map[string]string{"error": err.Error()})
		response.ErrorWithDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, apperr.ErrSlotConflict):
		response.Conflict(w, "SLOT_CONFLICT", err.Error())
	case errors.Is(err, apperr.ErrDuplicateSelection):
		response.Conflict(w, "DUPLICATE_SELECTION", err.Error())
	case errors.Is(err, apperr.ErrInvalidTransition):
		response.Conflict(w, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, apperr.ErrImmutableState):
		response.Conflict(w, "IMMUTABLE_STATE", err.Error())
	case errors.Is(err, apperr.ErrStorage):
		HandleError(ctx, w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		HandleError(ctx, w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Request cancelled", err)
	default:
		HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

// HandleError logs the error and sends a formatted error response
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)

	response.Error(w, status, code, message)
}

// HandlePanicError logs a recovered panic and answers with a 500.
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w)
}

// LogDatabaseError logs database errors with context
func LogDatabaseError(ctx context.Context, operation string, err error, fields ...interface{}) {
	event := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Err(err)
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			event = event.Interface(key, fields[i+1])
		}
	}
	event.Msg("Database error")
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}
