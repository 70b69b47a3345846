package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// internal error types never decide the wire format.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Checked before NotFound: a missing default wraps the lookup's
	// not-found error.
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Hook errors
// expose their entity and phase; nothing else from the error text is used.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, domain.ErrConfiguration):
		return "Required reference data is not configured"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrTicketNotFound):
		return "Ticket not found"
	case errors.Is(err, store.ErrThreadNotFound):
		return "Comment thread not found"
	case errors.Is(err, store.ErrEmployeeNotFound):
		return "Employee not found"
	case errors.Is(err, store.ErrAttendanceNotFound):
		return "Attendance not found"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrTicketAlreadyConverted),
		errors.Is(err, store.ErrTicketAlreadyLinked):
		return "Ticket is already converted to a task"
	case errors.Is(err, store.ErrRegularizationExists):
		return "Regularization already requested"
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return "Request conflicts with the current state"

	}

	var hookErr *hooks.Error
	if errors.As(err, &hookErr) && errors.Is(err, domain.ErrValidation) {
		return "Validation failed for " + string(hookErr.Entity)
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, store.ErrInvalidEntity) {
		return "Validation error"
	}
	return "An unexpected error occurred"
}

// HandleAPIError writes the error response for err. A non-empty message
// overrides the derived client message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnprocessableEntity {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	if status == http.StatusInternalServerError {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Error("request failed",
			"method", r.Method, "path", r.URL.Path)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
