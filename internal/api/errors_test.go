package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"domain not found", domain.ErrNotFound, http.StatusNotFound},
		{"store not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"already converted", store.ErrTicketAlreadyConverted, http.StatusConflict},
		{"duplicate", store.ErrRegularizationExists, http.StatusConflict},
		{"configuration", domain.ErrConfiguration, http.StatusUnprocessableEntity},
		{
			"missing default wraps not found",
			fmt.Errorf("%w: no default for taskTypeId: %w", domain.ErrConfiguration, store.ErrNotFound),
			http.StatusUnprocessableEntity,
		},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{
			"before-hook rejection",
			&hooks.Error{Entity: domain.EntityTickets, Phase: hooks.PhaseBeforeUpdate, Err: fmt.Errorf("%w: no task type", domain.ErrConfiguration)},
			http.StatusUnprocessableEntity,
		},
		{
			"service wrapped",
			service.NewServiceError("update_tasks", "failed to load record", store.ErrTaskNotFound),
			http.StatusNotFound,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"task not found", fmt.Errorf("load: %w", store.ErrTaskNotFound), "Task not found"},
		{"already converted", store.ErrTicketAlreadyConverted, "Ticket is already converted to a task"},
		{
			"hook validation names the entity",
			&hooks.Error{Entity: domain.EntityAttendances, Phase: hooks.PhaseBeforeCreate, Err: domain.ErrValidation},
			"Validation failed for attendances",
		},
		{"configuration", domain.ErrConfiguration, "Required reference data is not configured"},
		{
			"missing default over its lookup error",
			fmt.Errorf("%w: no default for projectTypeId: %w", domain.ErrConfiguration, store.ErrNotFound),
			"Required reference data is not configured",
		},
		{"internal detail is hidden", errors.New("pq: relation tasks does not exist"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIError_WritesTraceableJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/x", nil)

	HandleAPIError(rec, req, store.ErrTaskNotFound, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())
}
