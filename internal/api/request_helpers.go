package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}
	return id, nil
}

// requireActor returns the acting user from the request context, writing a
// 401 when there is none.
func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, ok := shared.ActorID(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("actor ID not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return actorID, true
}

// handleActorAndPathUUID extracts the actor and the named path UUID. It
// writes an error response if either is missing.
func handleActorAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, pathID, true
}

// decodeBody reads a hook body, dropping reserved keys a client must not set.
func decodeBody(w http.ResponseWriter, r *http.Request) (hooks.Body, bool) {
	body, err := shared.DecodeBody(r)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid request format")
		return nil, false
	}
	return hooks.Body(body.Fields()), true
}

// queryLimit parses ?limit=, returning 0 when absent.
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrValidation)
	}
	return n, nil
}
