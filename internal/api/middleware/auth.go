package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/redact"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/google/uuid"
)

// AuthMiddleware resolves the acting user from a bearer token.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate validates the Authorization header and stores the token's
// user as the request's actor. Every hook and notification downstream is
// attributed to that actor.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContextOrDefault(r.Context(), slog.Default()).
					Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := shared.WithActorID(r.Context(), claims.UserID)
		log := logger.FromContextOrDefault(ctx, slog.Default()).With("actor_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, log)))
	})
}

// GetActorID extracts the actor ID from the request context.
func GetActorID(r *http.Request) (uuid.UUID, bool) {
	return shared.ActorID(r.Context())
}
