package auth

import (
	"context"
	"testing"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetime: time.Hour})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	userID := uuid.New()
	svc := newHMACService(testSecret, lifetime, func() time.Time { return fixedTime })

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(lifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lifetime := 60 * time.Minute
	userID := uuid.New()
	at := func(ts time.Time) func() time.Time { return func() time.Time { return ts } }

	tests := []struct {
		name     string
		issuer   *hmacJWTService
		verifier *hmacJWTService
		token    string
		wantErr  error
	}{
		{
			name:     "valid token",
			issuer:   newHMACService(testSecret, lifetime, at(fixedTime)),
			verifier: newHMACService(testSecret, lifetime, at(fixedTime.Add(time.Minute))),
		},
		{
			name:     "expired token",
			issuer:   newHMACService(testSecret, lifetime, at(fixedTime)),
			verifier: newHMACService(testSecret, lifetime, at(fixedTime.Add(lifetime+time.Hour))),
			wantErr:  ErrExpiredToken,
		},
		{
			name:     "wrong secret",
			issuer:   newHMACService(testSecret, lifetime, at(fixedTime)),
			verifier: newHMACService("wrong-secret-that-is-long-enough-for-testing", lifetime, at(fixedTime)),
			wantErr:  ErrInvalidToken,
		},
		{
			name:     "malformed token",
			verifier: newHMACService(testSecret, lifetime, at(fixedTime)),
			token:    "not-a-jwt",
			wantErr:  ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if tt.issuer != nil {
				var err error
				token, err = tt.issuer.GenerateToken(context.Background(), userID)
				require.NoError(t, err)
			}

			claims, err := tt.verifier.ValidateToken(context.Background(), token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwtCustomClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc := newHMACService(testSecret, time.Hour, time.Now)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingActor(t *testing.T) {
	t.Parallel()

	svc := newHMACService(testSecret, time.Hour, time.Now)
	token, err := svc.GenerateToken(context.Background(), uuid.Nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrMissingActor)
}
