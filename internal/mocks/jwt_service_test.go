package mocks

import (
	"context"
	"errors"
	"testing"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMockJWTService(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	m := &MockJWTService{Token: "tok", Claims: &auth.Claims{UserID: id}}
	token, err := m.GenerateToken(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "tok", token)
	claims, err := m.ValidateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	boom := errors.New("boom")
	m.ValidateTokenFn = func(context.Context, string) (*auth.Claims, error) { return nil, boom }
	_, err = m.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, boom)
}
