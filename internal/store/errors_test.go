package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFamilies(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
		conflict  bool
	}{
		{"nil", nil, false, false, false},
		{"generic", errors.New("some error"), false, false, false},
		{"not found", ErrNotFound, true, false, false},
		{"task missing", ErrTaskNotFound, true, false, false},
		{"wrapped ticket missing", fmt.Errorf("load: %w", ErrTicketNotFound), true, false, false},
		{"project type missing", ErrProjectTypeNotFound, true, false, false},
		{"regularization exists", ErrRegularizationExists, false, true, false},
		{"already converted", ErrTicketAlreadyConverted, false, false, true},
		{"wrapped already linked", fmt.Errorf("convert: %w", ErrTicketAlreadyLinked), false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, IsDuplicateError(tt.err))
			assert.Equal(t, tt.conflict, IsConflictError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError("job", "claim", "query failed", cause)

	assert.Equal(t, "job claim: query failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &target))
	assert.Equal(t, "claim", target.Operation)

	bare := &StoreError{Entity: "ticket", Operation: "update", Message: "latch set"}
	assert.Equal(t, "ticket update: latch set", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
