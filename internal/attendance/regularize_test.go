package attendance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedAttendance(t *testing.T, stores *memory.Stores, requested bool) *domain.Attendance {
	t.Helper()
	now := time.Now().UTC()
	a := &domain.Attendance{
		ID:                      uuid.New(),
		EmployeeID:              uuid.New(),
		Date:                    now.Truncate(24 * time.Hour),
		Status:                  domain.AttendanceLate,
		RegularizationRequested: requested,
		RegularizationReason:    "train delay",
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	require.NoError(t, stores.Attendances.Create(context.Background(), a))
	return a
}

func TestEnsure_CreatesOnce(t *testing.T) {
	stores := memory.New()
	r := NewRegularizer(stores.Attendances, stores.Regularizations, setupTestLogger())
	ctx := context.Background()
	a := seedAttendance(t, stores, true)

	require.NoError(t, r.Ensure(ctx, a.ID))
	first, err := stores.Regularizations.GetByAttendance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegularizationPending, first.Status)
	assert.Equal(t, "train delay", first.Reason)
	assert.Equal(t, a.EmployeeID, first.EmployeeID)

	require.NoError(t, r.Ensure(ctx, a.ID))
	again, err := stores.Regularizations.GetByAttendance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "second call must not replace the record")
}

func TestEnsure_NotRequested(t *testing.T) {
	stores := memory.New()
	r := NewRegularizer(stores.Attendances, stores.Regularizations, setupTestLogger())
	a := seedAttendance(t, stores, false)

	require.NoError(t, r.Ensure(context.Background(), a.ID))

	_, err := stores.Regularizations.GetByAttendance(context.Background(), a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// racingStore hides existing records from the guard, as if a concurrent
// writer inserted between the check and the create.
type racingStore struct {
	store.RegularizationStore
}

func (racingStore) GetByAttendance(context.Context, uuid.UUID) (*domain.Regularization, error) {
	return nil, store.ErrRegularizationNotFound
}

func TestEnsure_DuplicateFromRaceIsSuccess(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()
	a := seedAttendance(t, stores, true)
	require.NoError(t, NewRegularizer(stores.Attendances, stores.Regularizations, nil).Ensure(ctx, a.ID))

	r := NewRegularizer(stores.Attendances, racingStore{stores.Regularizations}, setupTestLogger())

	assert.NoError(t, r.Ensure(ctx, a.ID))
}

func TestEnsure_MissingAttendance(t *testing.T) {
	stores := memory.New()
	r := NewRegularizer(stores.Attendances, stores.Regularizations, setupTestLogger())

	err := r.Ensure(context.Background(), uuid.New())

	assert.ErrorIs(t, err, store.ErrAttendanceNotFound)
}

func TestHooks(t *testing.T) {
	stores := memory.New()
	reg := hooks.NewRegistry(setupTestLogger())
	require.NoError(t, NewRegularizer(stores.Attendances, stores.Regularizations, setupTestLogger()).Register(reg))
	ctx := context.Background()

	t.Run("create without reason is rejected", func(t *testing.T) {
		err := reg.RunBeforeCreate(ctx, domain.EntityAttendances, hooks.Body{fieldRequested: true}, uuid.New())
		assert.ErrorIs(t, err, ErrReasonRequired)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("update can rely on stored reason", func(t *testing.T) {
		a := seedAttendance(t, stores, false)
		err := reg.RunBeforeUpdate(ctx, domain.EntityAttendances, hooks.Body{fieldRequested: true}, a.ID, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("after update derives the record", func(t *testing.T) {
		a := seedAttendance(t, stores, false)
		a.RegularizationRequested = true
		require.NoError(t, stores.Attendances.Update(ctx, a))

		failed := reg.RunAfterUpdate(ctx, domain.EntityAttendances, a.ID, hooks.Body{fieldRequested: true}, uuid.New())
		assert.Zero(t, failed)

		_, err := stores.Regularizations.GetByAttendance(ctx, a.ID)
		assert.NoError(t, err)
	})

	t.Run("after create derives the record", func(t *testing.T) {
		a := seedAttendance(t, stores, true)
		assert.Zero(t, reg.RunAfterCreate(ctx, domain.EntityAttendances, a.ID, uuid.New()))
		_, err := stores.Regularizations.GetByAttendance(ctx, a.ID)
		assert.NoError(t, err)
	})
}
