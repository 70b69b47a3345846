// Package attendance derives regularization requests from attendance
// entries.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

const (
	fieldRequested = "regularizationRequested"
	fieldReason    = "regularizationReason"
)

// ErrReasonRequired is returned when a regularization is requested without a reason.
var ErrReasonRequired = fmt.Errorf("%w: regularization needs a reason", domain.ErrValidation)

// Regularizer creates at most one Regularization per Attendance.
type Regularizer struct {
	attendances     store.AttendanceStore
	regularizations store.RegularizationStore
	logger          *slog.Logger
}

// NewRegularizer creates a Regularizer.
func NewRegularizer(attendances store.AttendanceStore, regularizations store.RegularizationStore, log *slog.Logger) *Regularizer {
	if log == nil {
		log = slog.Default()
	}
	return &Regularizer{
		attendances:     attendances,
		regularizations: regularizations,
		logger:          log.With("component", "attendance"),
	}
}

// Register installs the attendance hooks.
func (r *Regularizer) Register(reg *hooks.Registry) error {
	return reg.Register(domain.EntityAttendances, hooks.Hooks{
		BeforeCreate: []hooks.BeforeCreateFunc{r.beforeCreate},
		AfterCreate:  []hooks.AfterCreateFunc{r.afterCreate},
		BeforeUpdate: []hooks.BeforeUpdateFunc{r.beforeUpdate},
		AfterUpdate:  []hooks.AfterUpdateFunc{r.afterUpdate},
	})
}

func (r *Regularizer) beforeCreate(_ context.Context, body hooks.Body, _ uuid.UUID) error {
	return requireReason(body, "")
}

func (r *Regularizer) beforeUpdate(ctx context.Context, body hooks.Body, docID, _ uuid.UUID) error {
	if !body.Truthy(fieldRequested) {
		return nil
	}
	cur, err := r.attendances.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	return requireReason(body, cur.RegularizationReason)
}

func requireReason(body hooks.Body, existing string) error {
	requested, _, err := body.Bool(fieldRequested)
	if err != nil {
		return err
	}
	if !requested {
		return nil
	}
	reason, _, err := body.String(fieldReason)
	if err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" && strings.TrimSpace(existing) == "" {
		return ErrReasonRequired
	}
	return nil
}

func (r *Regularizer) afterCreate(ctx context.Context, recordID, _ uuid.UUID) error {
	return r.Ensure(ctx, recordID)
}

func (r *Regularizer) afterUpdate(ctx context.Context, docID uuid.UUID, body hooks.Body, _ uuid.UUID) error {
	if !body.Has(fieldRequested) {
		return nil
	}
	return r.Ensure(ctx, docID)
}

// Ensure creates the regularization for an attendance that asks for one.
// It succeeds without writing when one already exists, including when a
// concurrent call created it first.
func (r *Regularizer) Ensure(ctx context.Context, attendanceID uuid.UUID) error {
	a, err := r.attendances.GetByID(ctx, attendanceID)
	if err != nil {
		return fmt.Errorf("load attendance: %w", err)
	}
	if !a.RegularizationRequested {
		return nil
	}

	_, err = r.regularizations.GetByAttendance(ctx, attendanceID)
	if err == nil {
		return nil
	}
	if !store.IsNotFoundError(err) {
		return fmt.Errorf("check regularization: %w", err)
	}

	reg := &domain.Regularization{
		ID:           uuid.New(),
		AttendanceID: a.ID,
		EmployeeID:   a.EmployeeID,
		Reason:       a.RegularizationReason,
		Status:       domain.RegularizationPending,
		CreatedAt:    time.Now().UTC(),
	}
	err = r.regularizations.Create(ctx, reg)
	if errors.Is(err, store.ErrRegularizationExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create regularization: %w", err)
	}
	logger.FromContextOrDefault(ctx, r.logger).Info("regularization requested",
		"attendance_id", a.ID, "employee_id", a.EmployeeID, "regularization_id", reg.ID)
	return nil
}
