package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// AttendanceStore persists attendance entries.
type AttendanceStore interface {
	Create(ctx context.Context, attendance *domain.Attendance) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attendance, error)
	Update(ctx context.Context, attendance *domain.Attendance) error
}

// RegularizationStore persists regularization requests, unique per attendance.
type RegularizationStore interface {
	// Create returns ErrRegularizationExists if the attendance already has one.
	Create(ctx context.Context, r *domain.Regularization) error

	// GetByAttendance returns the regularization or ErrRegularizationNotFound.
	GetByAttendance(ctx context.Context, attendanceID uuid.UUID) (*domain.Regularization, error)
}
