package service

import (
	"context"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/google/uuid"
)

var attendanceStatuses = map[domain.AttendanceStatus]bool{
	domain.AttendancePresent: true,
	domain.AttendanceAbsent:  true,
	domain.AttendanceLate:    true,
	domain.AttendanceLeave:   true,
}

func (s *RecordService) attendancePipeline() pipeline[domain.Attendance] {
	return pipeline[domain.Attendance]{
		entity: domain.EntityAttendances,
		id:     func(a *domain.Attendance) uuid.UUID { return a.ID },
		build: func(body hooks.Body, actorID uuid.UUID) (*domain.Attendance, error) {
			now := time.Now().UTC()
			a := &domain.Attendance{
				ID:         uuid.New(),
				EmployeeID: actorID,
				Date:       now.Truncate(24 * time.Hour),
				Status:     domain.AttendancePresent,
				CreatedAt:  now,
			}
			if err := applyAttendance(a, body); err != nil {
				return nil, err
			}
			return a, nil
		},
		load:   s.stores.Attendances.GetByID,
		apply:  applyAttendance,
		insert: s.stores.Attendances.Create,
		save: func(ctx context.Context, a *domain.Attendance, _ hooks.Body) error {
			return s.stores.Attendances.Update(ctx, a)
		},
	}
}

// CreateAttendance records a day's attendance. The employee defaults to the actor.
func (s *RecordService) CreateAttendance(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Attendance, error) {
	return runCreate(ctx, s, s.attendancePipeline(), body, actorID)
}

// UpdateAttendance applies body to the attendance entry.
func (s *RecordService) UpdateAttendance(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Attendance, error) {
	return runUpdate(ctx, s, s.attendancePipeline(), id, body, actorID)
}

// GetAttendance returns an attendance entry.
func (s *RecordService) GetAttendance(ctx context.Context, id uuid.UUID) (*domain.Attendance, error) {
	a, err := s.stores.Attendances.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_attendance", "failed to retrieve attendance", err)
	}
	return a, nil
}

func applyAttendance(a *domain.Attendance, body hooks.Body) error {
	if v, ok, err := body.UUID("employeeId"); err != nil {
		return err
	} else if ok && v != nil {
		a.EmployeeID = *v
	}
	if v, ok, err := body.Time("date"); err != nil {
		return err
	} else if ok {
		a.Date = v.Truncate(24 * time.Hour)
	}
	if v, ok, err := body.String("status"); err != nil {
		return err
	} else if ok {
		a.Status = domain.AttendanceStatus(v)
	}
	if v, ok, err := body.Bool("regularizationRequested"); err != nil {
		return err
	} else if ok {
		a.RegularizationRequested = v
	}
	if v, ok, err := body.String("regularizationReason"); err != nil {
		return err
	} else if ok {
		a.RegularizationReason = v
	}
	if a.EmployeeID == uuid.Nil {
		return invalid(domain.ErrInvalidID)
	}
	if !attendanceStatuses[a.Status] {
		return invalid(domain.ErrValidation)
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}
