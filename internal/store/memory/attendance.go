package memory

import (
	"context"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// AttendanceStore implements store.AttendanceStore.
type AttendanceStore struct{ d *db }

var _ store.AttendanceStore = (*AttendanceStore)(nil)

func (s *AttendanceStore) Create(_ context.Context, a *domain.Attendance) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.attendances[a.ID]; ok {
		return store.ErrDuplicate
	}
	s.d.attendances[a.ID] = *a
	return nil
}

func (s *AttendanceStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Attendance, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	a, ok := s.d.attendances[id]
	if !ok {
		return nil, store.ErrAttendanceNotFound
	}
	return &a, nil
}

func (s *AttendanceStore) Update(_ context.Context, a *domain.Attendance) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.attendances[a.ID]
	if !ok {
		return store.ErrAttendanceNotFound
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.d.attendances[a.ID] = *a
	return nil
}

// RegularizationStore implements store.RegularizationStore.
type RegularizationStore struct{ d *db }

var _ store.RegularizationStore = (*RegularizationStore)(nil)

func (s *RegularizationStore) Create(_ context.Context, r *domain.Regularization) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.regularizations[r.AttendanceID]; ok {
		return store.ErrRegularizationExists
	}
	s.d.regularizations[r.AttendanceID] = *r
	return nil
}

func (s *RegularizationStore) GetByAttendance(_ context.Context, attendanceID uuid.UUID) (*domain.Regularization, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	r, ok := s.d.regularizations[attendanceID]
	if !ok {
		return nil, store.ErrRegularizationNotFound
	}
	return &r, nil
}
