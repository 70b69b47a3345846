package memory

import (
	"context"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// StatsStore implements store.StatsStore.
type StatsStore struct{ d *db }

var _ store.StatsStore = (*StatsStore)(nil)

func (s *StatsStore) TaskStatusCounts(_ context.Context) (map[domain.TaskStatus]int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make(map[domain.TaskStatus]int)
	for _, t := range s.d.tasks {
		out[t.Status]++
	}
	return out, nil
}

func (s *StatsStore) TicketStatusCounts(_ context.Context) (map[domain.TicketStatus]int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make(map[domain.TicketStatus]int)
	for _, t := range s.d.tickets {
		out[t.Status]++
	}
	return out, nil
}

func (s *StatsStore) AssigneeTaskCounts(_ context.Context, employeeID uuid.UUID) (map[domain.TaskStatus]int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make(map[domain.TaskStatus]int)
	for _, t := range s.d.tasks {
		if domain.ContainsID(t.AssignedTo, employeeID) {
			out[t.Status]++
		}
	}
	return out, nil
}

func (s *StatsStore) AttendanceCounts(_ context.Context, from, to time.Time) (map[domain.AttendanceStatus]int, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make(map[domain.AttendanceStatus]int)
	for _, a := range s.d.attendances {
		if !a.Date.Before(from) && a.Date.Before(to) {
			out[a.Status]++
		}
	}
	return out, nil
}
