package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. It is used in tests and when the
// service runs without a database.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, queue Name, now time.Time) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *Job
	for _, j := range s.jobs {
		if j.Queue != queue || !runnable(j, now) {
			continue
		}
		if next == nil || before(j, next) {
			next = j
		}
	}
	if next == nil {
		return nil, nil
	}

	next.State = StateActive
	next.Attempts++
	next.UpdatedAt = now
	cp := *next
	return &cp, nil
}

func runnable(j *Job, now time.Time) bool {
	switch j.State {
	case StateQueued, StateFailed:
		return !j.RunAt.After(now)
	}
	return false
}

func before(a, b *Job) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.RunAt.Equal(b.RunAt) {
		return a.RunAt.Before(b.RunAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (s *MemoryStore) Complete(_ context.Context, id uuid.UUID, attempt int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, err := s.held(id, attempt)
	if err != nil {
		return err
	}
	j.State = StateCompleted
	j.UpdatedAt = now
	j.FinishedAt = &now
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id uuid.UUID, attempt int, errMsg string, retryAt *time.Time, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, err := s.held(id, attempt)
	if err != nil {
		return err
	}
	j.LastError = errMsg
	j.UpdatedAt = now
	if retryAt != nil {
		j.State = StateFailed
		j.RunAt = *retryAt
		return nil
	}
	j.State = StateDead
	j.FinishedAt = &now
	return nil
}

// held returns the job if it is still active under attempt. Callers hold mu.
func (s *MemoryStore) held(id uuid.UUID, attempt int) (*Job, error) {
	j, ok := s.jobs[id]
	if !ok || j.State != StateActive || j.Attempts != attempt {
		return nil, ErrJobLost
	}
	return j, nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0)
	for _, j := range s.jobs {
		if filter.Queue != "" && j.Queue != filter.Queue {
			continue
		}
		if filter.State != "" && j.State != filter.State {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Requeue(_ context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.State != StateDead {
		return ErrJobNotDead
	}
	j.State = StateQueued
	j.Attempts = 0
	j.RunAt = now
	j.UpdatedAt = now
	j.FinishedAt = nil
	return nil
}

func (s *MemoryStore) ResetStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if j.State == StateActive && j.UpdatedAt.Before(cutoff) {
			j.State = StateQueued
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if (j.State == StateCompleted || j.State == StateDead) && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Counts(_ context.Context) (map[Name]map[State]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Name]map[State]int)
	for _, j := range s.jobs {
		if out[j.Queue] == nil {
			out[j.Queue] = make(map[State]int)
		}
		out[j.Queue][j.State]++
	}
	return out, nil
}
