package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// TaskStore implements store.TaskStore.
type TaskStore struct{ d *db }

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.tasks[task.ID]; ok {
		return store.ErrDuplicate
	}
	s.d.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *TaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	out := cloneTask(t)
	return &out, nil
}

func (s *TaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	next := cloneTask(*task)
	if cur.LinkedTicketID != nil {
		next.LinkedTicketID = cloneIDPtr(cur.LinkedTicketID)
	}
	if cur.CommentsThreadID != nil {
		next.CommentsThreadID = cloneIDPtr(cur.CommentsThreadID)
	}
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.d.tasks[task.ID] = next
	*task = cloneTask(next)
	return nil
}

func (s *TaskStore) FindByLinkedTicket(_ context.Context, ticketID uuid.UUID) (*domain.Task, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, t := range s.d.tasks {
		if t.LinkedTicketID != nil && *t.LinkedTicketID == ticketID {
			out := cloneTask(t)
			return &out, nil
		}
	}
	return nil, store.ErrTaskNotFound
}
