package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// TicketStore implements store.TicketStore.
type TicketStore struct{ d *db }

var _ store.TicketStore = (*TicketStore)(nil)

func (s *TicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.tickets[ticket.ID]; ok {
		return store.ErrDuplicate
	}
	s.d.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (s *TicketStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Ticket, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	t, ok := s.d.tickets[id]
	if !ok {
		return nil, store.ErrTicketNotFound
	}
	out := cloneTicket(t)
	return &out, nil
}

func (s *TicketStore) Update(_ context.Context, ticket *domain.Ticket) error {
	return s.write(ticket, false)
}

func (s *TicketStore) UpdateConverting(_ context.Context, ticket *domain.Ticket) error {
	return s.write(ticket, true)
}

func (s *TicketStore) write(ticket *domain.Ticket, converting bool) error {
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.tickets[ticket.ID]
	if !ok {
		return store.ErrTicketNotFound
	}
	if converting && cur.IsConvertedToTask {
		return store.ErrTicketAlreadyConverted
	}

	next := cloneTicket(*ticket)
	next.IsConvertedToTask = cur.IsConvertedToTask || converting
	if cur.LinkedTaskID != nil {
		next.LinkedTaskID = cloneIDPtr(cur.LinkedTaskID)
	}
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.d.tickets[ticket.ID] = next
	*ticket = cloneTicket(next)
	return nil
}

func (s *TicketStore) ApplyTaskSync(_ context.Context, ticketID uuid.UUID, sync store.TicketSync) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.tickets[ticketID]
	if !ok {
		return store.ErrTicketNotFound
	}
	if sync.Status != nil {
		cur.Status = *sync.Status
	}
	if sync.AssigneeSet {
		cur.AssignedTo = cloneIDPtr(sync.AssignedTo)
	}
	cur.UpdatedAt = time.Now().UTC()
	s.d.tickets[ticketID] = cur
	return nil
}

// ConversionStore implements store.ConversionStore.
type ConversionStore struct{ d *db }

var _ store.ConversionStore = (*ConversionStore)(nil)

func (s *ConversionStore) CreateLinkedTask(_ context.Context, ticketID uuid.UUID, task *domain.Task, thread *domain.CommentThread) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	ticket, ok := s.d.tickets[ticketID]
	if !ok {
		return store.ErrTicketNotFound
	}
	if ticket.LinkedTaskID != nil {
		return store.ErrTicketAlreadyLinked
	}

	link := ticketID
	threadID := thread.ID
	task.LinkedTicketID = &link
	task.CommentsThreadID = &threadID
	thread.TaskID = task.ID

	s.d.tasks[task.ID] = cloneTask(*task)
	s.d.threads[thread.ID] = *thread

	taskID := task.ID
	ticket.LinkedTaskID = &taskID
	ticket.UpdatedAt = time.Now().UTC()
	s.d.tickets[ticketID] = ticket
	return nil
}
