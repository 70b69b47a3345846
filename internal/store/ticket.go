package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// TicketSync carries the fields a task propagates to its linked ticket.
// A nil Status leaves the status alone; AssigneeSet controls whether
// AssignedTo is written (a nil AssignedTo then clears the assignee).
type TicketSync struct {
	Status      *domain.TicketStatus
	AssigneeSet bool
	AssignedTo  *uuid.UUID
}

// Empty reports whether the sync carries nothing to write.
func (s TicketSync) Empty() bool {
	return s.Status == nil && !s.AssigneeSet
}

// TicketStore persists tickets.
type TicketStore interface {
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID returns the ticket or ErrTicketNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)

	// Update writes the mutable fields of a ticket. It never clears
	// IsConvertedToTask or LinkedTaskID.
	Update(ctx context.Context, ticket *domain.Ticket) error

	// UpdateConverting writes the ticket and sets the conversion latch in one
	// conditional statement. It returns ErrTicketAlreadyConverted when the
	// stored ticket is already converted, so only one of several concurrent
	// conversions persists.
	UpdateConverting(ctx context.Context, ticket *domain.Ticket) error

	// ApplyTaskSync writes status and assignee changes propagated from the
	// linked task.
	ApplyTaskSync(ctx context.Context, ticketID uuid.UUID, sync TicketSync) error
}

// ConversionStore creates the task for a converted ticket together with its
// comment thread and both references, atomically.
type ConversionStore interface {
	// CreateLinkedTask inserts task and thread and sets the ticket's
	// LinkedTaskID. If the ticket already has a linked task nothing is
	// written and ErrTicketAlreadyLinked is returned.
	CreateLinkedTask(ctx context.Context, ticketID uuid.UUID, task *domain.Task, thread *domain.CommentThread) error
}
