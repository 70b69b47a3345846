package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// TaskStore persists tasks.
type TaskStore interface {
	// Create inserts a new task. Returns ErrInvalidEntity if validation fails.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns the task or ErrTaskNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces the mutable fields of a task. LinkedTicketID and
	// CommentsThreadID are never cleared once set.
	Update(ctx context.Context, task *domain.Task) error

	// FindByLinkedTicket returns the task created from the ticket, or ErrTaskNotFound.
	FindByLinkedTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Task, error)
}
