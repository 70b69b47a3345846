package service

import (
	"context"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/tasksync"
	"github.com/google/uuid"
)

func (s *RecordService) ticketPipeline() pipeline[domain.Ticket] {
	return pipeline[domain.Ticket]{
		entity: domain.EntityTickets,
		id:     func(t *domain.Ticket) uuid.UUID { return t.ID },
		build:  buildTicket,
		load:   s.stores.Tickets.GetByID,
		apply:  applyTicket,
		insert: s.stores.Tickets.Create,
		save:   s.saveTicket,
	}
}

// CreateTicket opens a ticket.
func (s *RecordService) CreateTicket(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Ticket, error) {
	return runCreate(ctx, s, s.ticketPipeline(), body, actorID)
}

// UpdateTicket applies body to the ticket. When the body sets
// isConvertedToTask on an unconverted ticket, the latch is written with a
// conditional update so that only one concurrent conversion succeeds.
func (s *RecordService) UpdateTicket(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Ticket, error) {
	return runUpdate(ctx, s, s.ticketPipeline(), id, body, actorID)
}

// GetTicket returns a ticket.
func (s *RecordService) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	t, err := s.stores.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_ticket", "failed to retrieve ticket", err)
	}
	return t, nil
}

func (s *RecordService) saveTicket(ctx context.Context, t *domain.Ticket, body hooks.Body) error {
	// The loaded copy may be stale; the conditional write decides.
	if tasksync.Converting(body) || (body.Truthy(tasksync.FieldIsConvertedToTask) && !t.IsConvertedToTask) {
		return s.stores.Tickets.UpdateConverting(ctx, t)
	}
	return s.stores.Tickets.Update(ctx, t)
}

func buildTicket(body hooks.Body, actorID uuid.UUID) (*domain.Ticket, error) {
	title, _, err := body.String("title")
	if err != nil {
		return nil, err
	}
	t, err := domain.NewTicket(title, actorID)
	if err != nil {
		return nil, invalid(err)
	}
	rest := hooks.Body(body.Fields())
	// A ticket is converted by updating it, never at creation.
	delete(rest, tasksync.FieldIsConvertedToTask)
	if err := applyTicket(t, rest); err != nil {
		return nil, err
	}
	return t, nil
}

// applyTicket never touches IsConvertedToTask or LinkedTaskID; the store
// owns both.
func applyTicket(t *domain.Ticket, body hooks.Body) error {
	if v, ok, err := body.String("title"); err != nil {
		return err
	} else if ok {
		t.Title = v
	}
	if v, ok, err := body.String("description"); err != nil {
		return err
	} else if ok {
		t.Description = v
	}
	if v, ok, err := body.String("status"); err != nil {
		return err
	} else if ok {
		t.Status = domain.TicketStatus(v)
	}
	if v, ok, err := body.UUID("assignedTo"); err != nil {
		return err
	} else if ok {
		t.AssignedTo = v
	}
	if v, ok, err := body.UUID("taskTypeId"); err != nil {
		return err
	} else if ok {
		t.TaskTypeID = v
	}
	if v, ok, err := body.UUID("projectTypeId"); err != nil {
		return err
	} else if ok {
		t.ProjectTypeID = v
	}
	t.UpdatedAt = time.Now().UTC()
	return invalid(t.Validate())
}
