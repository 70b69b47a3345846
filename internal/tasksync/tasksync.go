package tasksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/notify"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// Body fields understood by the ticket hooks.
const (
	FieldConvertToTask     = "convertToTask"
	FieldIsConvertedToTask = "isConvertedToTask"
	FieldTaskTypeID        = "taskTypeId"
	FieldProjectTypeID     = "projectTypeId"

	stashConverting = "tasksync.converting"
)

// Notifier raises notifications for task events.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// Synchronizer converts tickets into tasks and keeps a converted ticket's
// status and assignee in step with its task.
type Synchronizer struct {
	tickets     store.TicketStore
	tasks       store.TaskStore
	conversions store.ConversionStore
	refs        store.ReferenceStore
	notifier    Notifier
	logger      *slog.Logger
}

// New creates a Synchronizer. notifier may be nil.
func New(
	tickets store.TicketStore,
	tasks store.TaskStore,
	conversions store.ConversionStore,
	refs store.ReferenceStore,
	notifier Notifier,
	log *slog.Logger,
) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		tickets:     tickets,
		tasks:       tasks,
		conversions: conversions,
		refs:        refs,
		notifier:    notifier,
		logger:      log.With("component", "tasksync"),
	}
}

// Register installs the ticket and task update hooks.
func (s *Synchronizer) Register(reg *hooks.Registry) error {
	if err := reg.Register(domain.EntityTickets, hooks.Hooks{
		BeforeUpdate: []hooks.BeforeUpdateFunc{s.TicketBeforeUpdate},
		AfterUpdate:  []hooks.AfterUpdateFunc{s.TicketAfterUpdate},
	}); err != nil {
		return err
	}
	return reg.Register(domain.EntityTasks, hooks.Hooks{
		AfterUpdate: []hooks.AfterUpdateFunc{s.TaskAfterUpdate},
	})
}

// TicketBeforeUpdate detects a conversion request. When the ticket is not yet
// converted it fills missing reference fields, sets the latch in body so it
// is committed by this same update, and marks the operation for the
// after-hook.
func (s *Synchronizer) TicketBeforeUpdate(ctx context.Context, body hooks.Body, docID, _ uuid.UUID) error {
	convert, _, err := body.Bool(FieldConvertToTask)
	if err != nil {
		return err
	}
	latch, _, err := body.Bool(FieldIsConvertedToTask)
	if err != nil {
		return err
	}
	if !convert && !latch {
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if ticket.IsConvertedToTask {
		if convert {
			return fmt.Errorf("%w: ticket %s is already converted to a task", domain.ErrConflict, docID)
		}
		// Re-sending the latch on a converted ticket changes nothing.
		return nil
	}

	if err := s.fillReference(ctx, body, FieldTaskTypeID, ticket.TaskTypeID, func(ctx context.Context) (uuid.UUID, error) {
		tt, err := s.refs.FirstTaskType(ctx)
		if err != nil {
			return uuid.Nil, err
		}
		return tt.ID, nil
	}); err != nil {
		return err
	}
	if err := s.fillReference(ctx, body, FieldProjectTypeID, ticket.ProjectTypeID, func(ctx context.Context) (uuid.UUID, error) {
		pt, err := s.refs.FirstProjectType(ctx)
		if err != nil {
			return uuid.Nil, err
		}
		return pt.ID, nil
	}); err != nil {
		return err
	}

	body.Set(FieldIsConvertedToTask, true)
	body.Stash(stashConverting, true)
	return nil
}

func (s *Synchronizer) fillReference(
	ctx context.Context,
	body hooks.Body,
	field string,
	current *uuid.UUID,
	first func(context.Context) (uuid.UUID, error),
) error {
	given, _, err := body.UUID(field)
	if err != nil {
		return err
	}
	if given != nil {
		return nil
	}
	if current != nil {
		body.Set(field, current.String())
		return nil
	}
	id, err := first(ctx)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: no default for %s: %w", domain.ErrConfiguration, field, err)
		}
		return err
	}
	body.Set(field, id.String())
	return nil
}

// Converting reports whether the update carrying body flipped the latch.
func Converting(body hooks.Body) bool {
	v, _ := body.Stashed(stashConverting)
	b, _ := v.(bool)
	return b
}

// TicketAfterUpdate creates the task, its comment thread and both links for a
// ticket whose latch was set by this update. Running it again for the same
// ticket is a no-op.
func (s *Synchronizer) TicketAfterUpdate(ctx context.Context, docID uuid.UUID, body hooks.Body, actorID uuid.UUID) error {
	if !Converting(body) {
		return nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With("ticket_id", docID)

	ticket, err := s.tickets.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}
	if ticket.LinkedTaskID != nil {
		log.Debug("ticket already linked", "task_id", *ticket.LinkedTaskID)
		return nil
	}
	if existing, err := s.tasks.FindByLinkedTicket(ctx, docID); err == nil {
		log.Warn("task already references ticket", "task_id", existing.ID)
		return nil
	} else if !store.IsNotFoundError(err) {
		return fmt.Errorf("look up linked task: %w", err)
	}

	task, err := taskFromTicket(ticket, actorID)
	if err != nil {
		return err
	}
	thread := domain.NewCommentThread(task.ID)

	err = s.conversions.CreateLinkedTask(ctx, docID, task, thread)
	if errors.Is(err, store.ErrTicketAlreadyLinked) {
		log.Debug("lost conversion race")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create linked task: %w", err)
	}
	log.Info("ticket converted", "task_id", task.ID, "thread_id", thread.ID)

	if s.notifier == nil {
		return nil
	}
	return s.notifier.Notify(ctx, notify.Event{
		Kinds:        []domain.EventKind{domain.EventConverted},
		Task:         task,
		ActorID:      actorID,
		NewAssignees: task.AssignedTo,
	})
}

func taskFromTicket(ticket *domain.Ticket, actorID uuid.UUID) (*domain.Task, error) {
	var assignees []uuid.UUID
	if ticket.AssignedTo != nil {
		assignees = []uuid.UUID{*ticket.AssignedTo}
	}
	creator := actorID
	if creator == uuid.Nil {
		creator = ticket.CreatedBy
	}
	task, err := domain.NewTask(ticket.Title, creator, assignees)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	task.Description = ticket.Description
	if ticket.TaskTypeID != nil {
		task.TaskTypeID = *ticket.TaskTypeID
	}
	if ticket.ProjectTypeID != nil {
		task.ProjectTypeID = *ticket.ProjectTypeID
	}
	// The reporter keeps hearing about the work done on their ticket.
	task.Followers = domain.UnionIDs(task.Followers, ticket.CreatedBy)
	return task, nil
}

// TaskAfterUpdate propagates a linked task's status and primary assignee to
// its ticket. Only fields present in body are propagated.
func (s *Synchronizer) TaskAfterUpdate(ctx context.Context, docID uuid.UUID, body hooks.Body, _ uuid.UUID) error {
	if !body.Has("status") && !body.Has("assignedTo") {
		return nil
	}
	task, err := s.tasks.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if task.LinkedTicketID == nil {
		return nil
	}

	var sync store.TicketSync
	if body.Has("status") {
		if ts, ok := domain.TicketStatusForTask(task.Status); ok {
			sync.Status = &ts
		}
	}
	if body.Has("assignedTo") {
		sync.AssigneeSet = true
		sync.AssignedTo = task.PrimaryAssignee()
	}
	if sync.Empty() {
		return nil
	}

	if err := s.tickets.ApplyTaskSync(ctx, *task.LinkedTicketID, sync); err != nil {
		return fmt.Errorf("sync ticket %s: %w", *task.LinkedTicketID, err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("ticket synced from task",
		"task_id", task.ID, "ticket_id", *task.LinkedTicketID)
	return nil
}
