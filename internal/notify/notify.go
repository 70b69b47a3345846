package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// Enqueuer accepts background jobs. *queue.Runner satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req queue.Request) (queue.Handle, error)
}

// Event describes one change to a task that people should hear about.
// Kinds lists every change in the event; a recipient gets a single
// notification covering all of them.
type Event struct {
	Kinds          []domain.EventKind
	Task           *domain.Task
	ActorID        uuid.UUID
	Mentioned      []uuid.UUID
	NewAssignees   []uuid.UUID
	PreviousStatus domain.TaskStatus
	Comment        *domain.Comment
}

// Kind returns the single kind that describes the event.
func (e Event) Kind() domain.EventKind {
	switch len(e.Kinds) {
	case 0:
		return domain.EventUpdated
	case 1:
		return e.Kinds[0]
	default:
		return domain.EventUpdated
	}
}

// Recipients returns (assignees ∪ followers ∪ mentioned) minus the actor,
// without duplicates, in that order.
func Recipients(task *domain.Task, mentioned []uuid.UUID, actorID uuid.UUID) []uuid.UUID {
	all := domain.UnionIDs(task.AssignedTo, task.Followers...)
	all = domain.UnionIDs(all, mentioned...)
	out := all[:0]
	for _, id := range all {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}

// Dispatcher turns events into notification records plus push and email jobs.
type Dispatcher struct {
	notifications store.NotificationStore
	employees     store.EmployeeStore
	tasks         store.TaskStore
	comments      store.CommentStore
	jobs          Enqueuer
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	notifications store.NotificationStore,
	employees store.EmployeeStore,
	tasks store.TaskStore,
	comments store.CommentStore,
	jobs Enqueuer,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		notifications: notifications,
		employees:     employees,
		tasks:         tasks,
		comments:      comments,
		jobs:          jobs,
		logger:        log.With("component", "notify"),
	}
}

// Notify records and enqueues one push notification per recipient and one
// email per newly assigned employee with a known address. A failure for one
// recipient does not stop the others; all failures are returned joined.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) error {
	if ev.Task == nil {
		return fmt.Errorf("%w: event has no task", domain.ErrValidation)
	}
	log := logger.FromContextOrDefault(ctx, d.logger)

	recipients := Recipients(ev.Task, ev.Mentioned, ev.ActorID)
	title, body := render(ev)
	data := map[string]any{
		"taskId": ev.Task.ID.String(),
		"kind":   string(ev.Kind()),
		"status": string(ev.Task.Status),
	}
	if len(ev.Kinds) > 1 {
		changes := make([]string, len(ev.Kinds))
		for i, k := range ev.Kinds {
			changes[i] = string(k)
		}
		data["changes"] = changes
	}
	if ev.Comment != nil {
		data["commentId"] = ev.Comment.ID.String()
	}

	var errs []error
	for _, recipient := range recipients {
		if err := d.push(ctx, ev, recipient, title, body, data); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient, err))
		}
	}

	if err := d.emailNewAssignees(ctx, ev); err != nil {
		errs = append(errs, err)
	}

	log.Debug("notification fan-out",
		"task_id", ev.Task.ID,
		"kind", ev.Kind(),
		"recipients", len(recipients),
		"failures", len(errs))
	return errors.Join(errs...)
}

func (d *Dispatcher) push(ctx context.Context, ev Event, recipient uuid.UUID, title, body string, data map[string]any) error {
	now := time.Now().UTC()
	rec := &domain.NotificationRecord{
		ID:          uuid.New(),
		RecipientID: recipient,
		ActorID:     ev.ActorID,
		Kind:        ev.Kind(),
		EntityType:  domain.EntityTasks,
		EntityID:    ev.Task.ID,
		Title:       title,
		Body:        body,
		Data:        data,
		State:       domain.DeliveryPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.notifications.Create(ctx, rec); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	h, err := d.jobs.Enqueue(ctx, queue.PushRequest(queue.PushPayload{
		RecipientID:    recipient,
		NotificationID: rec.ID,
		Title:          title,
		Body:           body,
		Data:           data,
	}))
	if err != nil {
		return fmt.Errorf("enqueue push: %w", err)
	}
	if err := d.notifications.AttachJob(ctx, rec.ID, h.ID); err != nil {
		return fmt.Errorf("attach push job: %w", err)
	}
	return nil
}

func (d *Dispatcher) emailNewAssignees(ctx context.Context, ev Event) error {
	var ids []uuid.UUID
	for _, id := range ev.NewAssignees {
		if id != ev.ActorID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || d.employees == nil {
		return nil
	}

	employees, err := d.employees.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve assignee emails: %w", err)
	}

	var errs []error
	for _, e := range employees {
		if strings.TrimSpace(e.Email) == "" {
			continue
		}
		_, err := d.jobs.Enqueue(ctx, queue.EmailRequest(queue.EmailPayload{
			To:       e.Email,
			Subject:  "You were assigned: " + ev.Task.Title,
			Body:     fmt.Sprintf("Hi %s, you have been assigned to %q (status: %s).", e.Name, ev.Task.Title, ev.Task.Status),
			Template: "task_assigned",
		}))
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue email for %s: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

func render(ev Event) (string, string) {
	t := ev.Task
	switch ev.Kind() {
	case domain.EventStatusChanged:
		return "Task status changed", fmt.Sprintf("%q moved from %s to %s", t.Title, ev.PreviousStatus, t.Status)
	case domain.EventAssigned:
		return "Task assigned", fmt.Sprintf("You are on %q", t.Title)
	case domain.EventCommented:
		msg := ""
		if ev.Comment != nil {
			msg = ev.Comment.Message
		}
		return "New comment", fmt.Sprintf("On %q: %s", t.Title, truncate(msg, 140))
	case domain.EventConverted:
		return "Ticket converted to task", fmt.Sprintf("%q is now a task", t.Title)
	}

	if len(ev.Kinds) > 1 {
		parts := make([]string, 0, len(ev.Kinds))
		for _, k := range ev.Kinds {
			switch k {
			case domain.EventStatusChanged:
				parts = append(parts, fmt.Sprintf("status %s -> %s", ev.PreviousStatus, t.Status))
			case domain.EventAssigned:
				parts = append(parts, "assignees changed")
			default:
				parts = append(parts, "details edited")
			}
		}
		return "Task updated", fmt.Sprintf("%q: %s", t.Title, strings.Join(parts, "; "))
	}
	return "Task updated", fmt.Sprintf("%q was updated", t.Title)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
