package notify

import (
	"context"
	"fmt"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/google/uuid"
)

const (
	stashPrevStatus    = "notify.prevStatus"
	stashPrevAssignees = "notify.prevAssignees"
)

// fields whose change is reported as a plain update.
var detailFields = []string{"title", "description", "taskTypeId", "projectTypeId"}

// Register installs the task and comment hooks that keep followers complete
// and raise notifications.
func (d *Dispatcher) Register(reg *hooks.Registry) error {
	if err := reg.Register(domain.EntityTasks, hooks.Hooks{
		BeforeCreate: []hooks.BeforeCreateFunc{d.taskBeforeCreate},
		AfterCreate:  []hooks.AfterCreateFunc{d.taskAfterCreate},
		BeforeUpdate: []hooks.BeforeUpdateFunc{d.taskBeforeUpdate},
		AfterUpdate:  []hooks.AfterUpdateFunc{d.taskAfterUpdate},
	}); err != nil {
		return err
	}
	return reg.Register(domain.EntityComments, hooks.Hooks{
		AfterCreate: []hooks.AfterCreateFunc{d.commentAfterCreate},
	})
}

// taskBeforeCreate seeds followers with the creator and every assignee.
func (d *Dispatcher) taskBeforeCreate(_ context.Context, body hooks.Body, actorID uuid.UUID) error {
	followers, _, err := body.UUIDs("followers")
	if err != nil {
		return err
	}
	assignees, _, err := body.UUIDs("assignedTo")
	if err != nil {
		return err
	}
	followers = domain.UnionIDs(followers, actorID)
	body.Set("followers", domain.UnionIDs(followers, assignees...))
	return nil
}

func (d *Dispatcher) taskAfterCreate(ctx context.Context, recordID, actorID uuid.UUID) error {
	task, err := d.tasks.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if len(task.AssignedTo) == 0 {
		return nil
	}
	return d.Notify(ctx, Event{
		Kinds:        []domain.EventKind{domain.EventAssigned},
		Task:         task,
		ActorID:      actorID,
		NewAssignees: task.AssignedTo,
	})
}

// taskBeforeUpdate unions new assignees into followers and stashes the
// previous state so the after-hook can tell what changed.
func (d *Dispatcher) taskBeforeUpdate(ctx context.Context, body hooks.Body, docID, _ uuid.UUID) error {
	prev, err := d.tasks.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	body.Stash(stashPrevStatus, prev.Status)
	body.Stash(stashPrevAssignees, append([]uuid.UUID(nil), prev.AssignedTo...))

	assignees, hasAssignees, err := body.UUIDs("assignedTo")
	if err != nil {
		return err
	}
	followers, hasFollowers, err := body.UUIDs("followers")
	if err != nil {
		return err
	}
	if !hasAssignees && !hasFollowers {
		return nil
	}
	if !hasFollowers {
		followers = prev.Followers
	}
	if !hasAssignees {
		assignees = prev.AssignedTo
	}
	body.Set("followers", domain.UnionIDs(followers, assignees...))
	return nil
}

func (d *Dispatcher) taskAfterUpdate(ctx context.Context, docID uuid.UUID, body hooks.Body, actorID uuid.UUID) error {
	task, err := d.tasks.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	mentioned, _, err := body.UUIDs("mentions")
	if err != nil {
		return err
	}

	ev := Event{Task: task, ActorID: actorID, Mentioned: mentioned}

	if v, ok := body.Stashed(stashPrevStatus); ok && body.Has("status") {
		prevStatus, _ := v.(domain.TaskStatus)
		if prevStatus != task.Status {
			ev.PreviousStatus = prevStatus
			ev.Kinds = append(ev.Kinds, domain.EventStatusChanged)
		}
	}
	if v, ok := body.Stashed(stashPrevAssignees); ok && body.Has("assignedTo") {
		prevAssignees, _ := v.([]uuid.UUID)
		if added := domain.DiffIDs(prevAssignees, task.AssignedTo); len(added) > 0 {
			ev.NewAssignees = added
			ev.Kinds = append(ev.Kinds, domain.EventAssigned)
		}
	}
	for _, f := range detailFields {
		if body.Has(f) {
			ev.Kinds = append(ev.Kinds, domain.EventUpdated)
			break
		}
	}

	if len(ev.Kinds) == 0 && len(mentioned) == 0 {
		return nil
	}
	return d.Notify(ctx, ev)
}

func (d *Dispatcher) commentAfterCreate(ctx context.Context, recordID, actorID uuid.UUID) error {
	comment, err := d.comments.GetComment(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load comment: %w", err)
	}
	thread, err := d.comments.GetThread(ctx, comment.ThreadID)
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}
	task, err := d.tasks.GetByID(ctx, thread.TaskID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	return d.Notify(ctx, Event{
		Kinds:     []domain.EventKind{domain.EventCommented},
		Task:      task,
		ActorID:   actorID,
		Mentioned: comment.Mentions,
		Comment:   comment,
	})
}
