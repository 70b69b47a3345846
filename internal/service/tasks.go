package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/google/uuid"
)

func (s *RecordService) taskPipeline() pipeline[domain.Task] {
	return pipeline[domain.Task]{
		entity: domain.EntityTasks,
		id:     func(t *domain.Task) uuid.UUID { return t.ID },
		build:  buildTask,
		load:   s.stores.Tasks.GetByID,
		apply:  applyTask,
		insert: s.insertTask,
		save: func(ctx context.Context, t *domain.Task, _ hooks.Body) error {
			return s.stores.Tasks.Update(ctx, t)
		},
	}
}

// CreateTask creates a task with a fresh comment thread.
func (s *RecordService) CreateTask(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Task, error) {
	return runCreate(ctx, s, s.taskPipeline(), body, actorID)
}

// UpdateTask applies body to the task.
func (s *RecordService) UpdateTask(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Task, error) {
	return runUpdate(ctx, s, s.taskPipeline(), id, body, actorID)
}

// GetTask returns a task.
func (s *RecordService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t, err := s.stores.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_task", "failed to retrieve task", err)
	}
	return t, nil
}

func (s *RecordService) insertTask(ctx context.Context, t *domain.Task) error {
	thread := domain.NewCommentThread(t.ID)
	if err := s.stores.Comments.CreateThread(ctx, thread); err != nil {
		return fmt.Errorf("create comment thread: %w", err)
	}
	t.CommentsThreadID = &thread.ID
	return s.stores.Tasks.Create(ctx, t)
}

func buildTask(body hooks.Body, actorID uuid.UUID) (*domain.Task, error) {
	title, _, err := body.String("title")
	if err != nil {
		return nil, err
	}
	assignees, _, err := body.UUIDs("assignedTo")
	if err != nil {
		return nil, err
	}
	t, err := domain.NewTask(title, actorID, assignees)
	if err != nil {
		return nil, invalid(err)
	}
	// assignedTo was consumed by NewTask; the rest is patched like an update.
	rest := hooks.Body(body.Fields())
	delete(rest, "assignedTo")
	if err := applyTask(t, rest); err != nil {
		return nil, err
	}
	return t, nil
}

func applyTask(t *domain.Task, body hooks.Body) error {
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
		t.Status = domain.TaskStatus(v)
	}
	if v, ok, err := body.UUID("taskTypeId"); err != nil {
		return err
	} else if ok {
		t.TaskTypeID = derefID(v)
	}
	if v, ok, err := body.UUID("projectTypeId"); err != nil {
		return err
	} else if ok {
		t.ProjectTypeID = derefID(v)
	}
	if v, ok, err := body.UUIDs("assignedTo"); err != nil {
		return err
	} else if ok {
		t.AssignedTo = domain.UnionIDs(nil, v...)
	}
	if v, ok, err := body.UUIDs("followers"); err != nil {
		return err
	} else if ok {
		t.Followers = domain.UnionIDs(nil, v...)
	}
	t.EnsureFollowers()
	t.UpdatedAt = time.Now().UTC()
	return invalid(t.Validate())
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
