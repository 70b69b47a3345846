package service

import (
	"context"
	"fmt"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/google/uuid"
)

// AddComment appends a comment to the task's thread. body carries message
// and mentions, the latter already resolved to user ids.
func (s *RecordService) AddComment(ctx context.Context, taskID uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Comment, error) {
	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("create_comment", "failed to load task", err)
	}
	if task.CommentsThreadID == nil {
		return nil, NewServiceError("create_comment", "cannot comment", fmt.Errorf("%w: %w", domain.ErrNotFound, ErrNoCommentThread))
	}
	threadID := *task.CommentsThreadID

	p := pipeline[domain.Comment]{
		entity: domain.EntityComments,
		id:     func(c *domain.Comment) uuid.UUID { return c.ID },
		build: func(b hooks.Body, actor uuid.UUID) (*domain.Comment, error) {
			msg, _, err := b.String("message")
			if err != nil {
				return nil, err
			}
			mentions, _, err := b.UUIDs("mentions")
			if err != nil {
				return nil, err
			}
			c, err := domain.NewComment(threadID, actor, msg, mentions)
			return c, invalid(err)
		},
		load:   s.stores.Comments.GetComment,
		insert: s.stores.Comments.AddComment,
	}
	return runCreate(ctx, s, p, body, actorID)
}

// GetThread returns a comment thread with its comments in order.
func (s *RecordService) GetThread(ctx context.Context, id uuid.UUID) (*domain.CommentThread, error) {
	t, err := s.stores.Comments.GetThread(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_thread", "failed to retrieve thread", err)
	}
	return t, nil
}
