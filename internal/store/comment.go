package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// CommentStore persists comment threads and their comments.
type CommentStore interface {
	CreateThread(ctx context.Context, thread *domain.CommentThread) error

	// GetThread returns the thread with its comments ordered oldest first.
	GetThread(ctx context.Context, id uuid.UUID) (*domain.CommentThread, error)

	// AddComment appends a comment to comment.ThreadID.
	AddComment(ctx context.Context, comment *domain.Comment) error

	// GetComment returns a single comment or ErrCommentNotFound.
	GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
}
