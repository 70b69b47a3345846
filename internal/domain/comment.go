package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrCommentEmpty is returned when a comment has no message.
var ErrCommentEmpty = errors.New("comment message cannot be empty")

// CommentThread is the ordered discussion attached to a task.
type CommentThread struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a single message in a thread. Mentions are already resolved to
// user ids by the caller.
type Comment struct {
	ID        uuid.UUID   `json:"id"`
	ThreadID  uuid.UUID   `json:"threadId"`
	AuthorID  uuid.UUID   `json:"authorId"`
	Message   string      `json:"message"`
	Mentions  []uuid.UUID `json:"mentions,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewCommentThread creates an empty thread for the given task.
func NewCommentThread(taskID uuid.UUID) *CommentThread {
	now := time.Now().UTC()
	return &CommentThread{
		ID:        uuid.New(),
		TaskID:    taskID,
		Comments:  []Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewComment builds a comment, removing duplicate and nil mentions.
func NewComment(threadID, authorID uuid.UUID, message string, mentions []uuid.UUID) (*Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrCommentEmpty
	}
	if threadID == uuid.Nil || authorID == uuid.Nil {
		return nil, ErrInvalidID
	}
	return &Comment{
		ID:        uuid.New(),
		ThreadID:  threadID,
		AuthorID:  authorID,
		Message:   message,
		Mentions:  UnionIDs(nil, mentions...),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Latest returns the most recent comment, or nil for an empty thread.
func (t *CommentThread) Latest() *Comment {
	if len(t.Comments) == 0 {
		return nil
	}
	return &t.Comments[len(t.Comments)-1]
}
