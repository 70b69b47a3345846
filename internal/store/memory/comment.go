package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// CommentStore implements store.CommentStore.
type CommentStore struct{ d *db }

var _ store.CommentStore = (*CommentStore)(nil)

func (s *CommentStore) CreateThread(_ context.Context, thread *domain.CommentThread) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.threads[thread.ID]; ok {
		return store.ErrDuplicate
	}
	cp := *thread
	cp.Comments = nil
	s.d.threads[thread.ID] = cp
	return nil
}

func (s *CommentStore) GetThread(_ context.Context, id uuid.UUID) (*domain.CommentThread, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	t, ok := s.d.threads[id]
	if !ok {
		return nil, store.ErrThreadNotFound
	}
	t.Comments = []domain.Comment{}
	for _, c := range s.d.comments {
		if c.ThreadID == id {
			t.Comments = append(t.Comments, cloneComment(c))
		}
	}
	return &t, nil
}

func (s *CommentStore) AddComment(_ context.Context, comment *domain.Comment) error {
	if comment.Message == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrCommentEmpty)
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	thread, ok := s.d.threads[comment.ThreadID]
	if !ok {
		return store.ErrThreadNotFound
	}
	s.d.comments = append(s.d.comments, cloneComment(*comment))
	thread.UpdatedAt = time.Now().UTC()
	s.d.threads[thread.ID] = thread
	return nil
}

func (s *CommentStore) GetComment(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, c := range s.d.comments {
		if c.ID == id {
			out := cloneComment(c)
			return &out, nil
		}
	}
	return nil, store.ErrCommentNotFound
}
