package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// PostgresCommentStore implements store.CommentStore.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a comment store over db.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

func (s *PostgresCommentStore) CreateThread(ctx context.Context, thread *domain.CommentThread) error {
	return insertThread(ctx, s.db, thread)
}

func insertThread(ctx context.Context, db store.DBTX, thread *domain.CommentThread) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO comment_threads (id, task_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, thread.ID, thread.TaskID, thread.CreatedAt, thread.UpdatedAt)
	return MapError(err)
}

// GetThread returns the thread with its comments oldest first.
func (s *PostgresCommentStore) GetThread(ctx context.Context, id uuid.UUID) (*domain.CommentThread, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var t domain.CommentThread
	err := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, created_at, updated_at FROM comment_threads WHERE id = $1
	`, id).Scan(&t.ID, &t.TaskID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err, store.ErrThreadNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, author_id, message, mentions, created_at
		FROM comments
		WHERE thread_id = $1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		log.Error("failed to query comments",
			slog.String("error", err.Error()),
			slog.String("thread_id", id.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	t.Comments = []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		t.Comments = append(t.Comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return &t, nil
}

// AddComment inserts the comment and bumps the thread's updated_at in one
// statement. A missing thread inserts nothing.
func (s *PostgresCommentStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	if comment.Message == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrCommentEmpty)
	}
	mentions, err := encodeIDs(comment.Mentions)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		WITH thread AS (
			UPDATE comment_threads SET updated_at = $6 WHERE id = $2 RETURNING id
		)
		INSERT INTO comments (id, thread_id, author_id, message, mentions, created_at)
		SELECT $1, thread.id, $3, $4, $5, $7 FROM thread
	`,
		comment.ID,
		comment.ThreadID,
		comment.AuthorID,
		comment.Message,
		mentions,
		time.Now().UTC(),
		comment.CreatedAt,
	)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to add comment",
			slog.String("error", err.Error()),
			slog.String("thread_id", comment.ThreadID.String()))
		return err
	}
	return CheckRowsAffected(result, store.ErrThreadNotFound)
}

func (s *PostgresCommentStore) GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, author_id, message, mentions, created_at
		FROM comments WHERE id = $1
	`, id))
	if err != nil {
		return nil, mapNoRows(err, store.ErrCommentNotFound)
	}
	return c, nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var (
		c   domain.Comment
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.Message, &raw, &c.CreatedAt); err != nil {
		return nil, err
	}
	ids, err := decodeIDs(raw)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		c.Mentions = ids
	}
	return &c, nil
}
