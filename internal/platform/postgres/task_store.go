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

const taskColumns = `id, title, description, status, task_type_id, project_type_id, created_by,
	assigned_to, followers, comments_thread_id, linked_ticket_id, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store over db, which may be a
// connection pool or a transaction.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create inserts a new task after domain validation.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if err := insertTask(ctx, s.db, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

func insertTask(ctx context.Context, db store.DBTX, task *domain.Task) error {
	assigned, err := encodeIDs(task.AssignedTo)
	if err != nil {
		return err
	}
	followers, err := encodeIDs(task.Followers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		nilUUID(task.TaskTypeID),
		nilUUID(task.ProjectTypeID),
		task.CreatedBy,
		assigned,
		followers,
		optUUID(task.CommentsThreadID),
		optUUID(task.LinkedTicketID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	return MapError(err)
}

// GetByID returns the task or store.ErrTaskNotFound.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		err = mapNoRows(err, store.ErrTaskNotFound)
		if !store.IsNotFoundError(err) {
			log.Error("failed to get task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, err
	}
	return task, nil
}

// Update writes the mutable fields. The link and thread references are only
// ever filled in, never cleared.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	assigned, err := encodeIDs(task.AssignedTo)
	if err != nil {
		return err
	}
	followers, err := encodeIDs(task.Followers)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks SET
			title = $2,
			description = $3,
			status = $4,
			task_type_id = $5,
			project_type_id = $6,
			assigned_to = $7,
			followers = $8,
			comments_thread_id = COALESCE(comments_thread_id, $9),
			linked_ticket_id = COALESCE(linked_ticket_id, $10),
			updated_at = $11
		WHERE id = $1
		RETURNING ` + taskColumns
	updated, err := scanTask(s.db.QueryRowContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		nilUUID(task.TaskTypeID),
		nilUUID(task.ProjectTypeID),
		assigned,
		followers,
		optUUID(task.CommentsThreadID),
		optUUID(task.LinkedTicketID),
		time.Now().UTC(),
	))
	if err != nil {
		err = mapNoRows(err, store.ErrTaskNotFound)
		if !store.IsNotFoundError(err) {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		}
		return err
	}
	*task = *updated
	return nil
}

// FindByLinkedTicket returns the task created from ticketID.
func (s *PostgresTaskStore) FindByLinkedTicket(ctx context.Context, ticketID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE linked_ticket_id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, ticketID))
	if err != nil {
		return nil, mapNoRows(err, store.ErrTaskNotFound)
	}
	return task, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                        domain.Task
		status                   string
		taskType, projectType    uuid.NullUUID
		thread, ticket           uuid.NullUUID
		assignedRaw, followerRaw []byte
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&taskType,
		&projectType,
		&t.CreatedBy,
		&assignedRaw,
		&followerRaw,
		&thread,
		&ticket,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.TaskTypeID = taskType.UUID
	t.ProjectTypeID = projectType.UUID
	t.CommentsThreadID = ptrUUID(thread)
	t.LinkedTicketID = ptrUUID(ticket)
	if t.AssignedTo, err = decodeIDs(assignedRaw); err != nil {
		return nil, err
	}
	if t.Followers, err = decodeIDs(followerRaw); err != nil {
		return nil, err
	}
	return &t, nil
}
