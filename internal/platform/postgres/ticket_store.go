package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

const ticketColumns = `id, title, description, status, created_by, assigned_to, task_type_id,
	project_type_id, is_converted_to_task, linked_task_id, created_at, updated_at`

// PostgresTicketStore implements store.TicketStore.
type PostgresTicketStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTicketStore creates a ticket store over db.
func NewPostgresTicketStore(db store.DBTX, logger *slog.Logger) *PostgresTicketStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTicketStore{
		db:     db,
		logger: logger.With(slog.String("component", "ticket_store")),
	}
}

var _ store.TicketStore = (*PostgresTicketStore)(nil)

// Create inserts a new ticket after domain validation.
func (s *PostgresTicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		ticket.CreatedBy,
		optUUID(ticket.AssignedTo),
		optUUID(ticket.TaskTypeID),
		optUUID(ticket.ProjectTypeID),
		ticket.IsConvertedToTask,
		optUUID(ticket.LinkedTaskID),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		log.Error("failed to create ticket",
			slog.String("error", err.Error()),
			slog.String("ticket_id", ticket.ID.String()))
		return err
	}

	log.Debug("ticket created", slog.String("ticket_id", ticket.ID.String()))
	return nil
}

// GetByID returns the ticket or store.ErrTicketNotFound.
func (s *PostgresTicketStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicket(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err, store.ErrTicketNotFound)
	}
	return t, nil
}

// Update writes the mutable fields. The latch and the task link are left as
// stored.
func (s *PostgresTicketStore) Update(ctx context.Context, ticket *domain.Ticket) error {
	return s.write(ctx, ticket, false)
}

// UpdateConverting writes the ticket and sets the latch in a single
// statement guarded by NOT is_converted_to_task.
func (s *PostgresTicketStore) UpdateConverting(ctx context.Context, ticket *domain.Ticket) error {
	return s.write(ctx, ticket, true)
}

func (s *PostgresTicketStore) write(ctx context.Context, ticket *domain.Ticket, converting bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tickets SET
			title = $2,
			description = $3,
			status = $4,
			assigned_to = $5,
			task_type_id = $6,
			project_type_id = $7,
			updated_at = $8`
	if converting {
		query += `,
			is_converted_to_task = true
		WHERE id = $1 AND NOT is_converted_to_task`
	} else {
		query += `
		WHERE id = $1`
	}
	query += `
		RETURNING ` + ticketColumns

	updated, err := scanTicket(s.db.QueryRowContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		optUUID(ticket.AssignedTo),
		optUUID(ticket.TaskTypeID),
		optUUID(ticket.ProjectTypeID),
		time.Now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) && converting {
		return s.conversionMiss(ctx, ticket.ID)
	}
	if err != nil {
		err = mapNoRows(err, store.ErrTicketNotFound)
		if !store.IsNotFoundError(err) {
			log.Error("failed to update ticket",
				slog.String("error", err.Error()),
				slog.String("ticket_id", ticket.ID.String()),
				slog.Bool("converting", converting))
		}
		return err
	}
	*ticket = *updated
	return nil
}

// conversionMiss tells a missing ticket apart from one whose latch is
// already set.
func (s *PostgresTicketStore) conversionMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrTicketNotFound
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("conversion latch already set",
		slog.String("ticket_id", id.String()))
	return store.ErrTicketAlreadyConverted
}

// ApplyTaskSync writes the fields a linked task propagates.
func (s *PostgresTicketStore) ApplyTaskSync(ctx context.Context, ticketID uuid.UUID, sync store.TicketSync) error {
	var status any
	if sync.Status != nil {
		status = string(*sync.Status)
	}

	query := `
		UPDATE tickets SET
			status = COALESCE($2, status),
			assigned_to = CASE WHEN $3 THEN $4 ELSE assigned_to END,
			updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		ticketID,
		status,
		sync.AssigneeSet,
		optUUID(sync.AssignedTo),
		time.Now().UTC(),
	)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to apply task sync",
			slog.String("error", err.Error()),
			slog.String("ticket_id", ticketID.String()))
		return err
	}
	return CheckRowsAffected(result, store.ErrTicketNotFound)
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		t                                        domain.Ticket
		status                                   string
		assignee, taskType, projectType, linkRef uuid.NullUUID
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&t.CreatedBy,
		&assignee,
		&taskType,
		&projectType,
		&t.IsConvertedToTask,
		&linkRef,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	t.AssignedTo = ptrUUID(assignee)
	t.TaskTypeID = ptrUUID(taskType)
	t.ProjectTypeID = ptrUUID(projectType)
	t.LinkedTaskID = ptrUUID(linkRef)
	return &t, nil
}

// PostgresConversionStore implements store.ConversionStore with one
// transaction per conversion.
type PostgresConversionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresConversionStore creates a conversion store. It needs the pool
// itself to open transactions.
func NewPostgresConversionStore(db *sql.DB, logger *slog.Logger) *PostgresConversionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresConversionStore{
		db:     db,
		logger: logger.With(slog.String("component", "conversion_store")),
	}
}

var _ store.ConversionStore = (*PostgresConversionStore)(nil)

// CreateLinkedTask inserts task and thread and links the ticket. The ticket
// row is locked first, so concurrent callers serialise and the loser sees
// the link.
func (s *PostgresConversionStore) CreateLinkedTask(
	ctx context.Context,
	ticketID uuid.UUID,
	task *domain.Task,
	thread *domain.CommentThread,
) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	link := ticketID
	threadID := thread.ID
	task.LinkedTicketID = &link
	task.CommentsThreadID = &threadID
	thread.TaskID = task.ID

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var linked uuid.NullUUID
		err := tx.QueryRowContext(ctx,
			`SELECT linked_task_id FROM tickets WHERE id = $1 FOR UPDATE`, ticketID).Scan(&linked)
		if err != nil {
			return mapNoRows(err, store.ErrTicketNotFound)
		}
		if linked.Valid {
			return store.ErrTicketAlreadyLinked
		}

		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
		if err := insertThread(ctx, tx, thread); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE tickets SET linked_task_id = $2, updated_at = $3
			WHERE id = $1 AND linked_task_id IS NULL
		`, ticketID, task.ID, time.Now().UTC())
		if err != nil {
			return MapError(err)
		}
		return CheckRowsAffected(result, store.ErrTicketAlreadyLinked)
	})
	if err != nil {
		if !store.IsConflictError(err) {
			log.Error("failed to create linked task",
				slog.String("error", err.Error()),
				slog.String("ticket_id", ticketID.String()),
				slog.String("task_id", task.ID.String()))
		}
		return err
	}

	log.Info("linked task created",
		slog.String("ticket_id", ticketID.String()),
		slog.String("task_id", task.ID.String()),
		slog.String("thread_id", thread.ID.String()))
	return nil
}
