package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

const notificationColumns = `id, recipient_id, actor_id, kind, entity_type, entity_id, title, body,
	data, state, job_id, created_at, updated_at`

// PostgresNotificationStore implements store.NotificationStore.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a notification store over db.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.NotificationRecord) error {
	var data any
	if n.Data != nil {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("%w: encode notification data: %v", store.ErrInvalidEntity, err)
		}
		data = b
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		n.ID,
		n.RecipientID,
		n.ActorID,
		string(n.Kind),
		string(n.EntityType),
		n.EntityID,
		n.Title,
		n.Body,
		data,
		string(n.State),
		optUUID(n.JobID),
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("recipient_id", n.RecipientID.String()))
		return err
	}
	return nil
}

func (s *PostgresNotificationStore) AttachJob(ctx context.Context, id, jobID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET job_id = $2, updated_at = $3 WHERE id = $1`,
		id, jobID, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

func (s *PostgresNotificationStore) SetState(ctx context.Context, id uuid.UUID, state domain.DeliveryState) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET state = $2, updated_at = $3 WHERE id = $1`,
		id, string(state), time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// ListForRecipient returns the newest records first. A limit of zero or less
// returns every record.
func (s *PostgresNotificationStore) ListForRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	limit int,
) ([]domain.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id`
	args := []any{recipientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipientID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.NotificationRecord, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func scanNotification(row rowScanner) (*domain.NotificationRecord, error) {
	var (
		n                       domain.NotificationRecord
		kind, entityType, state string
		data                    []byte
		jobID                   uuid.NullUUID
	)
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.ActorID,
		&kind,
		&entityType,
		&n.EntityID,
		&n.Title,
		&n.Body,
		&data,
		&state,
		&jobID,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Kind = domain.EventKind(kind)
	n.EntityType = domain.EntityType(entityType)
	n.State = domain.DeliveryState(state)
	n.JobID = ptrUUID(jobID)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("decode notification data: %w", err)
		}
	}
	return &n, nil
}
