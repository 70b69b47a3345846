package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// NotificationStore persists per-recipient notification records.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.NotificationRecord) error

	// AttachJob records the push job that delivers the notification.
	AttachJob(ctx context.Context, id, jobID uuid.UUID) error

	// SetState updates the delivery state or returns ErrNotificationNotFound.
	SetState(ctx context.Context, id uuid.UUID, state domain.DeliveryState) error

	// ListForRecipient returns the newest records first, at most limit.
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.NotificationRecord, error)
}
