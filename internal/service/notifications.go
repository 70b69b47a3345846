package service

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// DefaultNotificationLimit caps ListNotifications when no limit is given.
const DefaultNotificationLimit = 50

// ListNotifications returns the recipient's notifications, newest first.
func (s *RecordService) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.NotificationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = DefaultNotificationLimit
	}
	out, err := s.stores.Notifications.ListForRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, NewServiceError("list_notifications", "failed to list notifications", err)
	}
	return out, nil
}
