package memory

import (
	"context"
	"sort"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// NotificationStore implements store.NotificationStore.
type NotificationStore struct{ d *db }

var _ store.NotificationStore = (*NotificationStore)(nil)

func (s *NotificationStore) Create(_ context.Context, n *domain.NotificationRecord) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.notifications = append(s.d.notifications, *n)
	return nil
}

func (s *NotificationStore) AttachJob(_ context.Context, id, jobID uuid.UUID) error {
	return s.mutate(id, func(n *domain.NotificationRecord) {
		j := jobID
		n.JobID = &j
	})
}

func (s *NotificationStore) SetState(_ context.Context, id uuid.UUID, state domain.DeliveryState) error {
	return s.mutate(id, func(n *domain.NotificationRecord) { n.State = state })
}

func (s *NotificationStore) mutate(id uuid.UUID, fn func(*domain.NotificationRecord)) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for i := range s.d.notifications {
		if s.d.notifications[i].ID == id {
			fn(&s.d.notifications[i])
			s.d.notifications[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (s *NotificationStore) ListForRecipient(_ context.Context, recipientID uuid.UUID, limit int) ([]domain.NotificationRecord, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make([]domain.NotificationRecord, 0)
	for _, n := range s.d.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns every stored record in insertion order.
func (s *NotificationStore) All() []domain.NotificationRecord {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make([]domain.NotificationRecord, len(s.d.notifications))
	copy(out, s.d.notifications)
	return out
}
