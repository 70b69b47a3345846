package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind describes why a notification was raised.
type EventKind string

const (
	EventStatusChanged EventKind = "status_changed"
	EventAssigned      EventKind = "assigned"
	EventCommented     EventKind = "commented"
	EventConverted     EventKind = "converted"
	EventUpdated       EventKind = "updated"
)

// DeliveryState tracks a notification through the push queue.
type DeliveryState string

const (
	DeliveryPending DeliveryState = "pending"
	DeliverySent    DeliveryState = "sent"
	DeliveryDead    DeliveryState = "dead"
)

// NotificationRecord is the persisted copy of a notification sent to one
// recipient. JobID references the push job that delivers it.
type NotificationRecord struct {
	ID          uuid.UUID      `json:"id"`
	RecipientID uuid.UUID      `json:"recipientId"`
	ActorID     uuid.UUID      `json:"actorId"`
	Kind        EventKind      `json:"kind"`
	EntityType  EntityType     `json:"entityType"`
	EntityID    uuid.UUID      `json:"entityId"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
	State       DeliveryState  `json:"state"`
	JobID       *uuid.UUID     `json:"jobId,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
