package api

import (
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
)

// NotificationList is the response for GET /api/notifications.
type NotificationList struct {
	Notifications []domain.NotificationRecord `json:"notifications"`
}

// MonthlyReportQuery is the query for GET /api/reports/monthly.
type MonthlyReportQuery struct {
	Month string `validate:"required,datetime=2006-01"`
}

// JobAccepted is the 202 response for a computation that was queued.
type JobAccepted struct {
	Kind       string    `json:"kind"`
	JobID      string    `json:"jobId"`
	Queue      string    `json:"queue"`
	Type       string    `json:"type"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func jobAccepted(kind string, h queue.Handle) JobAccepted {
	return JobAccepted{
		Kind:       kind,
		JobID:      h.ID.String(),
		Queue:      string(h.Queue),
		Type:       h.Type,
		EnqueuedAt: h.EnqueuedAt,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
