package store

import (
	"context"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// StatsStore provides the aggregates behind computed reports.
type StatsStore interface {
	TaskStatusCounts(ctx context.Context) (map[domain.TaskStatus]int, error)
	TicketStatusCounts(ctx context.Context) (map[domain.TicketStatus]int, error)

	// AssigneeTaskCounts counts tasks assigned to one employee by status.
	AssigneeTaskCounts(ctx context.Context, employeeID uuid.UUID) (map[domain.TaskStatus]int, error)

	// AttendanceCounts counts attendance statuses with dates in [from, to).
	AttendanceCounts(ctx context.Context, from, to time.Time) (map[domain.AttendanceStatus]int, error)
}
