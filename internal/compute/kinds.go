package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// Built-in kinds.
const (
	KindMonthlyReport  = "monthly_report"
	KindDashboardStats = "dashboard_stats"
	KindEmployeeStats  = "employee_stats"
)

// DashboardStats summarizes task and ticket workload.
type DashboardStats struct {
	Tasks       map[domain.TaskStatus]int   `json:"tasks"`
	Tickets     map[domain.TicketStatus]int `json:"tickets"`
	OpenTasks   int                         `json:"openTasks"`
	GeneratedAt time.Time                   `json:"generatedAt"`
}

// EmployeeStats counts one employee's tasks by status.
type EmployeeStats struct {
	EmployeeID  uuid.UUID                 `json:"employeeId"`
	Tasks       map[domain.TaskStatus]int `json:"tasks"`
	GeneratedAt time.Time                 `json:"generatedAt"`
}

// MonthlyReport counts attendance entries for a calendar month.
type MonthlyReport struct {
	Month       string                          `json:"month"`
	Attendance  map[domain.AttendanceStatus]int `json:"attendance"`
	GeneratedAt time.Time                       `json:"generatedAt"`
}

// closed task statuses do not count as open work.
var closedTaskStatuses = map[domain.TaskStatus]bool{
	domain.TaskStatusCompleted: true,
	domain.TaskStatusApproved:  true,
	domain.TaskStatusRejected:  true,
	domain.TaskStatusDeleted:   true,
}

// DefaultKinds returns the built-in aggregates computed from stats.
func DefaultKinds(stats store.StatsStore) []Kind {
	return []Kind{
		{
			Name: KindMonthlyReport,
			TTL:  time.Hour,
			Validate: func(p map[string]string) error {
				_, _, err := monthRange(p["month"])
				return err
			},
			Run: func(ctx context.Context, p map[string]string) (any, error) {
				from, to, err := monthRange(p["month"])
				if err != nil {
					return nil, err
				}
				counts, err := stats.AttendanceCounts(ctx, from, to)
				if err != nil {
					return nil, err
				}
				return MonthlyReport{Month: p["month"], Attendance: counts, GeneratedAt: time.Now().UTC()}, nil
			},
		},
		{
			Name: KindDashboardStats,
			TTL:  5 * time.Minute,
			Run: func(ctx context.Context, _ map[string]string) (any, error) {
				tasks, err := stats.TaskStatusCounts(ctx)
				if err != nil {
					return nil, err
				}
				tickets, err := stats.TicketStatusCounts(ctx)
				if err != nil {
					return nil, err
				}
				open := 0
				for status, n := range tasks {
					if !closedTaskStatuses[status] {
						open += n
					}
				}
				return DashboardStats{Tasks: tasks, Tickets: tickets, OpenTasks: open, GeneratedAt: time.Now().UTC()}, nil
			},
		},
		{
			Name: KindEmployeeStats,
			TTL:  10 * time.Minute,
			Validate: func(p map[string]string) error {
				_, err := employeeParam(p)
				return err
			},
			Run: func(ctx context.Context, p map[string]string) (any, error) {
				id, err := employeeParam(p)
				if err != nil {
					return nil, err
				}
				counts, err := stats.AssigneeTaskCounts(ctx, id)
				if err != nil {
					return nil, err
				}
				return EmployeeStats{EmployeeID: id, Tasks: counts, GeneratedAt: time.Now().UTC()}, nil
			},
		},
	}
}

// monthRange parses YYYY-MM into the half-open interval [first day, next month).
func monthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", domain.ErrValidation)
	}
	return start, start.AddDate(0, 1, 0), nil
}

func employeeParam(p map[string]string) (uuid.UUID, error) {
	id, err := uuid.Parse(p["employeeId"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: employeeId must be a UUID", domain.ErrValidation)
	}
	return id, nil
}
