// Package memory implements the store interfaces in process memory.
//
// All stores returned by New share one lock, which lets multi-record
// operations such as ConversionStore.CreateLinkedTask stay atomic. Records are
// copied on the way in and out, so callers never alias stored state.
package memory

import (
	"sync"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

type db struct {
	mu sync.RWMutex

	tasks           map[uuid.UUID]domain.Task
	tickets         map[uuid.UUID]domain.Ticket
	threads         map[uuid.UUID]domain.CommentThread
	comments        []domain.Comment // insertion order
	taskTypes       []domain.TaskType
	projectTypes    []domain.ProjectType
	employees       map[uuid.UUID]domain.Employee
	attendances     map[uuid.UUID]domain.Attendance
	regularizations map[uuid.UUID]domain.Regularization // keyed by attendance id
	notifications   []domain.NotificationRecord
}

// Stores groups every in-memory store over one shared database.
type Stores struct {
	Tasks           *TaskStore
	Tickets         *TicketStore
	Conversions     *ConversionStore
	Comments        *CommentStore
	References      *ReferenceStore
	Employees       *EmployeeStore
	Attendances     *AttendanceStore
	Regularizations *RegularizationStore
	Notifications   *NotificationStore
	Stats           *StatsStore
}

// New returns empty stores sharing one database.
func New() *Stores {
	d := &db{
		tasks:           make(map[uuid.UUID]domain.Task),
		tickets:         make(map[uuid.UUID]domain.Ticket),
		threads:         make(map[uuid.UUID]domain.CommentThread),
		employees:       make(map[uuid.UUID]domain.Employee),
		attendances:     make(map[uuid.UUID]domain.Attendance),
		regularizations: make(map[uuid.UUID]domain.Regularization),
	}
	return &Stores{
		Tasks:           &TaskStore{d},
		Tickets:         &TicketStore{d},
		Conversions:     &ConversionStore{d},
		Comments:        &CommentStore{d},
		References:      &ReferenceStore{d},
		Employees:       &EmployeeStore{d},
		Attendances:     &AttendanceStore{d},
		Regularizations: &RegularizationStore{d},
		Notifications:   &NotificationStore{d},
		Stats:           &StatsStore{d},
	}
}

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func cloneIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTask(t domain.Task) domain.Task {
	t.AssignedTo = cloneIDs(t.AssignedTo)
	t.Followers = cloneIDs(t.Followers)
	t.CommentsThreadID = cloneIDPtr(t.CommentsThreadID)
	t.LinkedTicketID = cloneIDPtr(t.LinkedTicketID)
	return t
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssignedTo = cloneIDPtr(t.AssignedTo)
	t.TaskTypeID = cloneIDPtr(t.TaskTypeID)
	t.ProjectTypeID = cloneIDPtr(t.ProjectTypeID)
	t.LinkedTaskID = cloneIDPtr(t.LinkedTaskID)
	return t
}

func cloneComment(c domain.Comment) domain.Comment {
	c.Mentions = cloneIDs(c.Mentions)
	return c
}
