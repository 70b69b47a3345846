package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a Task.
type TaskStatus string

const (
	TaskStatusBacklogs   TaskStatus = "Backlogs"
	TaskStatusToDo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusInReview   TaskStatus = "In Review"
	TaskStatusApproved   TaskStatus = "Approved"
	TaskStatusRejected   TaskStatus = "Rejected"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusDeleted    TaskStatus = "Deleted"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusBacklogs, TaskStatusToDo, TaskStatusInProgress, TaskStatusInReview,
		TaskStatusApproved, TaskStatusRejected, TaskStatusCompleted, TaskStatusDeleted:
		return true
	}
	return false
}

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task has no title.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskCreatorEmpty is returned when a task has no creator.
	ErrTaskCreatorEmpty = errors.New("task creator cannot be empty")

	// ErrTaskStatusInvalid is returned when a task status is not recognised.
	ErrTaskStatusInvalid = errors.New("invalid task status")
)

// Task is a unit of work that may be assigned to several employees and
// followed by others. A task created from a ticket keeps a back-reference
// to it in LinkedTicketID.
type Task struct {
	ID               uuid.UUID   `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Status           TaskStatus  `json:"status"`
	TaskTypeID       uuid.UUID   `json:"taskTypeId"`
	ProjectTypeID    uuid.UUID   `json:"projectTypeId"`
	CreatedBy        uuid.UUID   `json:"createdBy"`
	AssignedTo       []uuid.UUID `json:"assignedTo"`
	Followers        []uuid.UUID `json:"followers"`
	CommentsThreadID *uuid.UUID  `json:"commentsThreadId,omitempty"`
	LinkedTicketID   *uuid.UUID  `json:"linkedTicketId,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// NewTask creates a task in the To Do state with followers seeded from the
// creator and the assignees.
func NewTask(title string, createdBy uuid.UUID, assignedTo []uuid.UUID) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:         uuid.New(),
		Title:      title,
		Status:     TaskStatusToDo,
		CreatedBy:  createdBy,
		AssignedTo: UnionIDs(nil, assignedTo...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.EnsureFollowers()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}
	if t.CreatedBy == uuid.Nil {
		return ErrTaskCreatorEmpty
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrTaskStatusInvalid, t.Status)
	}
	return nil
}

// EnsureFollowers extends Followers so that it contains the creator and every
// assignee. Existing followers keep their order.
func (t *Task) EnsureFollowers() {
	extra := make([]uuid.UUID, 0, len(t.AssignedTo)+1)
	if t.CreatedBy != uuid.Nil {
		extra = append(extra, t.CreatedBy)
	}
	extra = append(extra, t.AssignedTo...)
	t.Followers = UnionIDs(t.Followers, extra...)
}

// PrimaryAssignee returns the first assignee, or nil when the task is unassigned.
func (t *Task) PrimaryAssignee() *uuid.UUID {
	if len(t.AssignedTo) == 0 {
		return nil
	}
	id := t.AssignedTo[0]
	return &id
}

// UnionIDs appends to base every id from extra that is not already present,
// skipping nil UUIDs. The result never contains duplicates.
func UnionIDs(base []uuid.UUID, extra ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(base)+len(extra))
	out := make([]uuid.UUID, 0, len(base)+len(extra))
	for _, list := range [][]uuid.UUID{base, extra} {
		for _, id := range list {
			if id == uuid.Nil {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// DiffIDs returns ids present in next but not in prev, in next's order.
func DiffIDs(prev, next []uuid.UUID) []uuid.UUID {
	had := make(map[uuid.UUID]struct{}, len(prev))
	for _, id := range prev {
		had[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, id := range next {
		if _, ok := had[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
