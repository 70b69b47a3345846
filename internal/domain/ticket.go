package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the support-facing state of a Ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// ErrTicketTitleEmpty is returned when a ticket has no title.
var ErrTicketTitleEmpty = errors.New("ticket title cannot be empty")

// Ticket is a request raised by an employee. It may be converted into a
// Task exactly once; after that IsConvertedToTask stays true and
// LinkedTaskID points at the created task.
type Ticket struct {
	ID                uuid.UUID    `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	Status            TicketStatus `json:"status"`
	CreatedBy         uuid.UUID    `json:"createdBy"`
	AssignedTo        *uuid.UUID   `json:"assignedTo,omitempty"`
	TaskTypeID        *uuid.UUID   `json:"taskTypeId,omitempty"`
	ProjectTypeID     *uuid.UUID   `json:"projectTypeId,omitempty"`
	IsConvertedToTask bool         `json:"isConvertedToTask"`
	LinkedTaskID      *uuid.UUID   `json:"linkedTaskId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// NewTicket creates an open, unconverted ticket.
func NewTicket(title string, createdBy uuid.UUID) (*Ticket, error) {
	now := time.Now().UTC()
	t := &Ticket{
		ID:        uuid.New(),
		Title:     title,
		Status:    TicketStatusOpen,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Ticket has valid data.
func (t *Ticket) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTicketTitleEmpty
	}
	if !t.Status.Valid() {
		return ErrValidation
	}
	return nil
}

// ticketStatusForTask is the one-directional status mapping applied when a
// linked task changes. Task statuses absent here leave the ticket unchanged.
var ticketStatusForTask = map[TaskStatus]TicketStatus{
	TaskStatusToDo:       TicketStatusOpen,
	TaskStatusInProgress: TicketStatusInProgress,
	TaskStatusInReview:   TicketStatusInProgress,
	TaskStatusCompleted:  TicketStatusResolved,
	TaskStatusApproved:   TicketStatusResolved,
}

// TicketStatusForTask returns the ticket status a linked ticket should take
// when its task moves to s. The boolean is false when s has no mapping.
func TicketStatusForTask(s TaskStatus) (TicketStatus, bool) {
	ts, ok := ticketStatusForTask[s]
	return ts, ok
}
