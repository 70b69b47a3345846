package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestTicketStatusForTask(t *testing.T) {
	t.Parallel()
	tests := []struct {
		task   TaskStatus
		want   TicketStatus
		mapped bool
	}{
		{TaskStatusToDo, TicketStatusOpen, true},
		{TaskStatusInProgress, TicketStatusInProgress, true},
		{TaskStatusInReview, TicketStatusInProgress, true},
		{TaskStatusCompleted, TicketStatusResolved, true},
		{TaskStatusApproved, TicketStatusResolved, true},
		{TaskStatusBacklogs, "", false},
		{TaskStatusRejected, "", false},
		{TaskStatusDeleted, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.task), func(t *testing.T) {
			got, ok := TicketStatusForTask(tt.task)
			if ok != tt.mapped {
				t.Fatalf("Expected mapped=%v, got %v", tt.mapped, ok)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewTicket(t *testing.T) {
	t.Parallel()
	ticket, err := NewTicket("Printer on fire", uuid.New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ticket.Status != TicketStatusOpen || ticket.IsConvertedToTask || ticket.LinkedTaskID != nil {
		t.Errorf("Expected an open unconverted ticket, got %+v", ticket)
	}

	if _, err := NewTicket("", uuid.New()); err != ErrTicketTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrTicketTitleEmpty, err)
	}
}

func TestParseEntityType(t *testing.T) {
	t.Parallel()
	if e, err := ParseEntityType("tickets"); err != nil || e != EntityTickets {
		t.Errorf("Expected tickets, got %q (%v)", e, err)
	}
	if _, err := ParseEntityType("widgets"); err == nil {
		t.Error("Expected error for unknown entity type")
	}
}
