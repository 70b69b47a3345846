package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	t.Parallel()
	creator := uuid.New()
	a, b := uuid.New(), uuid.New()

	task, err := NewTask("Fix login", creator, []uuid.UUID{a, b, a})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Status != TaskStatusToDo {
		t.Errorf("Expected status %q, got %q", TaskStatusToDo, task.Status)
	}
	if len(task.AssignedTo) != 2 {
		t.Errorf("Expected duplicate assignees to collapse, got %v", task.AssignedTo)
	}
	for _, id := range []uuid.UUID{creator, a, b} {
		if !ContainsID(task.Followers, id) {
			t.Errorf("Expected followers to contain %s", id)
		}
	}

	_, err = NewTask("  ", creator, nil)
	if err != ErrTaskTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}

	_, err = NewTask("title", uuid.Nil, nil)
	if err != ErrTaskCreatorEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskCreatorEmpty, err)
	}
}

func TestTaskValidate_Status(t *testing.T) {
	t.Parallel()
	task, err := NewTask("x", uuid.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	task.Status = "Paused"
	if err := task.Validate(); !errors.Is(err, ErrTaskStatusInvalid) {
		t.Errorf("Expected ErrTaskStatusInvalid, got %v", err)
	}
}

func TestEnsureFollowers_KeepsExistingOrder(t *testing.T) {
	t.Parallel()
	f1, creator, a := uuid.New(), uuid.New(), uuid.New()
	task := &Task{CreatedBy: creator, AssignedTo: []uuid.UUID{a}, Followers: []uuid.UUID{f1, a}}

	task.EnsureFollowers()

	want := []uuid.UUID{f1, a, creator}
	if len(task.Followers) != len(want) {
		t.Fatalf("Expected %v, got %v", want, task.Followers)
	}
	for i := range want {
		if task.Followers[i] != want[i] {
			t.Errorf("Follower %d: expected %s, got %s", i, want[i], task.Followers[i])
		}
	}
}

func TestPrimaryAssignee(t *testing.T) {
	t.Parallel()
	task := &Task{}
	if task.PrimaryAssignee() != nil {
		t.Error("Expected nil primary assignee for unassigned task")
	}
	a, b := uuid.New(), uuid.New()
	task.AssignedTo = []uuid.UUID{a, b}
	if got := task.PrimaryAssignee(); got == nil || *got != a {
		t.Errorf("Expected %s, got %v", a, got)
	}
}

func TestDiffIDs(t *testing.T) {
	t.Parallel()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	got := DiffIDs([]uuid.UUID{a}, []uuid.UUID{a, b, c})
	if len(got) != 2 || got[0] != b || got[1] != c {
		t.Errorf("Expected [%s %s], got %v", b, c, got)
	}
	if DiffIDs([]uuid.UUID{a, b}, []uuid.UUID{b}) != nil {
		t.Error("Expected no added ids when next is a subset")
	}
}

func TestUnionIDs_SkipsNil(t *testing.T) {
	t.Parallel()
	a := uuid.New()
	got := UnionIDs([]uuid.UUID{uuid.Nil, a}, uuid.Nil, a)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Expected [%s], got %v", a, got)
	}
}
