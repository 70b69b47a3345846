package tasksync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/notify"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fixture struct {
	stores   *memory.Stores
	syncer   *Synchronizer
	registry *hooks.Registry
	notifier *recordingNotifier
}

func newFixture(t *testing.T, withRefs bool) *fixture {
	t.Helper()
	stores := memory.New()
	if withRefs {
		stores.References.AddTaskType("General")
		stores.References.AddProjectType("Internal")
	}
	n := &recordingNotifier{}
	s := New(stores.Tickets, stores.Tasks, stores.Conversions, stores.References, n, setupTestLogger())
	reg := hooks.NewRegistry(setupTestLogger())
	require.NoError(t, s.Register(reg))
	return &fixture{stores: stores, syncer: s, registry: reg, notifier: n}
}

func (f *fixture) seedTicket(t *testing.T, assignee *uuid.UUID) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket("Printer on fire", uuid.New())
	require.NoError(t, err)
	ticket.Description = "third floor"
	ticket.AssignedTo = assignee
	require.NoError(t, f.stores.Tickets.Create(context.Background(), ticket))
	return ticket
}

// updateTicket mirrors the CRUD update path: before-hook, write, after-hook.
func (f *fixture) updateTicket(ctx context.Context, id, actor uuid.UUID, body hooks.Body) error {
	if err := f.registry.RunBeforeUpdate(ctx, domain.EntityTickets, body, id, actor); err != nil {
		return err
	}
	ticket, err := f.stores.Tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tt, _, _ := body.UUID(FieldTaskTypeID); tt != nil {
		ticket.TaskTypeID = tt
	}
	if pt, _, _ := body.UUID(FieldProjectTypeID); pt != nil {
		ticket.ProjectTypeID = pt
	}
	if Converting(body) {
		err = f.stores.Tickets.UpdateConverting(ctx, ticket)
	} else {
		err = f.stores.Tickets.Update(ctx, ticket)
	}
	if err != nil {
		return err
	}
	f.registry.RunAfterUpdate(ctx, domain.EntityTickets, id, body, actor)
	return nil
}

func (f *fixture) updateTask(t *testing.T, id, actor uuid.UUID, body hooks.Body, apply func(*domain.Task)) int {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.registry.RunBeforeUpdate(ctx, domain.EntityTasks, body, id, actor))
	task, err := f.stores.Tasks.GetByID(ctx, id)
	require.NoError(t, err)
	apply(task)
	require.NoError(t, f.stores.Tasks.Update(ctx, task))
	return f.registry.RunAfterUpdate(ctx, domain.EntityTasks, id, body, actor)
}

func (f *fixture) taskCount(t *testing.T) int {
	t.Helper()
	counts, err := f.stores.Stats.TaskStatusCounts(context.Background())
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func (f *fixture) convert(t *testing.T, ticket *domain.Ticket, actor uuid.UUID) *domain.Task {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.updateTicket(ctx, ticket.ID, actor, hooks.Body{FieldConvertToTask: true}))
	task, err := f.stores.Tasks.FindByLinkedTicket(ctx, ticket.ID)
	require.NoError(t, err)
	return task
}

func TestConversion_CreatesLinkedTask(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	assignee, actor := uuid.New(), uuid.New()
	ticket := f.seedTicket(t, &assignee)

	task := f.convert(t, ticket, actor)

	assert.Equal(t, domain.TaskStatusToDo, task.Status)
	assert.Equal(t, ticket.Title, task.Title)
	assert.Equal(t, ticket.Description, task.Description)
	assert.Equal(t, actor, task.CreatedBy)
	assert.Equal(t, []uuid.UUID{assignee}, task.AssignedTo)
	assert.Contains(t, task.Followers, actor)
	assert.Contains(t, task.Followers, assignee)
	assert.Contains(t, task.Followers, ticket.CreatedBy)
	require.NotNil(t, task.LinkedTicketID)
	assert.Equal(t, ticket.ID, *task.LinkedTicketID)
	assert.NotEqual(t, uuid.Nil, task.TaskTypeID, "task type filled from default")
	assert.NotEqual(t, uuid.Nil, task.ProjectTypeID, "project type filled from default")

	got, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, got.IsConvertedToTask)
	require.NotNil(t, got.LinkedTaskID)
	assert.Equal(t, task.ID, *got.LinkedTaskID)

	require.NotNil(t, task.CommentsThreadID)
	thread, err := f.stores.Comments.GetThread(ctx, *task.CommentsThreadID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, thread.TaskID)

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, []domain.EventKind{domain.EventConverted}, f.notifier.events[0].Kinds)
}

func TestConversion_LatchFieldAlsoTriggers(t *testing.T) {
	f := newFixture(t, true)
	ticket := f.seedTicket(t, nil)

	require.NoError(t, f.updateTicket(context.Background(), ticket.ID, uuid.New(),
		hooks.Body{FieldIsConvertedToTask: "true"}))

	_, err := f.stores.Tasks.FindByLinkedTicket(context.Background(), ticket.ID)
	assert.NoError(t, err)
}

func TestConversion_MissingDefaultsIsConfigurationError(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)

	err := f.updateTicket(ctx, ticket.ID, uuid.New(), hooks.Body{FieldConvertToTask: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	var hookErr *hooks.Error
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, hooks.PhaseBeforeUpdate, hookErr.Phase)

	got, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConvertedToTask, "failed before-hook must not persist the latch")
	assert.Zero(t, f.taskCount(t))
}

func TestConversion_GivenReferencesAreKept(t *testing.T) {
	f := newFixture(t, false)
	ticket := f.seedTicket(t, nil)
	tt, pt := uuid.New(), uuid.New()

	require.NoError(t, f.updateTicket(context.Background(), ticket.ID, uuid.New(), hooks.Body{
		FieldConvertToTask: true,
		FieldTaskTypeID:    tt.String(),
		FieldProjectTypeID: pt.String(),
	}))

	task, err := f.stores.Tasks.FindByLinkedTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, tt, task.TaskTypeID)
	assert.Equal(t, pt, task.ProjectTypeID)
}

func TestConversion_SecondRequestConflicts(t *testing.T) {
	f := newFixture(t, true)
	ticket := f.seedTicket(t, nil)
	f.convert(t, ticket, uuid.New())

	err := f.updateTicket(context.Background(), ticket.ID, uuid.New(), hooks.Body{FieldConvertToTask: true})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.taskCount(t))
}

func TestConversion_ResendingLatchIsNoop(t *testing.T) {
	f := newFixture(t, true)
	ticket := f.seedTicket(t, nil)
	f.convert(t, ticket, uuid.New())

	require.NoError(t, f.updateTicket(context.Background(), ticket.ID, uuid.New(),
		hooks.Body{FieldIsConvertedToTask: true}))

	assert.Equal(t, 1, f.taskCount(t))
	assert.Equal(t, 1, f.notifier.count())
}

func TestConversion_ConcurrentRequestsYieldOneTask(t *testing.T) {
	f := newFixture(t, true)
	ticket := f.seedTicket(t, nil)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.updateTicket(context.Background(), ticket.ID, uuid.New(), hooks.Body{FieldConvertToTask: true})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrConflict) && !errors.Is(err, store.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.taskCount(t))
	assert.Equal(t, 1, f.notifier.count())
}

func TestTicketAfterUpdate_IsIdempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)
	actor := uuid.New()

	body := hooks.Body{FieldConvertToTask: true}
	require.NoError(t, f.updateTicket(ctx, ticket.ID, actor, body))
	require.NoError(t, f.syncer.TicketAfterUpdate(ctx, ticket.ID, body, actor))

	assert.Equal(t, 1, f.taskCount(t))
}

func TestTicketAfterUpdate_SkipsPlainEdits(t *testing.T) {
	f := newFixture(t, true)
	ticket := f.seedTicket(t, nil)

	require.NoError(t, f.updateTicket(context.Background(), ticket.ID, uuid.New(), hooks.Body{"title": "new"}))

	assert.Zero(t, f.taskCount(t))
}

func TestTaskUpdate_StatusFlowsToTicket(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)
	actor := uuid.New()
	task := f.convert(t, ticket, actor)

	cases := []struct {
		task   domain.TaskStatus
		ticket domain.TicketStatus
	}{
		{domain.TaskStatusInProgress, domain.TicketStatusInProgress},
		{domain.TaskStatusInReview, domain.TicketStatusInProgress},
		{domain.TaskStatusCompleted, domain.TicketStatusResolved},
		{domain.TaskStatusToDo, domain.TicketStatusOpen},
	}
	for _, tc := range cases {
		t.Run(string(tc.task), func(t *testing.T) {
			failed := f.updateTask(t, task.ID, actor, hooks.Body{"status": string(tc.task)}, func(tk *domain.Task) {
				tk.Status = tc.task
			})
			assert.Zero(t, failed)

			got, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.ticket, got.Status)
		})
	}
}

func TestTaskUpdate_UnmappedStatusLeavesTicket(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)
	actor := uuid.New()
	task := f.convert(t, ticket, actor)

	f.updateTask(t, task.ID, actor, hooks.Body{"status": "Backlogs"}, func(tk *domain.Task) {
		tk.Status = domain.TaskStatusBacklogs
	})

	got, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}

func TestTaskUpdate_PrimaryAssigneeFlowsToTicket(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)
	actor, a, b := uuid.New(), uuid.New(), uuid.New()
	task := f.convert(t, ticket, actor)

	f.updateTask(t, task.ID, actor, hooks.Body{"assignedTo": []any{a.String(), b.String()}}, func(tk *domain.Task) {
		tk.AssignedTo = []uuid.UUID{a, b}
	})
	got, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, a, *got.AssignedTo)

	f.updateTask(t, task.ID, actor, hooks.Body{"assignedTo": []any{}}, func(tk *domain.Task) {
		tk.AssignedTo = nil
	})
	got, err = f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
}

func TestTicketEdits_DoNotFlowToTask(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	ticket := f.seedTicket(t, nil)
	task := f.convert(t, ticket, uuid.New())

	cur, err := f.stores.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	cur.Title = "renamed"
	cur.Status = domain.TicketStatusResolved
	require.NoError(t, f.stores.Tickets.Update(ctx, cur))
	f.registry.RunAfterUpdate(ctx, domain.EntityTickets, ticket.ID, hooks.Body{"title": "renamed", "status": "Resolved"}, uuid.New())

	got, err := f.stores.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, domain.TaskStatusToDo, got.Status)
}

func TestTaskUpdate_UnlinkedTaskIsIgnored(t *testing.T) {
	f := newFixture(t, true)
	task, err := domain.NewTask("standalone", uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, f.stores.Tasks.Create(context.Background(), task))

	failed := f.updateTask(t, task.ID, uuid.New(), hooks.Body{"status": "Completed"}, func(tk *domain.Task) {
		tk.Status = domain.TaskStatusCompleted
	})

	assert.Zero(t, failed)
}
