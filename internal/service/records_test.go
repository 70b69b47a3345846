package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/attendance"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/notify"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store/memory"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/tasksync"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc    *RecordService
	stores *memory.Stores
	jobs   *queue.MemoryStore
}

func newFixture(t *testing.T, enqueuer notify.Enqueuer) *fixture {
	t.Helper()
	logger := setupTestLogger()
	stores := memory.New()
	stores.References.AddTaskType("General")
	stores.References.AddProjectType("Internal")

	jobs := queue.NewMemoryStore()
	if enqueuer == nil {
		enqueuer = queue.NewRunner(jobs, queue.DefaultRunnerConfig(), logger)
	}

	reg := hooks.NewRegistry(logger)
	dispatcher := notify.NewDispatcher(stores.Notifications, stores.Employees, stores.Tasks, stores.Comments, enqueuer, logger)
	require.NoError(t, dispatcher.Register(reg))
	require.NoError(t, tasksync.New(stores.Tickets, stores.Tasks, stores.Conversions, stores.References, dispatcher, logger).Register(reg))
	require.NoError(t, attendance.NewRegularizer(stores.Attendances, stores.Regularizations, logger).Register(reg))

	svc, err := NewRecordService(reg, Stores{
		Tasks:         stores.Tasks,
		Tickets:       stores.Tickets,
		Comments:      stores.Comments,
		Attendances:   stores.Attendances,
		Employees:     stores.Employees,
		Notifications: stores.Notifications,
	}, logger)
	require.NoError(t, err)
	return &fixture{svc: svc, stores: stores, jobs: jobs}
}

func (f *fixture) pushRecipients(t *testing.T) []uuid.UUID {
	t.Helper()
	list, err := f.jobs.List(context.Background(), queue.Filter{Queue: queue.QueuePush})
	require.NoError(t, err)
	out := make([]uuid.UUID, 0, len(list))
	for i := range list {
		p, err := queue.Decode[queue.PushPayload](&list[i])
		require.NoError(t, err)
		out = append(out, p.RecipientID)
	}
	return out
}

func ids(list ...uuid.UUID) []any {
	out := make([]any, len(list))
	for i, id := range list {
		out[i] = id.String()
	}
	return out
}

func TestNewRecordService_RequiresDependencies(t *testing.T) {
	_, err := NewRecordService(nil, Stores{}, nil)
	assert.Error(t, err)

	_, err = NewRecordService(hooks.NewRegistry(nil), Stores{}, nil)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "create_service", svcErr.Operation)
}

func TestCreateTask_SeedsFollowersAndThread(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	creator, a := uuid.New(), uuid.New()

	task, err := f.svc.CreateTask(ctx, hooks.Body{"title": "Write docs", "assignedTo": ids(a)}, creator)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusToDo, task.Status)
	assert.Equal(t, creator, task.CreatedBy)
	assert.ElementsMatch(t, []uuid.UUID{creator, a}, task.Followers)
	require.NotNil(t, task.CommentsThreadID)
	_, err = f.svc.GetThread(ctx, *task.CommentsThreadID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, f.pushRecipients(t))
}

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateTask(context.Background(), hooks.Body{"title": "  "}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateTask(context.Background(), hooks.Body{"title": "x", "status": "Someday"}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Ticket{Open, unconverted} updated with convertToTask yields a To Do task
// linked both ways.
func TestScenarioA_TicketConversion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	reporter, agent := uuid.New(), uuid.New()

	ticket, err := f.svc.CreateTicket(ctx, hooks.Body{"title": "VPN drops", "assignedTo": agent.String()}, reporter)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.False(t, ticket.IsConvertedToTask)

	updated, err := f.svc.UpdateTicket(ctx, ticket.ID, hooks.Body{"convertToTask": true}, agent)
	require.NoError(t, err)

	assert.True(t, updated.IsConvertedToTask)
	require.NotNil(t, updated.LinkedTaskID, "response reflects the link made by the after-hook")

	task, err := f.svc.GetTask(ctx, *updated.LinkedTaskID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusToDo, task.Status)
	require.NotNil(t, task.LinkedTicketID)
	assert.Equal(t, ticket.ID, *task.LinkedTicketID)
	assert.Contains(t, task.Followers, agent)
	assert.NotEqual(t, uuid.Nil, task.TaskTypeID)
}

func TestTicketConversion_ConcurrentUpdatesYieldOneTask(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ticket, err := f.svc.CreateTicket(ctx, hooks.Body{"title": "dup"}, uuid.New())
	require.NoError(t, err)

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		okCount  int
		conflict int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateTicket(ctx, ticket.ID, hooks.Body{"convertToTask": true}, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, domain.ErrConflict), errors.Is(err, store.ErrConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, okCount)
	assert.Equal(t, n-1, conflict)

	counts, err := f.stores.Stats.TaskStatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TaskStatusToDo])
}

// Task To Do -> In Progress moves the linked ticket and notifies every
// follower except the updater.
func TestScenarioB_StatusPropagation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	reporter, agent, watcher := uuid.New(), uuid.New(), uuid.New()

	ticket, err := f.svc.CreateTicket(ctx, hooks.Body{"title": "Laptop", "assignedTo": agent.String()}, reporter)
	require.NoError(t, err)
	converted, err := f.svc.UpdateTicket(ctx, ticket.ID, hooks.Body{"convertToTask": true}, agent)
	require.NoError(t, err)
	taskID := *converted.LinkedTaskID

	_, err = f.svc.UpdateTask(ctx, taskID, hooks.Body{"followers": ids(agent, reporter, watcher)}, agent)
	require.NoError(t, err)

	before := len(f.stores.Notifications.All())
	task, err := f.svc.UpdateTask(ctx, taskID, hooks.Body{"status": "In Progress"}, agent)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)

	got, err := f.svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)

	var recipients []uuid.UUID
	for _, rec := range f.stores.Notifications.All()[before:] {
		assert.Equal(t, domain.EventStatusChanged, rec.Kind)
		recipients = append(recipients, rec.RecipientID)
	}
	assert.ElementsMatch(t, []uuid.UUID{reporter, watcher}, recipients)
}

func TestUpdateTask_FanOut(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	task, err := f.svc.CreateTask(ctx, hooks.Body{"title": "Fan", "assignedTo": ids(a, b), "followers": ids(a, c)}, a)
	require.NoError(t, err)
	before := len(f.stores.Notifications.All())

	_, err = f.svc.UpdateTask(ctx, task.ID, hooks.Body{"description": "v2", "mentions": ids(d)}, a)
	require.NoError(t, err)

	var recipients []uuid.UUID
	for _, rec := range f.stores.Notifications.All()[before:] {
		recipients = append(recipients, rec.RecipientID)
	}
	assert.ElementsMatch(t, []uuid.UUID{b, c, d}, recipients)
}

type brokenQueue struct{}

func (brokenQueue) Enqueue(context.Context, queue.Request) (queue.Handle, error) {
	return queue.Handle{}, errors.New("queue offline")
}

func TestUpdateTask_NotificationFailureDoesNotBlockSync(t *testing.T) {
	f := newFixture(t, brokenQueue{})
	ctx := context.Background()
	agent := uuid.New()

	ticket, err := f.svc.CreateTicket(ctx, hooks.Body{"title": "Isolated", "assignedTo": agent.String()}, uuid.New())
	require.NoError(t, err)
	converted, err := f.svc.UpdateTicket(ctx, ticket.ID, hooks.Body{"convertToTask": true}, agent)
	require.NoError(t, err, "after-hook failures never reach the caller")
	require.NotNil(t, converted.LinkedTaskID)

	_, err = f.svc.UpdateTask(ctx, *converted.LinkedTaskID, hooks.Body{"status": "Completed"}, agent)
	require.NoError(t, err)

	got, err := f.svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, got.Status)
}

func TestUpdateTicket_BeforeHookFailureAbortsWrite(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ticket, err := f.svc.CreateTicket(ctx, hooks.Body{"title": "Keep"}, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.UpdateTicket(ctx, ticket.ID, hooks.Body{"title": "Changed", "convertToTask": "maybe"}, uuid.New())
	require.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)
}

func TestUpdateMissingRecord(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.UpdateEmployee(context.Background(), uuid.New(), hooks.Body{"name": "x"}, uuid.New())

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner, d := uuid.New(), uuid.New()
	task, err := f.svc.CreateTask(ctx, hooks.Body{"title": "Chat"}, owner)
	require.NoError(t, err)

	c, err := f.svc.AddComment(ctx, task.ID, hooks.Body{"message": "look", "mentions": ids(d)}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{d}, c.Mentions)

	thread, err := f.svc.GetThread(ctx, *task.CommentsThreadID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, c.ID, thread.Comments[0].ID)
	assert.ElementsMatch(t, []uuid.UUID{owner, d}, f.pushRecipients(t))

	_, err = f.svc.AddComment(ctx, task.ID, hooks.Body{"message": ""}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAttendanceRegularization(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	employee := uuid.New()

	a, err := f.svc.CreateAttendance(ctx, hooks.Body{"date": "2024-05-10", "status": "Late"}, employee)
	require.NoError(t, err)
	assert.Equal(t, employee, a.EmployeeID)

	_, err = f.svc.UpdateAttendance(ctx, a.ID, hooks.Body{"regularizationRequested": true}, employee)
	assert.ErrorIs(t, err, domain.ErrValidation, "a reason is required")

	_, err = f.svc.UpdateAttendance(ctx, a.ID, hooks.Body{
		"regularizationRequested": true,
		"regularizationReason":    "badge reader down",
	}, employee)
	require.NoError(t, err)

	r, err := f.stores.Regularizations.GetByAttendance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "badge reader down", r.Reason)
}

func TestEmployees(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, err := f.svc.CreateEmployee(ctx, hooks.Body{"name": "Dee", "email": "dee@example.com"}, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.UpdateEmployee(ctx, e.ID, hooks.Body{"email": "not-an-email"}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.svc.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "dee@example.com", got.Email)
}

func TestListNotifications(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner, a := uuid.New(), uuid.New()
	_, err := f.svc.CreateTask(ctx, hooks.Body{"title": "One", "assignedTo": ids(a)}, owner)
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, hooks.Body{"title": "Two", "assignedTo": ids(a)}, owner)
	require.NoError(t, err)

	list, err := f.svc.ListNotifications(ctx, a, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	none, err := f.svc.ListNotifications(ctx, owner, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
