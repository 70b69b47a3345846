package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicket(t *testing.T, s *Stores) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket("VPN broken", uuid.New())
	require.NoError(t, err)
	require.NoError(t, s.Tickets.Create(context.Background(), ticket))
	return ticket
}

func TestTicketStore_UpdateConvertingIsSingleWriter(t *testing.T) {
	s := New()
	ticket := newTicket(t, s)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cp := *ticket
			err := s.Tickets.UpdateConverting(ctx, &cp)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case store.IsConflictError(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestTicketStore_UpdateNeverClearsLatch(t *testing.T) {
	s := New()
	ticket := newTicket(t, s)
	ctx := context.Background()

	cp := *ticket
	require.NoError(t, s.Tickets.UpdateConverting(ctx, &cp))

	stale := *ticket // IsConvertedToTask false
	stale.Title = "VPN still broken"
	require.NoError(t, s.Tickets.Update(ctx, &stale))

	got, err := s.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, got.IsConvertedToTask)
	assert.Equal(t, "VPN still broken", got.Title)
}

func TestConversionStore_CreateLinkedTask(t *testing.T) {
	s := New()
	ticket := newTicket(t, s)
	ctx := context.Background()

	task, err := domain.NewTask(ticket.Title, uuid.New(), nil)
	require.NoError(t, err)
	thread := domain.NewCommentThread(task.ID)

	require.NoError(t, s.Conversions.CreateLinkedTask(ctx, ticket.ID, task, thread))

	gotTicket, err := s.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	gotTask, err := s.Tasks.FindByLinkedTicket(ctx, ticket.ID)
	require.NoError(t, err)

	require.NotNil(t, gotTicket.LinkedTaskID)
	assert.Equal(t, gotTask.ID, *gotTicket.LinkedTaskID)
	require.NotNil(t, gotTask.LinkedTicketID)
	assert.Equal(t, ticket.ID, *gotTask.LinkedTicketID)
	require.NotNil(t, gotTask.CommentsThreadID)
	_, err = s.Comments.GetThread(ctx, *gotTask.CommentsThreadID)
	require.NoError(t, err)

	another, err := domain.NewTask(ticket.Title, uuid.New(), nil)
	require.NoError(t, err)
	err = s.Conversions.CreateLinkedTask(ctx, ticket.ID, another, domain.NewCommentThread(another.ID))
	assert.ErrorIs(t, err, store.ErrTicketAlreadyLinked)
	_, err = s.Tasks.GetByID(ctx, another.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound, "losing conversion writes nothing")
}

func TestTaskStore_UpdateKeepsLinks(t *testing.T) {
	s := New()
	ticket := newTicket(t, s)
	ctx := context.Background()

	task, err := domain.NewTask("x", uuid.New(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Conversions.CreateLinkedTask(ctx, ticket.ID, task, domain.NewCommentThread(task.ID)))

	edit := *task
	edit.LinkedTicketID = nil
	edit.CommentsThreadID = nil
	edit.Status = domain.TaskStatusInProgress
	require.NoError(t, s.Tasks.Update(ctx, &edit))

	got, err := s.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, got.Status)
	assert.NotNil(t, got.LinkedTicketID)
	assert.NotNil(t, got.CommentsThreadID)
}

func TestRegularizationStore_Unique(t *testing.T) {
	s := New()
	ctx := context.Background()
	attendanceID := uuid.New()

	r := &domain.Regularization{ID: uuid.New(), AttendanceID: attendanceID, Status: domain.RegularizationPending}
	require.NoError(t, s.Regularizations.Create(ctx, r))

	dup := &domain.Regularization{ID: uuid.New(), AttendanceID: attendanceID}
	err := s.Regularizations.Create(ctx, dup)
	assert.ErrorIs(t, err, store.ErrRegularizationExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestCommentStore_ThreadOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	thread := domain.NewCommentThread(uuid.New())
	require.NoError(t, s.Comments.CreateThread(ctx, thread))

	author := uuid.New()
	for _, msg := range []string{"first", "second"} {
		c, err := domain.NewComment(thread.ID, author, msg, nil)
		require.NoError(t, err)
		require.NoError(t, s.Comments.AddComment(ctx, c))
	}

	got, err := s.Comments.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Message)
	assert.Equal(t, "second", got.Latest().Message)

	orphan, err := domain.NewComment(uuid.New(), author, "lost", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Comments.AddComment(ctx, orphan), store.ErrThreadNotFound)
}

func TestReferenceStore_CreateKeepsFirstAsDefault(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.References.CreateTaskType(ctx, "General")
	require.NoError(t, err)
	_, err = s.References.CreateTaskType(ctx, "Bug")
	require.NoError(t, err)

	got, err := s.References.FirstTaskType(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.References.CreateProjectType(ctx, "  ")
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	_, err = s.References.FirstProjectType(ctx)
	assert.ErrorIs(t, err, store.ErrProjectTypeNotFound)
}
