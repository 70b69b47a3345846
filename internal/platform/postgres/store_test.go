package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMock returns a sqlmock-backed pool whose expectations are checked on cleanup.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var (
	taskCols = []string{"id", "title", "description", "status", "task_type_id", "project_type_id",
		"created_by", "assigned_to", "followers", "comments_thread_id", "linked_ticket_id",
		"created_at", "updated_at"}
	ticketCols = []string{"id", "title", "description", "status", "created_by", "assigned_to",
		"task_type_id", "project_type_id", "is_converted_to_task", "linked_task_id",
		"created_at", "updated_at"}
)

func ticketRow(t *domain.Ticket) *sqlmock.Rows {
	var assignee, link any
	if t.AssignedTo != nil {
		assignee = t.AssignedTo.String()
	}
	if t.LinkedTaskID != nil {
		link = t.LinkedTaskID.String()
	}
	return sqlmock.NewRows(ticketCols).AddRow(
		t.ID.String(), t.Title, t.Description, string(t.Status), t.CreatedBy.String(),
		assignee, nil, nil, t.IsConvertedToTask, link, t.CreatedAt, t.UpdatedAt,
	)
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, setupTestLogger())
	ctx := context.Background()

	creator, assignee := uuid.New(), uuid.New()
	task, err := domain.NewTask("Ship it", creator, []uuid.UUID{assignee})
	require.NoError(t, err)

	mock.ExpectExec(q("INSERT INTO tasks")).
		WithArgs(task.ID.String(), "Ship it", "", "To Do", nil, nil, creator.String(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(ctx, task))

	followers := `["` + creator.String() + `","` + assignee.String() + `"]`
	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).
		WithArgs(task.ID.String()).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			task.ID.String(), "Ship it", "", "To Do", nil, nil, creator.String(),
			[]byte(`["`+assignee.String()+`"]`), []byte(followers), nil, nil,
			task.CreatedAt, task.UpdatedAt,
		))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusToDo, got.Status)
	assert.Equal(t, []uuid.UUID{assignee}, got.AssignedTo)
	assert.Equal(t, []uuid.UUID{creator, assignee}, got.Followers)
	assert.Equal(t, uuid.Nil, got.TaskTypeID)
	assert.Nil(t, got.LinkedTicketID)
}

func TestTaskStore_CreateRejectsInvalid(t *testing.T) {
	db, _ := newMock(t)
	s := NewPostgresTaskStore(db, setupTestLogger())

	err := s.Create(context.Background(), &domain.Task{ID: uuid.New(), CreatedBy: uuid.New(), Status: domain.TaskStatusToDo})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)
}

func TestTaskStore_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, setupTestLogger())

	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).WillReturnError(sql.ErrNoRows)
	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTicketStore_UpdateConverting(t *testing.T) {
	ctx := context.Background()
	ticket, err := domain.NewTicket("Printer on fire", uuid.New())
	require.NoError(t, err)

	t.Run("sets the latch", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresTicketStore(db, setupTestLogger())

		stored := *ticket
		stored.IsConvertedToTask = true
		mock.ExpectQuery(q("is_converted_to_task = true") + ".*" + q("AND NOT is_converted_to_task")).
			WillReturnRows(ticketRow(&stored))

		in := *ticket
		require.NoError(t, s.UpdateConverting(ctx, &in))
		assert.True(t, in.IsConvertedToTask)
	})

	t.Run("latch already set", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresTicketStore(db, setupTestLogger())

		mock.ExpectQuery(q("AND NOT is_converted_to_task")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(q("SELECT EXISTS")).
			WithArgs(ticket.ID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		in := *ticket
		err := s.UpdateConverting(ctx, &in)
		assert.ErrorIs(t, err, store.ErrTicketAlreadyConverted)
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("missing ticket", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresTicketStore(db, setupTestLogger())

		mock.ExpectQuery(q("AND NOT is_converted_to_task")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(q("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		in := *ticket
		assert.ErrorIs(t, s.UpdateConverting(ctx, &in), store.ErrTicketNotFound)
	})
}

func TestTicketStore_PlainUpdateLeavesLatch(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTicketStore(db, setupTestLogger())

	ticket, err := domain.NewTicket("Badge reader", uuid.New())
	require.NoError(t, err)
	stored := *ticket
	stored.IsConvertedToTask = true

	// The plain update statement never mentions the latch column in SET.
	mock.ExpectQuery(`UPDATE tickets SET\s+title = \$2,(?s:.)*updated_at = \$8\s+WHERE id = \$1\s+RETURNING`).
		WillReturnRows(ticketRow(&stored))

	in := *ticket
	require.NoError(t, s.Update(context.Background(), &in))
	assert.True(t, in.IsConvertedToTask, "stored latch is returned")
}

func TestTicketStore_ApplyTaskSync(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTicketStore(db, setupTestLogger())
	ctx := context.Background()

	id := uuid.New()
	resolved := domain.TicketStatusResolved
	mock.ExpectExec(q("status = COALESCE($2, status)")).
		WithArgs(id.String(), "Resolved", false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.ApplyTaskSync(ctx, id, store.TicketSync{Status: &resolved}))

	assignee := uuid.New()
	mock.ExpectExec(q("UPDATE tickets SET")).
		WithArgs(id.String(), nil, true, assignee.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.ApplyTaskSync(ctx, id, store.TicketSync{AssigneeSet: true, AssignedTo: &assignee})
	assert.ErrorIs(t, err, store.ErrTicketNotFound)
}

func TestConversionStore_CreateLinkedTask(t *testing.T) {
	ctx := context.Background()
	ticketID := uuid.New()

	newTask := func(t *testing.T) (*domain.Task, *domain.CommentThread) {
		task, err := domain.NewTask("From ticket", uuid.New(), nil)
		require.NoError(t, err)
		return task, domain.NewCommentThread(uuid.Nil)
	}

	t.Run("links task and thread", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresConversionStore(db, setupTestLogger())
		task, thread := newTask(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("FOR UPDATE")).
			WithArgs(ticketID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"linked_task_id"}).AddRow(nil))
		mock.ExpectExec(q("INSERT INTO tasks")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("INSERT INTO comment_threads")).
			WithArgs(thread.ID.String(), task.ID.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("linked_task_id IS NULL")).
			WithArgs(ticketID.String(), task.ID.String(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.CreateLinkedTask(ctx, ticketID, task, thread))
		require.NotNil(t, task.LinkedTicketID)
		assert.Equal(t, ticketID, *task.LinkedTicketID)
		require.NotNil(t, task.CommentsThreadID)
		assert.Equal(t, thread.ID, *task.CommentsThreadID)
		assert.Equal(t, task.ID, thread.TaskID)
	})

	t.Run("already linked rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresConversionStore(db, setupTestLogger())
		task, thread := newTask(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("FOR UPDATE")).
			WillReturnRows(sqlmock.NewRows([]string{"linked_task_id"}).AddRow(uuid.New().String()))
		mock.ExpectRollback()

		err := s.CreateLinkedTask(ctx, ticketID, task, thread)
		assert.ErrorIs(t, err, store.ErrTicketAlreadyLinked)
	})

	t.Run("missing ticket", func(t *testing.T) {
		db, mock := newMock(t)
		s := NewPostgresConversionStore(db, setupTestLogger())
		task, thread := newTask(t)

		mock.ExpectBegin()
		mock.ExpectQuery(q("FOR UPDATE")).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		assert.ErrorIs(t, s.CreateLinkedTask(ctx, ticketID, task, thread), store.ErrTicketNotFound)
	})
}

func TestCommentStore_AddCommentToMissingThread(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresCommentStore(db, setupTestLogger())

	c, err := domain.NewComment(uuid.New(), uuid.New(), "hello", nil)
	require.NoError(t, err)

	mock.ExpectExec(q("INSERT INTO comments")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.AddComment(context.Background(), c), store.ErrThreadNotFound)
}

func TestCommentStore_GetThreadOrdersComments(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresCommentStore(db, setupTestLogger())

	threadID, taskID, author, mentioned := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(q("FROM comment_threads WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "created_at", "updated_at"}).
			AddRow(threadID.String(), taskID.String(), now, now))
	mock.ExpectQuery(q("ORDER BY created_at, id")).
		WithArgs(threadID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "thread_id", "author_id", "message", "mentions", "created_at"}).
			AddRow(uuid.New().String(), threadID.String(), author.String(), "first", []byte(`[]`), now).
			AddRow(uuid.New().String(), threadID.String(), author.String(), "second",
				[]byte(`["`+mentioned.String()+`"]`), now.Add(time.Second)))

	thread, err := s.GetThread(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, "first", thread.Comments[0].Message)
	assert.Nil(t, thread.Comments[0].Mentions)
	assert.Equal(t, []uuid.UUID{mentioned}, thread.Comments[1].Mentions)
	assert.Equal(t, "second", thread.Latest().Message)
}

func TestRegularizationStore_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresRegularizationStore(db, setupTestLogger())

	mock.ExpectExec(q("INSERT INTO regularizations")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "regularizations_attendance_id_key"})

	err := s.Create(context.Background(), &domain.Regularization{
		ID: uuid.New(), AttendanceID: uuid.New(), EmployeeID: uuid.New(),
		Reason: "forgot to punch", Status: domain.RegularizationPending, CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, store.ErrRegularizationExists)
}

func TestNotificationStore_ListForRecipient(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresNotificationStore(db, setupTestLogger())

	recipient, actor, entity, job := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "recipient_id", "actor_id", "kind", "entity_type", "entity_id", "title",
		"body", "data", "state", "job_id", "created_at", "updated_at"}

	mock.ExpectQuery(q("ORDER BY created_at DESC, id LIMIT $2")).
		WithArgs(recipient.String(), 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.New().String(), recipient.String(), actor.String(), "status_changed", "tasks",
				entity.String(), "Task updated", "", []byte(`{"status":"Completed"}`), "sent",
				job.String(), now, now).
			AddRow(uuid.New().String(), recipient.String(), actor.String(), "commented", "comments",
				entity.String(), "New comment", "hi", nil, "pending", nil, now.Add(-time.Minute), now))

	list, err := s.ListForRecipient(context.Background(), recipient, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.EventStatusChanged, list[0].Kind)
	assert.Equal(t, domain.EntityTasks, list[0].EntityType)
	assert.Equal(t, "Completed", list[0].Data["status"])
	require.NotNil(t, list[0].JobID)
	assert.Equal(t, job, *list[0].JobID)
	assert.Nil(t, list[1].Data)
	assert.Nil(t, list[1].JobID)
}

func TestNotificationStore_SetStateMissing(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresNotificationStore(db, setupTestLogger())

	mock.ExpectExec(q("UPDATE notifications SET state")).
		WithArgs(sqlmock.AnyArg(), "dead", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.SetState(context.Background(), uuid.New(), domain.DeliveryDead)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)
}

func TestReferenceStore_FirstTaskTypeMissing(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresReferenceStore(db, setupTestLogger())

	mock.ExpectQuery(q("FROM task_types ORDER BY created_at")).WillReturnError(sql.ErrNoRows)
	_, err := s.FirstTaskType(context.Background())
	assert.ErrorIs(t, err, store.ErrTaskTypeNotFound)
}

func TestEmployeeStore_ListByIDs(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresEmployeeStore(db, setupTestLogger())
	ctx := context.Background()

	empty, err := s.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, b := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(q("jsonb_array_elements_text($1::jsonb)")).
		WithArgs([]byte(`["` + a.String() + `","` + b.String() + `"]`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow(a.String(), "Asha", "asha@example.com", now, now))

	list, err := s.ListByIDs(ctx, []uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "asha@example.com", list[0].Email)
}

func TestStatsStore_AssigneeTaskCounts(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresStatsStore(db, setupTestLogger())

	employee := uuid.New()
	mock.ExpectQuery(q("assigned_to @> jsonb_build_array($1::text)")).
		WithArgs(employee.String()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("To Do", int64(2)).
			AddRow("Completed", int64(1)))

	counts, err := s.AssigneeTaskCounts(context.Background(), employee)
	require.NoError(t, err)
	assert.Equal(t, map[domain.TaskStatus]int{
		domain.TaskStatusToDo:      2,
		domain.TaskStatusCompleted: 1,
	}, counts)
}

func TestNewStores_PanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresTaskStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresConversionStore(nil, nil) })
}
