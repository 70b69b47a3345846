package api

import (
	"context"
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/google/uuid"
)

// RecordService is the write and read surface the handlers need.
type RecordService interface {
	CreateTask(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	CreateTicket(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)

	CreateAttendance(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Attendance, error)
	UpdateAttendance(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Attendance, error)
	GetAttendance(ctx context.Context, id uuid.UUID) (*domain.Attendance, error)

	CreateEmployee(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*domain.Employee, error)

	AddComment(ctx context.Context, taskID uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Comment, error)
	GetThread(ctx context.Context, id uuid.UUID) (*domain.CommentThread, error)

	ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.NotificationRecord, error)
}

type (
	createFunc[T any] func(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*T, error)
	updateFunc[T any] func(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*T, error)
	getFunc[T any]    func(ctx context.Context, id uuid.UUID) (*T, error)
)

// RecordHandler serves create, update and read requests for every record
// type.
type RecordHandler struct {
	records RecordService
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(records RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

func handleCreate[T any](create createFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requireActor(w, r)
		if !ok {
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		rec, err := create(r.Context(), body, actorID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusCreated, rec)
	}
}

func handleUpdate[T any](update updateFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, id, ok := handleActorAndPathUUID(w, r, "id")
		if !ok {
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		rec, err := update(r.Context(), id, body, actorID)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, rec)
	}
}

func handleGet[T any](get getFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, id, ok := handleActorAndPathUUID(w, r, "id")
		if !ok {
			return
		}
		rec, err := get(r.Context(), id)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, rec)
	}
}

// CreateTask handles POST /api/tasks.
func (h *RecordHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.records.CreateTask)(w, r)
}

// UpdateTask handles PATCH /api/tasks/{id}.
func (h *RecordHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.records.UpdateTask)(w, r)
}

// GetTask handles GET /api/tasks/{id}.
func (h *RecordHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	handleGet(h.records.GetTask)(w, r)
}

// CreateTicket handles POST /api/tickets.
func (h *RecordHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.records.CreateTicket)(w, r)
}

// UpdateTicket handles PATCH /api/tickets/{id}. Sending
// {"convertToTask": true} converts the ticket into a task.
func (h *RecordHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.records.UpdateTicket)(w, r)
}

// GetTicket handles GET /api/tickets/{id}.
func (h *RecordHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	handleGet(h.records.GetTicket)(w, r)
}

// CreateAttendance handles POST /api/attendances.
func (h *RecordHandler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.records.CreateAttendance)(w, r)
}

// UpdateAttendance handles PATCH /api/attendances/{id}.
func (h *RecordHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.records.UpdateAttendance)(w, r)
}

// GetAttendance handles GET /api/attendances/{id}.
func (h *RecordHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	handleGet(h.records.GetAttendance)(w, r)
}

// CreateEmployee handles POST /api/employees.
func (h *RecordHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.records.CreateEmployee)(w, r)
}

// UpdateEmployee handles PATCH /api/employees/{id}.
func (h *RecordHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.records.UpdateEmployee)(w, r)
}

// GetEmployee handles GET /api/employees/{id}.
func (h *RecordHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	handleGet(h.records.GetEmployee)(w, r)
}

// GetProfile handles GET /api/me, the acting user's employee record.
func (h *RecordHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	e, err := h.records.GetEmployee(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, e)
}

// AddComment handles POST /api/tasks/{id}/comments.
func (h *RecordHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	c, err := h.records.AddComment(r.Context(), taskID, body, actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, c)
}

// ListComments handles GET /api/tasks/{id}/comments.
func (h *RecordHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	_, taskID, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.records.GetTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if task.CommentsThreadID == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, domain.NewCommentThread(task.ID))
		return
	}
	thread, err := h.records.GetThread(r.Context(), *task.CommentsThreadID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, thread)
}

// ListNotifications handles GET /api/notifications for the acting user.
func (h *RecordHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	list, err := h.records.ListNotifications(r.Context(), actorID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationList{Notifications: list})
}
