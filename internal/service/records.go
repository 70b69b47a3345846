package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// Stores holds the repositories the record service writes through.
type Stores struct {
	Tasks         store.TaskStore
	Tickets       store.TicketStore
	Comments      store.CommentStore
	Attendances   store.AttendanceStore
	Employees     store.EmployeeStore
	Notifications store.NotificationStore
}

// RecordService runs the hook pipeline around every create and update.
type RecordService struct {
	hooks  *hooks.Registry
	stores Stores
	logger *slog.Logger
}

// NewRecordService creates a RecordService.
// It returns an error if any of the required dependencies are nil.
func NewRecordService(reg *hooks.Registry, stores Stores, log *slog.Logger) (*RecordService, error) {
	if reg == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "hook registry cannot be nil"}
	}
	required := map[string]any{
		"tasks":         stores.Tasks,
		"tickets":       stores.Tickets,
		"comments":      stores.Comments,
		"attendances":   stores.Attendances,
		"employees":     stores.Employees,
		"notifications": stores.Notifications,
	}
	for name, s := range required {
		if s == nil {
			return nil, &ServiceError{Operation: "create_service", Message: name + " store cannot be nil"}
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &RecordService{
		hooks:  reg,
		stores: stores,
		logger: log.With("component", "record_service"),
	}, nil
}

func (s *RecordService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// pipeline describes how one entity type is built, patched and stored.
type pipeline[T any] struct {
	entity domain.EntityType
	id     func(*T) uuid.UUID
	build  func(body hooks.Body, actorID uuid.UUID) (*T, error)
	load   func(ctx context.Context, id uuid.UUID) (*T, error)
	apply  func(rec *T, body hooks.Body) error
	insert func(ctx context.Context, rec *T) error
	save   func(ctx context.Context, rec *T, body hooks.Body) error
}

func runCreate[T any](ctx context.Context, s *RecordService, p pipeline[T], body hooks.Body, actorID uuid.UUID) (*T, error) {
	op := "create_" + string(p.entity)
	if err := s.hooks.RunBeforeCreate(ctx, p.entity, body, actorID); err != nil {
		return nil, err
	}
	rec, err := p.build(body, actorID)
	if err != nil {
		return nil, NewServiceError(op, "invalid record", err)
	}
	if err := p.insert(ctx, rec); err != nil {
		s.log(ctx).Error("failed to save record", "entity", p.entity, "error", err)
		return nil, NewServiceError(op, "failed to save record", err)
	}

	id := p.id(rec)
	if failed := s.hooks.RunAfterCreate(ctx, p.entity, id, actorID); failed > 0 {
		s.log(ctx).Warn("record created with failed side effects",
			"entity", p.entity, "record_id", id, "failed_hooks", failed)
	}
	return reload(ctx, p, id, rec), nil
}

func runUpdate[T any](ctx context.Context, s *RecordService, p pipeline[T], id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*T, error) {
	op := "update_" + string(p.entity)
	if err := s.hooks.RunBeforeUpdate(ctx, p.entity, body, id, actorID); err != nil {
		return nil, err
	}
	rec, err := p.load(ctx, id)
	if err != nil {
		return nil, NewServiceError(op, "failed to load record", err)
	}
	if err := p.apply(rec, body); err != nil {
		return nil, NewServiceError(op, "invalid update", err)
	}
	if err := p.save(ctx, rec, body); err != nil {
		s.log(ctx).Error("failed to save record", "entity", p.entity, "record_id", id, "error", err)
		return nil, NewServiceError(op, "failed to save record", err)
	}

	if failed := s.hooks.RunAfterUpdate(ctx, p.entity, id, body, actorID); failed > 0 {
		s.log(ctx).Warn("record updated with failed side effects",
			"entity", p.entity, "record_id", id, "failed_hooks", failed)
	}
	return reload(ctx, p, id, rec), nil
}

// reload returns the current stored record, since after-hooks may have
// changed it. The written copy is returned if the read fails.
func reload[T any](ctx context.Context, p pipeline[T], id uuid.UUID, written *T) *T {
	cur, err := p.load(ctx, id)
	if err != nil {
		return written
	}
	return cur
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
