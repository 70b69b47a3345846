package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/google/uuid"
)

// BeforeCreateFunc may rewrite body; an error aborts the create.
type BeforeCreateFunc func(ctx context.Context, body Body, actorID uuid.UUID) error

// AfterCreateFunc runs once the record is persisted.
type AfterCreateFunc func(ctx context.Context, recordID, actorID uuid.UUID) error

// BeforeUpdateFunc may rewrite body; an error aborts the update.
type BeforeUpdateFunc func(ctx context.Context, body Body, docID, actorID uuid.UUID) error

// AfterUpdateFunc runs once the update is persisted. body is the same map the
// before-hooks saw, stash included.
type AfterUpdateFunc func(ctx context.Context, docID uuid.UUID, body Body, actorID uuid.UUID) error

// Hooks is the set of lifecycle functions for one entity type.
type Hooks struct {
	BeforeCreate []BeforeCreateFunc
	AfterCreate  []AfterCreateFunc
	BeforeUpdate []BeforeUpdateFunc
	AfterUpdate  []AfterUpdateFunc
}

// Registry maps entity types to their hooks. It is populated at startup and
// read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[domain.EntityType]Hooks
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		hooks:  make(map[domain.EntityType]Hooks),
		logger: log.With("component", "hooks"),
	}
}

// Register appends h to the hooks already registered for entity. Hooks run
// in registration order.
func (r *Registry) Register(entity domain.EntityType, h Hooks) error {
	if !entity.Valid() {
		return fmt.Errorf("%w: cannot register hooks for %q", domain.ErrValidation, entity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.hooks[entity]
	cur.BeforeCreate = append(cur.BeforeCreate, h.BeforeCreate...)
	cur.AfterCreate = append(cur.AfterCreate, h.AfterCreate...)
	cur.BeforeUpdate = append(cur.BeforeUpdate, h.BeforeUpdate...)
	cur.AfterUpdate = append(cur.AfterUpdate, h.AfterUpdate...)
	r.hooks[entity] = cur
	r.logger.Debug("registered hooks", "entity", entity,
		"before_create", len(cur.BeforeCreate), "after_create", len(cur.AfterCreate),
		"before_update", len(cur.BeforeUpdate), "after_update", len(cur.AfterUpdate))
	return nil
}

func (r *Registry) get(entity domain.EntityType) Hooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Slices are only ever appended under the write lock, so sharing the
	// headers with callers is safe.
	return r.hooks[entity]
}

// RunBeforeCreate runs the before-create hooks in order and stops at the first error.
func (r *Registry) RunBeforeCreate(ctx context.Context, entity domain.EntityType, body Body, actorID uuid.UUID) error {
	for _, fn := range r.get(entity).BeforeCreate {
		if err := fn(ctx, body, actorID); err != nil {
			return &Error{Entity: entity, Phase: PhaseBeforeCreate, Err: err}
		}
	}
	return nil
}

// RunBeforeUpdate runs the before-update hooks in order and stops at the first error.
func (r *Registry) RunBeforeUpdate(ctx context.Context, entity domain.EntityType, body Body, docID, actorID uuid.UUID) error {
	for _, fn := range r.get(entity).BeforeUpdate {
		if err := fn(ctx, body, docID, actorID); err != nil {
			return &Error{Entity: entity, Phase: PhaseBeforeUpdate, Err: err}
		}
	}
	return nil
}

// RunAfterCreate runs every after-create hook. A failing or panicking hook is
// logged and does not prevent the others from running. It returns the number
// of hooks that failed.
func (r *Registry) RunAfterCreate(ctx context.Context, entity domain.EntityType, recordID, actorID uuid.UUID) int {
	failed := 0
	for i, fn := range r.get(entity).AfterCreate {
		if err := r.isolate(func() error { return fn(ctx, recordID, actorID) }); err != nil {
			failed++
			r.log(ctx).Error("after-create hook failed",
				"entity", entity, "record_id", recordID, "hook_index", i, "error", err)
		}
	}
	return failed
}

// RunAfterUpdate runs every after-update hook with the same isolation as
// RunAfterCreate.
func (r *Registry) RunAfterUpdate(ctx context.Context, entity domain.EntityType, docID uuid.UUID, body Body, actorID uuid.UUID) int {
	failed := 0
	for i, fn := range r.get(entity).AfterUpdate {
		if err := r.isolate(func() error { return fn(ctx, docID, body, actorID) }); err != nil {
			failed++
			r.log(ctx).Error("after-update hook failed",
				"entity", entity, "record_id", docID, "hook_index", i, "error", err)
		}
	}
	return failed
}

func (r *Registry) isolate(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("hook panicked: %v", p)
		}
	}()
	return fn()
}

func (r *Registry) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, r.logger)
}
