package hooks

import (
	"fmt"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
)

// Phase names the point in a write at which a hook runs.
type Phase string

const (
	PhaseBeforeCreate Phase = "beforeCreate"
	PhaseAfterCreate  Phase = "afterCreate"
	PhaseBeforeUpdate Phase = "beforeUpdate"
	PhaseAfterUpdate  Phase = "afterUpdate"
)

// Error is returned when a before-hook rejects a write. It wraps the hook's
// error, so errors.Is(err, domain.ErrConflict) and similar checks still work.
type Error struct {
	Entity domain.EntityType
	Phase  Phase
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s hook: %v", e.Entity, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
