package domain

import "fmt"

// EntityType names a business model that participates in lifecycle hooks and
// response caching. The set is closed.
type EntityType string

const (
	EntityTasks       EntityType = "tasks"
	EntityTickets     EntityType = "tickets"
	EntityComments    EntityType = "comments"
	EntityAttendances EntityType = "attendances"
	EntityEmployees   EntityType = "employees"
)

var entityTypes = []EntityType{
	EntityTasks,
	EntityTickets,
	EntityComments,
	EntityAttendances,
	EntityEmployees,
}

// EntityTypes returns every known entity type.
func EntityTypes() []EntityType {
	out := make([]EntityType, len(entityTypes))
	copy(out, entityTypes)
	return out
}

// Valid reports whether e is one of the known entity types.
func (e EntityType) Valid() bool {
	for _, t := range entityTypes {
		if t == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts a model name into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	e := EntityType(s)
	if !e.Valid() {
		return "", fmt.Errorf("%w: unknown entity type %q", ErrValidation, s)
	}
	return e, nil
}
