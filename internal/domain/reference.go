package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskType is reference data describing the kind of a task. The first
// record by creation order is the default for converted tickets.
type TaskType struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectType is reference data grouping tasks by project.
type ProjectType struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Employee is the directory entry used to resolve email recipients.
type Employee struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
