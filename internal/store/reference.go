package store

import (
	"context"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/google/uuid"
)

// ReferenceStore reads shared reference data. Records it returns are shared
// and must be treated as read-only.
type ReferenceStore interface {
	// FirstTaskType returns the oldest task type or ErrTaskTypeNotFound.
	FirstTaskType(ctx context.Context) (*domain.TaskType, error)

	// FirstProjectType returns the oldest project type or ErrProjectTypeNotFound.
	FirstProjectType(ctx context.Context) (*domain.ProjectType, error)
}

// ReferenceWriter seeds reference data.
type ReferenceWriter interface {
	CreateTaskType(ctx context.Context, name string) (*domain.TaskType, error)
	CreateProjectType(ctx context.Context, name string) (*domain.ProjectType, error)
}

// EmployeeStore persists the employee directory.
type EmployeeStore interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	Update(ctx context.Context, employee *domain.Employee) error

	// ListByIDs returns the employees that exist among ids. Unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Employee, error)
}
