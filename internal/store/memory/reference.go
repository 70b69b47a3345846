package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// ReferenceStore implements store.ReferenceStore.
type ReferenceStore struct{ d *db }

var (
	_ store.ReferenceStore  = (*ReferenceStore)(nil)
	_ store.ReferenceWriter = (*ReferenceStore)(nil)
)

// AddTaskType appends a task type. The first one added is the default.
func (s *ReferenceStore) AddTaskType(name string) domain.TaskType {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	tt := domain.TaskType{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	s.d.taskTypes = append(s.d.taskTypes, tt)
	return tt
}

// AddProjectType appends a project type. The first one added is the default.
func (s *ReferenceStore) AddProjectType(name string) domain.ProjectType {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	pt := domain.ProjectType{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	s.d.projectTypes = append(s.d.projectTypes, pt)
	return pt
}

func (s *ReferenceStore) CreateTaskType(_ context.Context, name string) (*domain.TaskType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: task type name is required", store.ErrInvalidEntity)
	}
	tt := s.AddTaskType(name)
	return &tt, nil
}

func (s *ReferenceStore) CreateProjectType(_ context.Context, name string) (*domain.ProjectType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project type name is required", store.ErrInvalidEntity)
	}
	pt := s.AddProjectType(name)
	return &pt, nil
}

func (s *ReferenceStore) FirstTaskType(_ context.Context) (*domain.TaskType, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	if len(s.d.taskTypes) == 0 {
		return nil, store.ErrTaskTypeNotFound
	}
	tt := s.d.taskTypes[0]
	return &tt, nil
}

func (s *ReferenceStore) FirstProjectType(_ context.Context) (*domain.ProjectType, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	if len(s.d.projectTypes) == 0 {
		return nil, store.ErrProjectTypeNotFound
	}
	pt := s.d.projectTypes[0]
	return &pt, nil
}

// EmployeeStore implements store.EmployeeStore.
type EmployeeStore struct{ d *db }

var _ store.EmployeeStore = (*EmployeeStore)(nil)

func (s *EmployeeStore) Create(_ context.Context, e *domain.Employee) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.employees[e.ID]; ok {
		return store.ErrDuplicate
	}
	s.d.employees[e.ID] = *e
	return nil
}

func (s *EmployeeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Employee, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	e, ok := s.d.employees[id]
	if !ok {
		return nil, store.ErrEmployeeNotFound
	}
	return &e, nil
}

func (s *EmployeeStore) Update(_ context.Context, e *domain.Employee) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	cur, ok := s.d.employees[e.ID]
	if !ok {
		return store.ErrEmployeeNotFound
	}
	e.CreatedAt = cur.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.d.employees[e.ID] = *e
	return nil
}

func (s *EmployeeStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Employee, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	out := make([]domain.Employee, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.d.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}
