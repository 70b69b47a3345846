package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

var (
	errEmployeeNameEmpty = errors.New("employee name cannot be empty")
	errEmployeeEmail     = errors.New("employee email is invalid")
)

func (s *RecordService) employeePipeline() pipeline[domain.Employee] {
	return pipeline[domain.Employee]{
		entity: domain.EntityEmployees,
		id:     func(e *domain.Employee) uuid.UUID { return e.ID },
		build: func(body hooks.Body, _ uuid.UUID) (*domain.Employee, error) {
			now := time.Now().UTC()
			e := &domain.Employee{ID: uuid.New(), CreatedAt: now}
			if err := applyEmployee(e, body); err != nil {
				return nil, err
			}
			return e, nil
		},
		load:   s.stores.Employees.GetByID,
		apply:  applyEmployee,
		insert: s.stores.Employees.Create,
		save: func(ctx context.Context, e *domain.Employee, _ hooks.Body) error {
			return s.stores.Employees.Update(ctx, e)
		},
	}
}

// CreateEmployee adds an employee to the directory.
func (s *RecordService) CreateEmployee(ctx context.Context, body hooks.Body, actorID uuid.UUID) (*domain.Employee, error) {
	return runCreate(ctx, s, s.employeePipeline(), body, actorID)
}

// UpdateEmployee applies body to the employee.
func (s *RecordService) UpdateEmployee(ctx context.Context, id uuid.UUID, body hooks.Body, actorID uuid.UUID) (*domain.Employee, error) {
	return runUpdate(ctx, s, s.employeePipeline(), id, body, actorID)
}

// GetEmployee returns an employee.
func (s *RecordService) GetEmployee(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	e, err := s.stores.Employees.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("get_employee", "failed to retrieve employee", err)
	}
	return e, nil
}

func applyEmployee(e *domain.Employee, body hooks.Body) error {
	if v, ok, err := body.String("name"); err != nil {
		return err
	} else if ok {
		e.Name = strings.TrimSpace(v)
	}
	if v, ok, err := body.String("email"); err != nil {
		return err
	} else if ok {
		e.Email = strings.TrimSpace(v)
	}
	if e.Name == "" {
		return invalid(errEmployeeNameEmpty)
	}
	if e.Email != "" {
		if err := validate.Var(e.Email, "email"); err != nil {
			return invalid(errEmployeeEmail)
		}
	}
	e.UpdatedAt = time.Now().UTC()
	return nil
}
