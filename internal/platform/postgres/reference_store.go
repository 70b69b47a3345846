package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// PostgresReferenceStore implements store.ReferenceStore and the seeding
// calls used by the admin CLI.
type PostgresReferenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReferenceStore creates a reference data store over db.
func NewPostgresReferenceStore(db store.DBTX, logger *slog.Logger) *PostgresReferenceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReferenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "reference_store")),
	}
}

var (
	_ store.ReferenceStore  = (*PostgresReferenceStore)(nil)
	_ store.ReferenceWriter = (*PostgresReferenceStore)(nil)
)

func (s *PostgresReferenceStore) FirstTaskType(ctx context.Context) (*domain.TaskType, error) {
	var tt domain.TaskType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM task_types ORDER BY created_at, id LIMIT 1
	`).Scan(&tt.ID, &tt.Name, &tt.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err, store.ErrTaskTypeNotFound)
	}
	return &tt, nil
}

func (s *PostgresReferenceStore) FirstProjectType(ctx context.Context) (*domain.ProjectType, error) {
	var pt domain.ProjectType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM project_types ORDER BY created_at, id LIMIT 1
	`).Scan(&pt.ID, &pt.Name, &pt.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err, store.ErrProjectTypeNotFound)
	}
	return &pt, nil
}

// CreateTaskType inserts a task type with a new id.
func (s *PostgresReferenceStore) CreateTaskType(ctx context.Context, name string) (*domain.TaskType, error) {
	tt := &domain.TaskType{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.insertType(ctx, "task_types", tt.ID, tt.Name, tt.CreatedAt); err != nil {
		return nil, err
	}
	return tt, nil
}

// CreateProjectType inserts a project type with a new id.
func (s *PostgresReferenceStore) CreateProjectType(ctx context.Context, name string) (*domain.ProjectType, error) {
	pt := &domain.ProjectType{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.insertType(ctx, "project_types", pt.ID, pt.Name, pt.CreatedAt); err != nil {
		return nil, err
	}
	return pt, nil
}

// table is one of two constants, never caller input.
func (s *PostgresReferenceStore) insertType(ctx context.Context, table string, id uuid.UUID, name string, at time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", store.ErrInvalidEntity)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, name, created_at) VALUES ($1, $2, $3)`, id, name, at)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create reference record",
			slog.String("error", err.Error()),
			slog.String("table", table))
		return err
	}
	return nil
}

// PostgresEmployeeStore implements store.EmployeeStore.
type PostgresEmployeeStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEmployeeStore creates an employee store over db.
func NewPostgresEmployeeStore(db store.DBTX, logger *slog.Logger) *PostgresEmployeeStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEmployeeStore{
		db:     db,
		logger: logger.With(slog.String("component", "employee_store")),
	}
}

var _ store.EmployeeStore = (*PostgresEmployeeStore)(nil)

func (s *PostgresEmployeeStore) Create(ctx context.Context, e *domain.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Name, e.Email, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create employee",
			slog.String("error", err.Error()),
			slog.String("employee_id", e.ID.String()))
		return err
	}
	return nil
}

func (s *PostgresEmployeeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	e, err := scanEmployee(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at, updated_at FROM employees WHERE id = $1
	`, id))
	if err != nil {
		return nil, mapNoRows(err, store.ErrEmployeeNotFound)
	}
	return e, nil
}

func (s *PostgresEmployeeStore) Update(ctx context.Context, e *domain.Employee) error {
	updated, err := scanEmployee(s.db.QueryRowContext(ctx, `
		UPDATE employees SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, name, email, created_at, updated_at
	`, e.ID, e.Name, e.Email, time.Now().UTC()))
	if err != nil {
		return mapNoRows(err, store.ErrEmployeeNotFound)
	}
	*e = *updated
	return nil
}

// ListByIDs passes the ids as one JSONB array parameter.
func (s *PostgresEmployeeStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Employee, error) {
	out := make([]domain.Employee, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw, err := encodeIDs(ids)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM employees
		WHERE id IN (SELECT jsonb_array_elements_text($1::jsonb)::uuid)
		ORDER BY name, id
	`, raw)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list employees",
			slog.String("error", err.Error()),
			slog.Int("count", len(ids)))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	var e domain.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
