package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

const attendanceColumns = `id, employee_id, date, status, regularization_requested,
	regularization_reason, created_at, updated_at`

// PostgresAttendanceStore implements store.AttendanceStore.
type PostgresAttendanceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttendanceStore creates an attendance store over db.
func NewPostgresAttendanceStore(db store.DBTX, logger *slog.Logger) *PostgresAttendanceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttendanceStore{
		db:     db,
		logger: logger.With(slog.String("component", "attendance_store")),
	}
}

var _ store.AttendanceStore = (*PostgresAttendanceStore)(nil)

func (s *PostgresAttendanceStore) Create(ctx context.Context, a *domain.Attendance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendances (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID,
		a.EmployeeID,
		a.Date,
		string(a.Status),
		a.RegularizationRequested,
		a.RegularizationReason,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create attendance",
			slog.String("error", err.Error()),
			slog.String("attendance_id", a.ID.String()))
		return err
	}
	return nil
}

func (s *PostgresAttendanceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attendance, error) {
	a, err := scanAttendance(s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendances WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, store.ErrAttendanceNotFound)
	}
	return a, nil
}

func (s *PostgresAttendanceStore) Update(ctx context.Context, a *domain.Attendance) error {
	updated, err := scanAttendance(s.db.QueryRowContext(ctx, `
		UPDATE attendances SET
			employee_id = $2,
			date = $3,
			status = $4,
			regularization_requested = $5,
			regularization_reason = $6,
			updated_at = $7
		WHERE id = $1
		RETURNING `+attendanceColumns,
		a.ID,
		a.EmployeeID,
		a.Date,
		string(a.Status),
		a.RegularizationRequested,
		a.RegularizationReason,
		time.Now().UTC(),
	))
	if err != nil {
		return mapNoRows(err, store.ErrAttendanceNotFound)
	}
	*a = *updated
	return nil
}

func scanAttendance(row rowScanner) (*domain.Attendance, error) {
	var (
		a      domain.Attendance
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.EmployeeID,
		&a.Date,
		&status,
		&a.RegularizationRequested,
		&a.RegularizationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.AttendanceStatus(status)
	return &a, nil
}

// PostgresRegularizationStore implements store.RegularizationStore. The
// unique attendance_id column enforces one request per attendance.
type PostgresRegularizationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRegularizationStore creates a regularization store over db.
func NewPostgresRegularizationStore(db store.DBTX, logger *slog.Logger) *PostgresRegularizationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRegularizationStore{
		db:     db,
		logger: logger.With(slog.String("component", "regularization_store")),
	}
}

var _ store.RegularizationStore = (*PostgresRegularizationStore)(nil)

func (s *PostgresRegularizationStore) Create(ctx context.Context, r *domain.Regularization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO regularizations (id, attendance_id, employee_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.AttendanceID, r.EmployeeID, r.Reason, string(r.Status), r.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("regularization already exists",
				slog.String("attendance_id", r.AttendanceID.String()))
		}
		return MapUniqueViolation(err, store.ErrRegularizationExists)
	}
	return nil
}

func (s *PostgresRegularizationStore) GetByAttendance(ctx context.Context, attendanceID uuid.UUID) (*domain.Regularization, error) {
	var (
		r      domain.Regularization
		status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, attendance_id, employee_id, reason, status, created_at
		FROM regularizations WHERE attendance_id = $1
	`, attendanceID).Scan(&r.ID, &r.AttendanceID, &r.EmployeeID, &r.Reason, &status, &r.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err, store.ErrRegularizationNotFound)
	}
	r.Status = domain.RegularizationStatus(status)
	return &r, nil
}
