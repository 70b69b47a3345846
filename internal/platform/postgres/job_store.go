package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

const jobColumns = `id, queue, type, payload, state, priority, attempts, max_attempts,
	backoff_ms, run_at, last_error, created_at, updated_at, finished_at`

// PostgresJobStore implements queue.Store. Several processes may claim from
// the same table; SKIP LOCKED keeps them off each other's rows.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a job store over db.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ queue.Store = (*PostgresJobStore)(nil)

func (s *PostgresJobStore) Insert(ctx context.Context, job *queue.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		job.ID,
		string(job.Queue),
		job.Type,
		[]byte(job.Payload),
		string(job.State),
		job.Priority,
		job.Attempts,
		job.MaxAttempts,
		job.Backoff.Milliseconds(),
		job.RunAt,
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
		job.FinishedAt,
	)
	if err != nil {
		err = MapError(err)
		log.Error("failed to insert job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()),
			slog.String("queue", string(job.Queue)))
		return store.NewStoreError("job", "insert", "failed to insert job", err)
	}

	log.Debug("job inserted",
		slog.String("job_id", job.ID.String()),
		slog.String("queue", string(job.Queue)),
		slog.String("type", job.Type))
	return nil
}

// Claim atomically activates the next runnable job.
func (s *PostgresJobStore) Claim(ctx context.Context, name queue.Name, now time.Time) (*queue.Job, error) {
	query := `
		UPDATE jobs SET state = 'active', attempts = attempts + 1, updated_at = $2
		WHERE id = (
			SELECT id FROM jobs
			WHERE queue = $1
			  AND state IN ('queued', 'failed')
			  AND run_at <= $2
			ORDER BY priority DESC, run_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	job, err := scanJob(s.db.QueryRowContext(ctx, query, string(name), now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to claim job",
			slog.String("error", err.Error()),
			slog.String("queue", string(name)))
		return nil, store.NewStoreError("job", "claim", "failed to claim job", err)
	}
	return job, nil
}

// Complete and Fail only touch the row while it is still held by the
// attempt that claimed it.
func (s *PostgresJobStore) Complete(ctx context.Context, id uuid.UUID, attempt int, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = 'completed', updated_at = $3, finished_at = $3
		WHERE id = $1 AND state = 'active' AND attempts = $2
	`, id, attempt, now)
	if err != nil {
		return MapError(err)
	}
	return s.checkHeld(ctx, result, id, attempt)
}

// Fail schedules a retry at retryAt, or dead-letters the job when retryAt is nil.
func (s *PostgresJobStore) Fail(ctx context.Context, id uuid.UUID, attempt int, errMsg string, retryAt *time.Time, now time.Time) error {
	var (
		result sql.Result
		err    error
	)
	if retryAt != nil {
		result, err = s.db.ExecContext(ctx, `
			UPDATE jobs SET state = 'failed', last_error = $3, run_at = $4, updated_at = $5
			WHERE id = $1 AND state = 'active' AND attempts = $2
		`, id, attempt, errMsg, *retryAt, now)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE jobs SET state = 'dead', last_error = $3, updated_at = $4, finished_at = $4
			WHERE id = $1 AND state = 'active' AND attempts = $2
		`, id, attempt, errMsg, now)
	}
	if err != nil {
		return MapError(err)
	}
	return s.checkHeld(ctx, result, id, attempt)
}

func (s *PostgresJobStore) checkHeld(ctx context.Context, result sql.Result, id uuid.UUID, attempt int) error {
	err := CheckRowsAffected(result, queue.ErrJobLost)
	if errors.Is(err, queue.ErrJobLost) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("job outcome dropped, attempt no longer holds the job",
			slog.String("job_id", id.String()),
			slog.Int("attempt", attempt))
	}
	return err
}

func (s *PostgresJobStore) Get(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err, queue.ErrJobNotFound)
	}
	return job, nil
}

func (s *PostgresJobStore) List(ctx context.Context, filter queue.Filter) ([]queue.Job, error) {
	var (
		where []string
		args  []any
	)
	if filter.Queue != "" {
		args = append(args, string(filter.Queue))
		where = append(where, fmt.Sprintf("queue = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, string(filter.State))
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]queue.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// Requeue resets a dead job. The state check and the write are one statement.
func (s *PostgresJobStore) Requeue(ctx context.Context, id uuid.UUID, now time.Time) error {
	var state string
	err := s.db.QueryRowContext(ctx, `
		WITH target AS (SELECT id, state FROM jobs WHERE id = $1),
		updated AS (
			UPDATE jobs SET state = 'queued', attempts = 0, run_at = $2, updated_at = $2, finished_at = NULL
			WHERE id = $1 AND state = 'dead'
			RETURNING id
		)
		SELECT CASE WHEN EXISTS (SELECT 1 FROM updated) THEN 'requeued' ELSE target.state END
		FROM target
	`, id, now).Scan(&state)
	if err != nil {
		return mapNoRows(err, queue.ErrJobNotFound)
	}
	if state != "requeued" {
		return queue.ErrJobNotDead
	}
	return nil
}

func (s *PostgresJobStore) ResetStale(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = 'queued' WHERE state = 'active' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *PostgresJobStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM jobs
		WHERE state IN ('completed', 'dead') AND finished_at IS NOT NULL AND finished_at < $1
	`, cutoff)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (s *PostgresJobStore) Counts(ctx context.Context) (map[queue.Name]map[queue.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT queue, state, count(*) FROM jobs GROUP BY queue, state`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[queue.Name]map[queue.State]int)
	for rows.Next() {
		var (
			name, state string
			n           int
		)
		if err := rows.Scan(&name, &state, &n); err != nil {
			return nil, err
		}
		q := queue.Name(name)
		if out[q] == nil {
			out[q] = make(map[queue.State]int)
		}
		out[q][queue.State(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func scanJob(row rowScanner) (*queue.Job, error) {
	var (
		j           queue.Job
		name, state string
		payload     []byte
		backoffMS   int64
		finished    sql.NullTime
	)
	err := row.Scan(
		&j.ID,
		&name,
		&j.Type,
		&payload,
		&state,
		&j.Priority,
		&j.Attempts,
		&j.MaxAttempts,
		&backoffMS,
		&j.RunAt,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	j.Queue = queue.Name(name)
	j.State = queue.State(state)
	j.Payload = payload
	j.Backoff = time.Duration(backoffMS) * time.Millisecond
	if finished.Valid {
		t := finished.Time
		j.FinishedAt = &t
	}
	return &j, nil
}
