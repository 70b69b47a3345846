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

// PostgresStatsStore implements store.StatsStore with GROUP BY aggregates.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a stats store over db.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*PostgresStatsStore)(nil)

func (s *PostgresStatsStore) TaskStatusCounts(ctx context.Context) (map[domain.TaskStatus]int, error) {
	return groupCounts[domain.TaskStatus](ctx, s,
		`SELECT status, count(*) FROM tasks GROUP BY status`)
}

func (s *PostgresStatsStore) TicketStatusCounts(ctx context.Context) (map[domain.TicketStatus]int, error) {
	return groupCounts[domain.TicketStatus](ctx, s,
		`SELECT status, count(*) FROM tickets GROUP BY status`)
}

func (s *PostgresStatsStore) AssigneeTaskCounts(ctx context.Context, employeeID uuid.UUID) (map[domain.TaskStatus]int, error) {
	return groupCounts[domain.TaskStatus](ctx, s,
		`SELECT status, count(*) FROM tasks WHERE assigned_to @> jsonb_build_array($1::text) GROUP BY status`,
		employeeID.String())
}

func (s *PostgresStatsStore) AttendanceCounts(ctx context.Context, from, to time.Time) (map[domain.AttendanceStatus]int, error) {
	return groupCounts[domain.AttendanceStatus](ctx, s,
		`SELECT status, count(*) FROM attendances WHERE date >= $1 AND date < $2 GROUP BY status`,
		from, to)
}

func groupCounts[K ~string](ctx context.Context, s *PostgresStatsStore, query string, args ...any) (map[K]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = MapError(err)
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate counts",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[K]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[K(key)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}
