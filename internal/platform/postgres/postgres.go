package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/redact"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/sethvargo/go-retry"
)

// Stores groups every PostgreSQL store over one pool.
type Stores struct {
	Tasks           *PostgresTaskStore
	Tickets         *PostgresTicketStore
	Conversions     *PostgresConversionStore
	Comments        *PostgresCommentStore
	References      *PostgresReferenceStore
	Employees       *PostgresEmployeeStore
	Attendances     *PostgresAttendanceStore
	Regularizations *PostgresRegularizationStore
	Notifications   *PostgresNotificationStore
	Stats           *PostgresStatsStore
	Jobs            *PostgresJobStore
}

// NewStores builds every store over db.
func NewStores(db *sql.DB, logger *slog.Logger) *Stores {
	return &Stores{
		Tasks:           NewPostgresTaskStore(db, logger),
		Tickets:         NewPostgresTicketStore(db, logger),
		Conversions:     NewPostgresConversionStore(db, logger),
		Comments:        NewPostgresCommentStore(db, logger),
		References:      NewPostgresReferenceStore(db, logger),
		Employees:       NewPostgresEmployeeStore(db, logger),
		Attendances:     NewPostgresAttendanceStore(db, logger),
		Regularizations: NewPostgresRegularizationStore(db, logger),
		Notifications:   NewPostgresNotificationStore(db, logger),
		Stats:           NewPostgresStatsStore(db, logger),
		Jobs:            NewPostgresJobStore(db, logger),
	}
}

// Open connects to cfg.URL and pings it, retrying with exponential backoff
// while the database comes up.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database not ready",
				slog.Int("attempt", attempt),
				slog.String("error", redact.Error(err)))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", slog.Int("max_open_conns", maxOpen))
	return db, nil
}
