package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/middleware"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/attendance"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/compute"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/hooks"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/notify"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/postgres"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/tasksync"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// backends are the persistence collaborators the application is assembled
// over. Production uses PostgreSQL for all of them.
type backends struct {
	tasks           store.TaskStore
	tickets         store.TicketStore
	conversions     store.ConversionStore
	comments        store.CommentStore
	references      store.ReferenceStore
	employees       store.EmployeeStore
	attendances     store.AttendanceStore
	regularizations store.RegularizationStore
	notifications   store.NotificationStore
	stats           store.StatsStore
	jobs            queue.Store
}

func postgresBackends(s *postgres.Stores) backends {
	return backends{
		tasks:           s.Tasks,
		tickets:         s.Tickets,
		conversions:     s.Conversions,
		comments:        s.Comments,
		references:      s.References,
		employees:       s.Employees,
		attendances:     s.Attendances,
		regularizations: s.Regularizations,
		notifications:   s.Notifications,
		stats:           s.Stats,
		jobs:            s.Jobs,
	}
}

// application holds the wired components and owns their lifecycle.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	runner      *queue.Runner
	retention   *queue.Retention
	invalidator *cache.Invalidator
	router      http.Handler
}

// newApplication builds every component over the PostgreSQL stores of db.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app, err := assemble(cfg, logger, postgresBackends(postgres.NewStores(db, logger)))
	if err != nil {
		return nil, err
	}
	app.db = db
	return app, nil
}

func assemble(cfg *config.Config, logger *slog.Logger, b backends) (*application, error) {
	app := &application{config: cfg, logger: logger}

	cacheStore, err := app.newCacheStore()
	if err != nil {
		return nil, err
	}

	app.runner = queue.NewRunner(b.jobs, queue.ConfigFromSettings(cfg.Queue), logger)

	provider, err := notify.NewProvider(cfg.Notify, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notification provider: %w", err)
	}
	notify.NewDelivery(provider, provider, b.notifications, logger).Register(app.runner)

	reg := hooks.NewRegistry(logger)
	dispatcher := notify.NewDispatcher(b.notifications, b.employees, b.tasks, b.comments, app.runner, logger)
	if err := dispatcher.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register notification hooks: %w", err)
	}
	syncer := tasksync.New(b.tickets, b.tasks, b.conversions, b.references, dispatcher, logger)
	if err := syncer.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register task sync hooks: %w", err)
	}
	if err := attendance.NewRegularizer(b.attendances, b.regularizations, logger).Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register attendance hooks: %w", err)
	}

	records, err := service.NewRecordService(reg, service.Stores{
		Tasks:         b.tasks,
		Tickets:       b.tickets,
		Comments:      b.comments,
		Attendances:   b.attendances,
		Employees:     b.employees,
		Notifications: b.notifications,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create record service: %w", err)
	}

	computed := compute.NewService(cacheStore, app.runner, compute.DefaultKinds(b.stats), logger)
	computed.Register(app.runner)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.invalidator = cache.NewInvalidator(cacheStore, api.InvalidationRules(), logger)
	responses := middleware.NewResponseCache(cacheStore, nil, logger).WithFallbackTTL(cfg.Cache.DefaultTTL)

	app.retention, err = queue.NewRetention(b.jobs, cfg.Queue.Retention, cfg.Queue.RetentionSchedule, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule job retention: %w", err)
	}

	app.router = app.setupRouter(api.RouterDeps{
		Records:     records,
		Compute:     computed,
		Auth:        middleware.NewAuthMiddleware(jwtService),
		Cache:       responses,
		Invalidator: app.invalidator,
	})

	logger.Info("application initialized",
		slog.Bool("workers_enabled", cfg.Queue.WorkersEnabled),
		slog.Any("compute_kinds", computed.Kinds()))
	return app, nil
}

// newCacheStore returns the configured cache backend behind the fail-open
// wrapper.
func (app *application) newCacheStore() (cache.Store, error) {
	var next cache.Store
	switch app.config.Cache.Backend {
	case "redis":
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.config.Redis.Addr,
			Password: app.config.Redis.Password,
			DB:       app.config.Redis.DB,
		})
		next = cache.NewRedisStore(app.redis, app.config.Cache.KeyPrefix)
	default:
		mem, err := cache.NewMemoryStore(app.config.Cache.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		next = mem
	}
	return cache.NewResilient(next, app.logger), nil
}

// Run serves HTTP and, when enabled, runs the job workers and the retention
// schedule until ctx is canceled or the server fails.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if app.config.Queue.WorkersEnabled {
		if err := app.runner.Start(); err != nil {
			return fmt.Errorf("failed to start job runner: %w", err)
		}
		app.retention.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.startHTTPServer(gctx, app.router)
	})
	g.Go(func() error {
		// Workers stop as soon as the server starts draining.
		<-gctx.Done()
		app.retention.Stop()
		app.runner.Stop()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes connections.
func (app *application) cleanup() {
	if app.retention != nil {
		app.retention.Stop()
	}
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.invalidator != nil {
		app.invalidator.Wait()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.Any("error", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.Any("error", err))
		}
	}
	app.logger.Info("application shutdown completed")
}
