package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/postgres"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/service/auth"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/redis/go-redis/v9"
)

// resources are what the commands operate on.
type resources struct {
	jobs    queue.Store
	refs    store.ReferenceWriter
	cache   cache.Store
	tokens  auth.JWTService
	migrate func(ctx context.Context, command string) error
	close   func()
}

// environment opens resources on first use so --help works without a
// database.
type environment struct {
	open func(ctx context.Context) (*resources, error)
	res  *resources
}

func newEnvironment() *environment {
	return &environment{open: openResources}
}

func (e *environment) get(ctx context.Context) (*resources, error) {
	if e.res != nil {
		return e.res, nil
	}
	res, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	e.res = res
	return res, nil
}

func (e *environment) close() {
	if e.res != nil && e.res.close != nil {
		e.res.close()
	}
}

func openResources(ctx context.Context) (*resources, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// Operator output goes to stdout; logs stay on stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	res := &resources{
		jobs:   postgres.NewPostgresJobStore(db, log),
		refs:   postgres.NewPostgresReferenceStore(db, log),
		tokens: tokens,
		migrate: func(ctx context.Context, command string) error {
			return postgres.Migrate(ctx, db, command, log)
		},
	}

	var client *redis.Client
	if cfg.Cache.Backend == "redis" {
		client = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		res.cache = cache.NewRedisStore(client, cfg.Cache.KeyPrefix)
	}
	res.close = func() { closeAll(db, client) }
	return res, nil
}

func closeAll(db *sql.DB, client *redis.Client) {
	if client != nil {
		_ = client.Close()
	}
	_ = db.Close()
}
