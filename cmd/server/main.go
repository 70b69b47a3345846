// Package main implements the tracker API server: the record endpoints, the
// hook-driven side effects behind them, and the background job workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		log.Fatalf("tracker server: %v", err)
	}
}

func run(migrate string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("cache_backend", cfg.Cache.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrate != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, migrate, l)
	}

	app, err := newApplication(cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
