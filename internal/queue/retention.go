package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Retention purges finished jobs older than a fixed window on a cron schedule.
type Retention struct {
	store  Store
	window time.Duration
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
}

// NewRetention schedules a purge of completed and dead jobs older than window.
// schedule accepts standard five-field cron specs and descriptors such as @hourly.
func NewRetention(store Store, window time.Duration, schedule string, logger *slog.Logger) (*Retention, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retention{
		store:  store,
		window: window,
		cron:   cron.New(),
		logger: logger.With("component", "queue_retention"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins running the schedule in the background.
func (r *Retention) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// PurgeOnce deletes expired jobs immediately and returns how many were removed.
func (r *Retention) PurgeOnce(ctx context.Context) (int, error) {
	return r.store.Purge(ctx, r.now().Add(-r.window))
}

func (r *Retention) sweep() {
	n, err := r.PurgeOnce(context.Background())
	if err != nil {
		r.logger.Error("job retention sweep failed", "error", err)
		return
	}
	r.logger.Info("job retention sweep finished", "purged", n)
}
