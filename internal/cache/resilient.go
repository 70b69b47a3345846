package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
)

// Resilient wraps a Store so that backend failures never reach callers. A
// failing Get is a miss and failing writes are dropped; every failure is
// logged at warn level.
type Resilient struct {
	next   Store
	logger *slog.Logger
}

// NewResilient wraps next.
func NewResilient(next Store, log *slog.Logger) *Resilient {
	if log == nil {
		log = slog.Default()
	}
	return &Resilient{next: next, logger: log.With("component", "cache")}
}

var _ Store = (*Resilient)(nil)

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := r.next.Get(ctx, key)
	if err != nil {
		r.log(ctx).Warn("cache get failed, treating as miss", "key", key, "error", err)
		return nil, false, nil
	}
	return v, ok, nil
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.next.Set(ctx, key, value, ttl); err != nil {
		r.log(ctx).Warn("cache set failed", "key", key, "error", err)
	}
	return nil
}

func (r *Resilient) Delete(ctx context.Context, pattern string) (int, error) {
	n, err := r.next.Delete(ctx, pattern)
	if err != nil {
		r.log(ctx).Warn("cache delete failed", "pattern", pattern, "removed", n, "error", err)
	}
	return n, nil
}

func (r *Resilient) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, r.logger)
}
