package cache

import (
	"context"
	"log/slog"
	"sync"
)

// Invalidator removes cached entries made stale by a write. It always drops
// the record's own read entries and everything cached for the model, plus the
// auxiliary patterns registered for that model.
type Invalidator struct {
	store     Store
	logger    *slog.Logger
	auxiliary map[string][]string
	wg        sync.WaitGroup
}

// NewInvalidator creates an Invalidator. auxiliary maps a model to extra
// patterns to drop whenever that model is written.
func NewInvalidator(store Store, auxiliary map[string][]string, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{
		store:     store,
		logger:    logger.With("component", "cache_invalidator"),
		auxiliary: auxiliary,
	}
}

// Patterns lists what a write to model/id invalidates, in deletion order.
func (i *Invalidator) Patterns(model, id string) []string {
	var out []string
	if id != "" {
		out = append(out, RecordPattern(model, "get", id))
	}
	out = append(out, ModelPattern(model))
	out = append(out, i.auxiliary[model]...)
	return out
}

// Invalidate deletes every pattern for the write and returns the number of
// entries removed.
func (i *Invalidator) Invalidate(ctx context.Context, model, id string) int {
	removed := 0
	for _, p := range i.Patterns(model, id) {
		n, err := i.store.Delete(ctx, p)
		if err != nil {
			i.logger.Warn("cache invalidation failed", "pattern", p, "error", err)
			continue
		}
		removed += n
	}
	i.logger.Debug("cache invalidated", "model", model, "id", id, "removed", removed)
	return removed
}

// InvalidateAsync runs Invalidate in the background so the write response is
// not delayed. The context's values are kept but its cancellation is not.
func (i *Invalidator) InvalidateAsync(ctx context.Context, model, id string) {
	ctx = context.WithoutCancel(ctx)
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.Invalidate(ctx, model, id)
	}()
}

// Wait blocks until all background invalidations have finished.
func (i *Invalidator) Wait() {
	i.wg.Wait()
}
