package compute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownKind is returned for a computation kind that is not registered.
var ErrUnknownKind = fmt.Errorf("%w: unknown computation kind", domain.ErrValidation)

// Enqueuer accepts background jobs. *queue.Runner satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req queue.Request) (queue.Handle, error)
}

// Kind is one named aggregate with its freshness window.
type Kind struct {
	Name string
	TTL  time.Duration

	// Validate rejects bad parameters before anything is enqueued. Optional.
	Validate func(params map[string]string) error

	// Run produces the value. It must be deterministic for equal params.
	Run func(ctx context.Context, params map[string]string) (any, error)
}

// Result is the answer to a Request: either a cached value or the handle of
// the job that will produce it.
type Result struct {
	Value     json.RawMessage `json:"value,omitempty"`
	FromCache bool            `json:"fromCache"`
	Job       *queue.Handle   `json:"job,omitempty"`
}

type pendingJob struct {
	handle queue.Handle
	at     time.Time
}

// Service memoizes aggregates in the cache and computes misses on the
// compute queue.
type Service struct {
	cache  cache.Store
	jobs   Enqueuer
	logger *slog.Logger
	now    func() time.Time

	kinds map[string]Kind
	group singleflight.Group

	mu         sync.Mutex
	pending    map[string]pendingJob
	pendingTTL time.Duration
}

// NewService creates a Service for the given kinds.
func NewService(store cache.Store, jobs Enqueuer, kinds []Kind, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		cache:      store,
		jobs:       jobs,
		logger:     log.With("component", "compute"),
		now:        func() time.Time { return time.Now().UTC() },
		kinds:      make(map[string]Kind, len(kinds)),
		pending:    make(map[string]pendingJob),
		pendingTTL: 2 * time.Minute,
	}
	for _, k := range kinds {
		s.kinds[k.Name] = k
	}
	return s
}

// SetClock replaces the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Kinds returns the registered kind names, sorted.
func (s *Service) Kinds() []string {
	out := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Register attaches the compute handler and the dead-letter callback.
func (s *Service) Register(r *queue.Runner) {
	r.Handle(queue.TypeCompute, s.Handle)
	r.OnDead(s.onDead)
}

// Request returns the cached value for kind and params when it is fresh.
// Otherwise it enqueues one compute job and returns its handle; concurrent
// requests for the same key share that job until it finishes.
func (s *Service) Request(ctx context.Context, kind string, params map[string]string) (Result, error) {
	k, ok := s.kinds[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if k.Validate != nil {
		if err := k.Validate(params); err != nil {
			return Result{}, err
		}
	}

	key := cache.ComputeKey(kind, params)
	if v, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return Result{Value: v, FromCache: true}, nil
	}

	h, err, shared := s.group.Do(key, func() (any, error) {
		if p, ok := s.inFlight(key); ok {
			return p, nil
		}
		h, err := s.jobs.Enqueue(ctx, queue.ComputeRequest(queue.ComputePayload{
			Kind:     kind,
			Params:   params,
			CacheKey: key,
		}))
		if err != nil {
			return queue.Handle{}, err
		}
		s.mu.Lock()
		s.pending[key] = pendingJob{handle: h, at: s.now()}
		s.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	handle := h.(queue.Handle)
	logger.FromContextOrDefault(ctx, s.logger).Debug("computation scheduled",
		"kind", kind, "cache_key", key, "job_id", handle.ID, "shared", shared)
	return Result{Job: &handle}, nil
}

func (s *Service) inFlight(key string) (queue.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return queue.Handle{}, false
	}
	if s.now().Sub(p.at) > s.pendingTTL {
		delete(s.pending, key)
		return queue.Handle{}, false
	}
	return p.handle, true
}

func (s *Service) done(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

// Handle runs one compute job and stores its result under the job's cache key.
func (s *Service) Handle(ctx context.Context, job *queue.Job) error {
	p, err := queue.Decode[queue.ComputePayload](job)
	if err != nil {
		return err
	}
	k, ok := s.kinds[p.Kind]
	if !ok {
		s.done(p.CacheKey)
		return queue.Permanent(fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind))
	}
	key := p.CacheKey
	if key == "" {
		key = cache.ComputeKey(p.Kind, p.Params)
	}

	v, err := k.Run(ctx, p.Params)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.done(key)
			return queue.Permanent(err)
		}
		return fmt.Errorf("compute %s: %w", p.Kind, err)
	}
	buf, err := json.Marshal(v)
	if err != nil {
		s.done(key)
		return queue.Permanent(fmt.Errorf("encode %s result: %w", p.Kind, err))
	}
	if err := s.cache.Set(ctx, key, buf, k.TTL); err != nil {
		return fmt.Errorf("store %s result: %w", p.Kind, err)
	}
	s.done(key)
	return nil
}

func (s *Service) onDead(_ context.Context, job *queue.Job, _ error) {
	if job.Type != queue.TypeCompute {
		return
	}
	if p, err := queue.Decode[queue.ComputePayload](job); err == nil {
		s.done(p.CacheKey)
	}
}
