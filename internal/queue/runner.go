package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/redact"
)

// HandlerFunc executes one attempt of a job. Returning an error schedules a
// retry unless the error wraps ErrPermanent or the job is out of attempts.
type HandlerFunc func(ctx context.Context, job *Job) error

// DeadLetterFunc is called once for every job that becomes dead.
type DeadLetterFunc func(ctx context.Context, job *Job, cause error)

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	// Queues maps each logical queue to its policy. Enqueue rejects other names.
	Queues map[Name]Policy

	// PollInterval is how long an idle worker waits before checking the store
	// again. Enqueue wakes idle workers early.
	PollInterval time.Duration

	// StuckJobAge defines how long a job can stay active before the monitor
	// returns it to the queue.
	StuckJobAge time.Duration

	// StuckCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to StuckJobAge / 2.
	StuckCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Queues: map[Name]Policy{
			QueuePush:    {Concurrency: 4, MaxAttempts: 5, BackoffBase: 2 * time.Second, BackoffMax: 5 * time.Minute},
			QueueEmail:   {Concurrency: 2, MaxAttempts: 5, BackoffBase: 5 * time.Second, BackoffMax: 10 * time.Minute},
			QueueCompute: {Concurrency: 2, MaxAttempts: 3, BackoffBase: time.Second, BackoffMax: time.Minute},
		},
		PollInterval: time.Second,
		StuckJobAge:  10 * time.Minute,
	}
}

// ConfigFromSettings converts loaded application settings into a RunnerConfig.
func ConfigFromSettings(cfg config.QueueConfig) RunnerConfig {
	policy := func(p config.QueuePolicy) Policy {
		return Policy{
			Concurrency: p.Concurrency,
			MaxAttempts: p.MaxAttempts,
			BackoffBase: p.BackoffBase,
			BackoffMax:  p.BackoffMax,
		}
	}
	return RunnerConfig{
		Queues: map[Name]Policy{
			QueuePush:    policy(cfg.Push),
			QueueEmail:   policy(cfg.Email),
			QueueCompute: policy(cfg.Compute),
		},
		PollInterval: cfg.PollInterval,
		StuckJobAge:  cfg.StuckJobAge,
	}
}

// Runner persists jobs and executes them on per-queue worker pools.
type Runner struct {
	store  Store
	config RunnerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	onDead   []DeadLetterFunc

	wake       map[Name]chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
}

// NewRunner creates a Runner. Workers do not start until Start is called;
// Enqueue works either way.
func NewRunner(store Store, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.StuckCheckInterval <= 0 {
		cfg.StuckCheckInterval = cfg.StuckJobAge / 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	wake := make(map[Name]chan struct{}, len(cfg.Queues))
	for name := range cfg.Queues {
		wake[name] = make(chan struct{}, 1)
	}

	return &Runner{
		store:      store,
		config:     cfg,
		logger:     logger.With("component", "queue"),
		now:        func() time.Time { return time.Now().UTC() },
		handlers:   make(map[string]HandlerFunc),
		wake:       wake,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetClock replaces the time source. Intended for tests.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Handle registers the handler for a job type, replacing any previous one.
func (r *Runner) Handle(jobType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = h
}

// OnDead registers a callback invoked whenever a job is dead-lettered.
func (r *Runner) OnDead(fn DeadLetterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDead = append(r.onDead, fn)
}

// Store returns the underlying job store.
func (r *Runner) Store() Store {
	return r.store
}

// Enqueue persists a job and returns its handle without waiting for it to run.
func (r *Runner) Enqueue(ctx context.Context, req Request) (Handle, error) {
	policy, ok := r.config.Queues[req.Queue]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %q", ErrUnknownQueue, req.Queue)
	}

	job, err := newJob(req, policy, r.now())
	if err != nil {
		return Handle{}, err
	}
	if err := r.store.Insert(ctx, job); err != nil {
		return Handle{}, fmt.Errorf("failed to save job: %w", err)
	}

	// Non-blocking: a pending signal already guarantees a worker will look.
	select {
	case r.wake[req.Queue] <- struct{}{}:
	default:
	}

	r.logger.Debug("job enqueued",
		"job_id", job.ID,
		"queue", job.Queue,
		"job_type", job.Type)

	return Handle{ID: job.ID, Queue: job.Queue, Type: job.Type, EnqueuedAt: job.CreatedAt}, nil
}

// Start recovers stuck jobs, then launches the worker pools and the
// stuck-job monitor. Calling Start twice is a no-op.
func (r *Runner) Start() error {
	var err error
	r.startOnce.Do(func() {
		if err = r.Recover(r.ctx); err != nil {
			err = fmt.Errorf("failed to recover jobs: %w", err)
			return
		}

		for name, policy := range r.config.Queues {
			n := policy.Concurrency
			if n < 1 {
				n = 1
			}
			for i := 0; i < n; i++ {
				r.wg.Add(1)
				go r.worker(name, i)
			}
		}

		if r.config.StuckJobAge > 0 {
			r.wg.Add(1)
			go r.stuckJobMonitor()
		}
	})
	return err
}

// Stop cancels the workers and waits for in-flight handlers to return.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// Recover returns jobs that have been active for longer than StuckJobAge to
// the queue. Other processes may share the store, so a recently claimed job
// is left to whoever holds it. A zero StuckJobAge disables recovery.
func (r *Runner) Recover(ctx context.Context) error {
	if r.config.StuckJobAge <= 0 {
		return nil
	}
	n, err := r.store.ResetStale(ctx, r.now().Add(-r.config.StuckJobAge))
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Info("recovered stuck jobs", "count", n)
	}
	return nil
}

// ProcessNext claims and executes at most one job from the queue. It reports
// whether a job was processed.
func (r *Runner) ProcessNext(ctx context.Context, queue Name) (bool, error) {
	job, err := r.store.Claim(ctx, queue, r.now())
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}
	r.execute(ctx, job)
	return true, nil
}

// Drain processes jobs from the queue until none are runnable. It returns the
// number processed.
func (r *Runner) Drain(ctx context.Context, queue Name) (int, error) {
	n := 0
	for {
		ok, err := r.ProcessNext(ctx, queue)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

func (r *Runner) worker(queue Name, id int) {
	defer r.wg.Done()

	logger := r.logger.With("queue", queue, "worker_id", id)
	logger.Debug("starting worker")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		processed, err := r.ProcessNext(r.ctx, queue)
		if err != nil && r.ctx.Err() == nil {
			logger.Error("worker failed to fetch job", "error", err)
		}
		if processed {
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(r.config.PollInterval)

		select {
		case <-r.ctx.Done():
			logger.Debug("stopping worker")
			return
		case <-r.wake[queue]:
		case <-timer.C:
		}
	}
}

func (r *Runner) execute(ctx context.Context, job *Job) {
	logger := r.logger.With(
		"job_id", job.ID,
		"queue", job.Queue,
		"job_type", job.Type,
		"attempt", job.Attempts,
	)

	r.mu.RLock()
	handler, ok := r.handlers[job.Type]
	r.mu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("%w: %q", ErrNoHandler, job.Type)
	} else {
		err = r.invoke(ctx, handler, job)
	}

	// Outcome writes must land even if the runner is stopping.
	writeCtx := context.WithoutCancel(ctx)
	now := r.now()

	if err == nil {
		if cerr := r.store.Complete(writeCtx, job.ID, job.Attempts, now); cerr != nil {
			r.logOutcomeError(logger, "failed to mark job completed", cerr)
			return
		}
		logger.Debug("job completed")
		return
	}

	// last_error is visible to operators; keep credentials out of it.
	msg := redact.Error(err)

	if errors.Is(err, ErrPermanent) || job.Exhausted() {
		if ferr := r.store.Fail(writeCtx, job.ID, job.Attempts, msg, nil, now); ferr != nil {
			r.logOutcomeError(logger, "failed to mark job dead", ferr)
			return
		}
		job.State = StateDead
		job.LastError = msg
		logger.Error("job moved to dead letter", "error", err, "max_attempts", job.MaxAttempts)
		r.deadLetter(writeCtx, job, err)
		return
	}

	policy := r.config.Queues[job.Queue]
	retryAt := now.Add(policy.Delay(job.Attempts, job.Backoff))
	if ferr := r.store.Fail(writeCtx, job.ID, job.Attempts, msg, &retryAt, now); ferr != nil {
		r.logOutcomeError(logger, "failed to schedule job retry", ferr)
		return
	}
	logger.Warn("job attempt failed, retry scheduled", "error", err, "retry_at", retryAt)
}

// logOutcomeError logs a failed outcome write. ErrJobLost means a later
// attempt owns the job now, so its outcome wins.
func (r *Runner) logOutcomeError(logger *slog.Logger, msg string, err error) {
	if errors.Is(err, ErrJobLost) {
		logger.Warn("job outcome discarded, attempt was superseded")
		return
	}
	logger.Error(msg, "error", err)
}

func (r *Runner) invoke(ctx context.Context, handler HandlerFunc, job *Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return handler(ctx, job)
}

func (r *Runner) deadLetter(ctx context.Context, job *Job, cause error) {
	r.mu.RLock()
	callbacks := make([]DeadLetterFunc, len(r.onDead))
	copy(callbacks, r.onDead)
	r.mu.RUnlock()

	for _, fn := range callbacks {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("dead letter callback panicked", "job_id", job.ID, "panic", p)
				}
			}()
			fn(ctx, job, cause)
		}()
	}
}

// stuckJobMonitor periodically returns jobs that have been active for longer
// than StuckJobAge to the queue.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	interval := r.config.StuckCheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.ResetStale(r.ctx, r.now().Add(-r.config.StuckJobAge))
			if err != nil {
				if r.ctx.Err() == nil {
					r.logger.Error("failed to reset stuck jobs", "error", err)
				}
				continue
			}
			if n > 0 {
				r.logger.Info("requeued stuck jobs", "count", n)
				for name := range r.wake {
					select {
					case r.wake[name] <- struct{}{}:
					default:
					}
				}
			}
		}
	}
}
