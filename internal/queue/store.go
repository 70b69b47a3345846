package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists jobs. Implementations must make Claim atomic: a job is
// handed to at most one caller per attempt.
type Store interface {
	// Insert persists a new job in the queued state.
	Insert(ctx context.Context, job *Job) error

	// Claim picks the next runnable job of the queue, marks it active and
	// increments its attempt count. A job is runnable when it is queued, or
	// failed with RunAt <= now. Higher priority wins, then earlier RunAt.
	// Returns nil, nil when nothing is runnable.
	Claim(ctx context.Context, queue Name, now time.Time) (*Job, error)

	// Complete marks the job completed. It only applies while the job is
	// active with the given attempt count; otherwise it returns ErrJobLost
	// and leaves the job untouched.
	Complete(ctx context.Context, id uuid.UUID, attempt int, now time.Time) error

	// Fail records a failed attempt under the same ownership rule as
	// Complete. A non-nil retryAt schedules another attempt (state failed);
	// nil dead-letters the job (state dead).
	Fail(ctx context.Context, id uuid.UUID, attempt int, errMsg string, retryAt *time.Time, now time.Time) error

	// Get returns a job or ErrJobNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// List returns jobs matching filter, oldest first.
	List(ctx context.Context, filter Filter) ([]Job, error)

	// Requeue moves a dead job back to queued with a fresh attempt budget.
	// Returns ErrJobNotDead for jobs in any other state.
	Requeue(ctx context.Context, id uuid.UUID, now time.Time) error

	// ResetStale moves active jobs last touched before cutoff back to queued.
	// The attempt count is kept, so the interrupted attempt can no longer
	// record an outcome once the job is claimed again.
	ResetStale(ctx context.Context, cutoff time.Time) (int, error)

	// Purge deletes completed and dead jobs finished before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int, error)

	// Counts returns job counts grouped by queue and state.
	Counts(ctx context.Context) (map[Name]map[State]int, error)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Queue Name
	State State
	Limit int
}
