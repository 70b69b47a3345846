package queue

import (
	"errors"
	"fmt"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
)

var (
	// ErrDeliveryFailed marks a handler failure caused by an external
	// provider. The job is retried and eventually dead-lettered; the error
	// never reaches the request that enqueued it.
	ErrDeliveryFailed = errors.New("async delivery failed")

	// ErrPermanent marks a handler failure that retrying cannot fix, such as
	// an undecodable payload. The job goes straight to dead.
	ErrPermanent = errors.New("permanent job failure")

	// ErrInvalidRequest is returned by Enqueue for malformed requests.
	ErrInvalidRequest = errors.New("invalid job request")

	// ErrUnknownQueue is returned when a request names a queue with no policy.
	ErrUnknownQueue = errors.New("unknown queue")

	// ErrNoHandler is recorded when a claimed job has no registered handler.
	ErrNoHandler = fmt.Errorf("%w: no handler registered", ErrPermanent)

	// ErrHandlerPanic is recorded when a handler panics.
	ErrHandlerPanic = errors.New("job handler panicked")

	// ErrJobNotFound is returned by stores for unknown job ids.
	ErrJobNotFound = fmt.Errorf("%w: job", store.ErrNotFound)

	// ErrJobNotDead is returned when requeueing a job that is not dead.
	ErrJobNotDead = fmt.Errorf("%w: job is not dead", store.ErrConflict)

	// ErrJobLost is returned when an outcome is recorded for an attempt that
	// no longer holds the job: it was reset as stuck, claimed again, or is
	// gone.
	ErrJobLost = fmt.Errorf("%w: job attempt no longer active", store.ErrConflict)
)

// Permanent wraps err so the runner dead-letters the job without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}
