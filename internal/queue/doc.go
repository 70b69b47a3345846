// Package queue implements durable, retryable background jobs.
//
// A Runner owns one worker pool per logical queue (push, email, compute).
// Enqueue persists the job through a Store and returns a Handle at once; it
// never waits for delivery. Workers claim jobs atomically, run the handler
// registered for the job type and record the outcome. Failed attempts are
// rescheduled with capped exponential backoff until MaxAttempts is reached,
// after which the job is dead-lettered and reported to OnDead callbacks.
//
// Delivery is at-least-once. Jobs active longer than StuckJobAge, such as
// those a crashed process left behind, are returned to the queue on Start and
// by a periodic monitor. Several runners may share one Store: an attempt only
// records its outcome while it still holds the job. Handlers must therefore
// be idempotent.
// There is no cancellation API and no per-handler timeout.
package queue
