package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Name identifies one logical queue.
type Name string

// Logical queues. Each has its own worker pool and retry policy.
const (
	QueuePush    Name = "push"
	QueueEmail   Name = "email"
	QueueCompute Name = "compute"
)

// Names returns every logical queue.
func Names() []Name {
	return []Name{QueuePush, QueueEmail, QueueCompute}
}

// State is the lifecycle state of a job.
//
// A job moves queued -> active -> completed on success. On a failed attempt
// with attempts left it becomes failed with RunAt set to the next retry time.
// Failed is the queued-with-delay state: once RunAt has passed, Claim treats
// a failed job exactly like a queued one, so failed -> active stands for
// failed -> queued -> active without a separate promotion write. When
// attempts are exhausted it becomes dead and stays there until an operator
// requeues it.
type State string

const (
	StateQueued    State = "queued"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateDead      State = "dead"
)

// Job is a persisted unit of background work.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Queue       Name            `json:"queue"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	State       State           `json:"state"`
	Priority    int             `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	Backoff     time.Duration   `json:"backoff,omitempty"` // zero uses the queue policy
	RunAt       time.Time       `json:"runAt"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty"`
}

// Exhausted reports whether the job has used all its attempts.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}

// Request describes a job to enqueue. Payload is marshalled to JSON.
type Request struct {
	Queue       Name
	Type        string
	Payload     any
	Priority    int
	MaxAttempts int           // zero uses the queue policy
	Backoff     time.Duration // zero uses the queue policy
	RunAt       time.Time     // zero means now
}

// Handle is returned by Enqueue as soon as the job is persisted.
type Handle struct {
	ID         uuid.UUID `json:"jobId"`
	Queue      Name      `json:"queue"`
	Type       string    `json:"type"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func newJob(req Request, policy Policy, now time.Time) (*Job, error) {
	if req.Type == "" {
		return nil, fmt.Errorf("%w: job type is required", ErrInvalidRequest)
	}

	var payload json.RawMessage
	switch p := req.Payload.(type) {
	case nil:
		payload = json.RawMessage("{}")
	case json.RawMessage:
		payload = p
	case []byte:
		payload = json.RawMessage(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: encode payload: %v", ErrInvalidRequest, err)
		}
		payload = b
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidRequest)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = policy.MaxAttempts
	}
	runAt := req.RunAt
	if runAt.IsZero() {
		runAt = now
	}

	return &Job{
		ID:          uuid.New(),
		Queue:       req.Queue,
		Type:        req.Type,
		Payload:     payload,
		State:       StateQueued,
		Priority:    req.Priority,
		MaxAttempts: maxAttempts,
		Backoff:     req.Backoff,
		RunAt:       runAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
