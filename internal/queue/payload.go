package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job types, one per logical queue.
const (
	TypePush    = "push.send"
	TypeEmail   = "email.send"
	TypeCompute = "compute.run"
)

// PushPayload is the contract of a push notification job. Attempts and
// Backoff, when set, override the push queue policy for this job.
type PushPayload struct {
	RecipientID    uuid.UUID      `json:"recipientId"`
	NotificationID uuid.UUID      `json:"notificationId,omitempty"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Data           map[string]any `json:"data,omitempty"`
	Attempts       int            `json:"attempts,omitempty"`
	Backoff        time.Duration  `json:"backoff,omitempty"`
}

// EmailPayload is the contract of an email job.
type EmailPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Template string `json:"template,omitempty"`
}

// ComputePayload is the contract of a computation job. CacheKey is where the
// result is written.
type ComputePayload struct {
	Kind     string            `json:"kind"`
	Params   map[string]string `json:"params,omitempty"`
	CacheKey string            `json:"cacheKey"`
}

// PushRequest builds the enqueue request for a push payload.
func PushRequest(p PushPayload) Request {
	return Request{
		Queue:       QueuePush,
		Type:        TypePush,
		Payload:     p,
		MaxAttempts: p.Attempts,
		Backoff:     p.Backoff,
	}
}

// EmailRequest builds the enqueue request for an email payload.
func EmailRequest(p EmailPayload) Request {
	return Request{Queue: QueueEmail, Type: TypeEmail, Payload: p}
}

// ComputeRequest builds the enqueue request for a computation payload.
func ComputeRequest(p ComputePayload) Request {
	return Request{Queue: QueueCompute, Type: TypeCompute, Payload: p, Priority: 1}
}

// Decode unmarshals a job payload. Failures are permanent since retrying
// cannot change the stored bytes.
func Decode[T any](job *Job) (T, error) {
	var v T
	if err := json.Unmarshal(job.Payload, &v); err != nil {
		return v, Permanent(fmt.Errorf("decode %s payload: %w", job.Type, err))
	}
	return v, nil
}
