package service

import (
	"errors"
	"fmt"
)

// ErrNoCommentThread indicates a task was created without a discussion thread.
var ErrNoCommentThread = errors.New("task has no comment thread")

// ServiceError wraps errors from the record service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "update_ticket")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. It returns nil for a nil err.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
