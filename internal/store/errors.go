package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrTaskNotFound, ErrTicketNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second regularization for one attendance).
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when a conditional write finds the row in a
	// state that forbids it, such as a latch that is already set.
	ErrConflict = errors.New("conflicting update")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	ErrTaskNotFound           = fmt.Errorf("%w: task", ErrNotFound)
	ErrTicketNotFound         = fmt.Errorf("%w: ticket", ErrNotFound)
	ErrThreadNotFound         = fmt.Errorf("%w: comment thread", ErrNotFound)
	ErrCommentNotFound        = fmt.Errorf("%w: comment", ErrNotFound)
	ErrEmployeeNotFound       = fmt.Errorf("%w: employee", ErrNotFound)
	ErrAttendanceNotFound     = fmt.Errorf("%w: attendance", ErrNotFound)
	ErrRegularizationNotFound = fmt.Errorf("%w: regularization", ErrNotFound)
	ErrNotificationNotFound   = fmt.Errorf("%w: notification", ErrNotFound)
	ErrTaskTypeNotFound       = fmt.Errorf("%w: task type", ErrNotFound)
	ErrProjectTypeNotFound    = fmt.Errorf("%w: project type", ErrNotFound)

	// Entity-specific "duplicate" and "conflict" errors

	// ErrRegularizationExists indicates an attendance already has its regularization.
	ErrRegularizationExists = fmt.Errorf("%w: regularization", ErrDuplicate)

	// ErrTicketAlreadyConverted indicates the conversion latch was already set.
	ErrTicketAlreadyConverted = fmt.Errorf("%w: ticket already converted", ErrConflict)

	// ErrTicketAlreadyLinked indicates the ticket already references a task.
	ErrTicketAlreadyLinked = fmt.Errorf("%w: ticket already linked", ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Entity-specific errors wrap ErrNotFound, so a single errors.Is suffices.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflictError checks if the error is any kind of conditional-write conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "ticket", "job")
	Operation string // The operation that failed (e.g., "create", "claim")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
