// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// ErrDailyCapReached is returned by the rate governor when today's send
// budget is exhausted. It is transient; the send job backs off and retries
// instead of being dropped.
var ErrDailyCapReached = errors.New("daily send cap reached")

// ValidationError means a referenced entity is missing or malformed. Jobs
// failing with it are dead-lettered without retry.
type ValidationError struct {
	Entity string
	ID     int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// NewValidation builds a ValidationError for a missing entity.
func NewValidation(entity string, id int) error {
	return &ValidationError{Entity: entity, ID: id}
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as non-retryable without it being a ValidationError.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable (downstream API failure, timeout, rate
// limit). The queue retries it with backoff up to the per-queue attempt cap.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsFatal reports whether a job failing with err must be dead-lettered
// immediately instead of retried. Everything else, marked transient or
// not, is retried with backoff.
func IsFatal(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var fe *fatalError
	return errors.As(err, &fe)
}
