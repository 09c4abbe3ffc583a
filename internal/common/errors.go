package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy for the submission and reconciliation flows. The retry
// strategy differs per class, so callers match on these sentinels rather
// than on message text.
var (
	// ErrValidation: malformed request, reject with no side effects.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable: the idempotency store could not be read or
	// written. Retryable, but the caller must NOT proceed to submit a job
	// without a successful check.
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrSubmission: the external batch inference API rejected or failed
	// the submission. Safe to retry with the same intent id because no job
	// record was written yet.
	ErrSubmission = errors.New("batch submission failed")

	// ErrConflict: a conditional write lost the race to another submission
	// with the same intent id. Not an error for the caller; re-read and
	// return the winner's job id.
	ErrConflict = errors.New("job record already exists")

	ErrNotFound = errors.New("resource not found")
	ErrInternal = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
