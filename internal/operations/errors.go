package operations

import (
	"errors"
	"fmt"
)

// Error types for operation failures.
const (
	ErrTypeValidation   = "validation"
	ErrTypeData         = "data"
	ErrTypeInfeasible   = "infeasible"
	ErrTypeTimeout      = "timeout"
	ErrTypeCancellation = "cancellation"
	ErrTypeFatal        = "fatal"
	ErrTypeTransient    = "transient"
)

// OperationError represents an error during operation execution.
type OperationError struct {
	Type      string `json:"type"`
	Step      string `json:"step,omitempty"`
	Message   string `json:"message"`
	Cause     error  `json:"-"`
	Retryable bool   `json:"retryable"`
}

func (e *OperationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s error in step %s: %s", e.Type, e.Step, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewDataError creates a non-retryable error for malformed or missing input data.
func NewDataError(step, message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrTypeData,
		Step:    step,
		Message: message,
		Cause:   cause,
	}
}

// NewInfeasibleError creates a non-retryable error for an unsolvable plan.
func NewInfeasibleError(step, message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrTypeInfeasible,
		Step:    step,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(step, message string) *OperationError {
	return &OperationError{
		Type:      ErrTypeTimeout,
		Step:      step,
		Message:   message,
		Retryable: true,
	}
}

// NewCancellationError creates a non-retryable cancellation error.
func NewCancellationError(step string) *OperationError {
	return &OperationError{
		Type:    ErrTypeCancellation,
		Step:    step,
		Message: "operation cancelled",
	}
}

// NewTransientError creates a retryable error for recoverable failures.
func NewTransientError(step, message string, cause error) *OperationError {
	return &OperationError{
		Type:      ErrTypeTransient,
		Step:      step,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// NewFatalError creates a non-retryable fatal error.
func NewFatalError(step, message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrTypeFatal,
		Step:    step,
		Message: message,
		Cause:   cause,
	}
}

// WrapError wraps an existing error into an OperationError, preserving the
// original classification when the error already is one.
func WrapError(step string, err error) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return opErr
	}
	return &OperationError{
		Type:    ErrTypeFatal,
		Step:    step,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}
