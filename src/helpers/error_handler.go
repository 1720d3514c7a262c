package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-predictor/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PredictorError struct {
	Message string
	Cause   error
}

func (e *PredictorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PredictorError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks at the API boundary
type ValidationError struct{ PredictorError }
type ModelNotFoundError struct{ PredictorError }
type SchemaMismatchError struct{ PredictorError }
type ComputationError struct{ PredictorError }
type DataError struct{ PredictorError }
type NetworkError struct{ PredictorError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{PredictorError{Message: fmt.Sprintf(format, args...)}}
}

func NewModelNotFoundError(format string, args ...interface{}) error {
	return &ModelNotFoundError{PredictorError{Message: fmt.Sprintf(format, args...)}}
}

func NewSchemaMismatchError(format string, args ...interface{}) error {
	return &SchemaMismatchError{PredictorError{Message: fmt.Sprintf(format, args...)}}
}

func NewComputationError(cause error, format string, args ...interface{}) error {
	return &ComputationError{PredictorError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewDataError(cause error, format string, args ...interface{}) error {
	return &DataError{PredictorError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewNetworkError(cause error, format string, args ...interface{}) error {
	return &NetworkError{PredictorError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

// -----------------------------------------------------------------------------

// IsValidation reports whether err is a client-side input error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsComputation reports whether err came from numeric evaluation.
func IsComputation(err error) bool {
	var c *ComputationError
	return errors.As(err, &c)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times with exponential backoff.
// It stops early when ctx is cancelled.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		}

		select {
		case <-ctx.Done():
			return NewNetworkError(ctx.Err(), "%s cancelled", operation)
		case <-time.After(delay):
		}
	}

	return NewNetworkError(lastErr, "%s failed after %d attempts", operation, maxRetries)
}
