package api

import (
	"errors"
	"fmt"
	"time"
)

// ArgumentError reports a programmer error at a registry call site, such as
// a zero ID, a nil supplier or a registration of the wrong kind.
//
// These errors are returned immediately and never reach the serializer
// goroutine.
type ArgumentError struct {
	// Op is the registry operation that rejected the argument (e.g. "put")
	Op string

	// Argument names the offending parameter
	Argument string

	// Message describes what is wrong with it
	Message string
}

// Error implements the error interface for ArgumentError.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Argument, e.Message)
}

// NewArgumentError creates a new ArgumentError.
//
// Example:
//
//	if supplier == nil {
//	    return nil, api.NewArgumentError("put", "supplier", "must not be nil")
//	}
func NewArgumentError(op, argument, message string) *ArgumentError {
	return &ArgumentError{Op: op, Argument: argument, Message: message}
}

// IsArgument checks if an error is or wraps an ArgumentError.
func IsArgument(err error) bool {
	var argErr *ArgumentError
	return errors.As(err, &argErr)
}

// InterruptedError reports that a caller stopped waiting because its context
// ended. The wrapped cause is the context error, so errors.Is(err,
// context.Canceled) and errors.Is(err, context.DeadlineExceeded) keep working.
//
// An interrupted wait does not cancel the underlying mutation: an action that
// was already enqueued still runs on the serializer goroutine.
type InterruptedError struct {
	// Op is the operation whose wait was interrupted
	Op string

	// Cause is the context error that ended the wait
	Cause error
}

// Error implements the error interface for InterruptedError.
func (e *InterruptedError) Error() string {
	return fmt.Sprintf("%s: interrupted while waiting: %v", e.Op, e.Cause)
}

// Unwrap returns the context error.
func (e *InterruptedError) Unwrap() error { return e.Cause }

// NewInterruptedError creates a new InterruptedError.
func NewInterruptedError(op string, cause error) *InterruptedError {
	return &InterruptedError{Op: op, Cause: cause}
}

// IsInterrupted checks if an error is or wraps an InterruptedError.
func IsInterrupted(err error) bool {
	var intErr *InterruptedError
	return errors.As(err, &intErr)
}

// TimeoutError reports that a bounded wait expired. It carries the timeout
// that was applied for diagnostics.
type TimeoutError struct {
	// Op is the operation that timed out (e.g. "getSync")
	Op string

	// Timeout is the bound that expired
	Timeout time.Duration

	// Subject optionally names what was waited for (usually an ID)
	Subject string
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: timed out after %s waiting for %s", e.Op, e.Timeout, e.Subject)
	}
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Timeout)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(op string, timeout time.Duration, subject string) *TimeoutError {
	return &TimeoutError{Op: op, Timeout: timeout, Subject: subject}
}

// IsTimeout checks if an error is or wraps a TimeoutError.
//
// Example:
//
//	v, err := bs.GetSyncTimeout(ctx, 50*time.Millisecond)
//	if api.IsTimeout(err) {
//	    // service not available yet
//	}
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// ErrCancelled is the error of a future that was cancelled before it was resolved.
var ErrCancelled = errors.New("future cancelled")
