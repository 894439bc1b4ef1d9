package errors

import (
	"errors"
	"fmt"
)

// Common error types for the materials client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrAuthExpired        = errors.New("authentication expired")
	ErrRefreshFailed      = errors.New("refresh failed")
	ErrNoSession          = errors.New("no session")

	// Transport errors
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = &malformedError{}

	// Storage errors
	ErrStorage       = errors.New("storage error")
	ErrSlotNotFound  = errors.New("slot not found")
	ErrInvalidRecord = errors.New("invalid session record")
)

// malformedError reports an unexpected response shape. It matches both itself
// and ErrTransport so callers handling transport failures need no extra case.
type malformedError struct{}

func (*malformedError) Error() string { return "malformed response" }

func (*malformedError) Is(target error) bool {
	return target == ErrTransport
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines a classification sentinel with the underlying cause so that
// both are visible to Is.
func Join(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
