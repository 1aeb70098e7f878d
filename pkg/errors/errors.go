package errors

import (
	"errors"
	"fmt"
)

// Domain error types for the ingestion daemon

var (
	// ErrNotRunning indicates no live daemon process was found
	ErrNotRunning = errors.New("daemon not running")

	// ErrAlreadyRunning indicates another daemon instance holds the PID file
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")
)

// Stream-specific errors

var (
	// ErrStreamNotConnected indicates the news stream is not connected
	ErrStreamNotConnected = errors.New("stream not connected")

	// ErrHandshakeFailed indicates the stream handshake did not complete
	ErrHandshakeFailed = errors.New("stream handshake failed")

	// ErrStreamClosed indicates the upstream closed the connection
	ErrStreamClosed = errors.New("stream closed by upstream")
)

// Feed-specific errors

var (
	// ErrFeedUnavailable indicates a feed endpoint could not be reached
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrMalformedPayload indicates a provider payload could not be parsed
	ErrMalformedPayload = errors.New("malformed payload")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
