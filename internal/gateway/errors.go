package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCancelled is returned when a request was aborted through its context.
	// Cancellation is a user action, not a failure.
	ErrCancelled = errors.New("request cancelled")

	// ErrUnauthorized is returned when the API rejects the credential.
	ErrUnauthorized = errors.New("unauthorized: run 'crawldash login'")

	// ErrNotFound is returned when the requested report does not exist.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrEmptyURL is returned when Create is called with a blank URL.
	ErrEmptyURL = errors.New("url must not be empty")
)

// TransportError describes a failed API call that was not cancelled.
type TransportError struct {
	// Op is the gateway operation, e.g. "fetch page" or "start crawl".
	Op string

	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int

	// Message is the "error" field of the response body, if any.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// classify turns a transport-level error into ErrCancelled when the request
// context was cancelled, and into a *TransportError otherwise.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, ErrCancelled)
	}
	return &TransportError{Op: op, Err: err}
}

// statusError builds the error for a non-2xx response.
func statusError(op string, code int, message string) error {
	err := &TransportError{Op: op, StatusCode: code, Message: message}
	switch code {
	case http.StatusUnauthorized:
		err.Err = ErrUnauthorized
	case http.StatusNotFound:
		err.Err = ErrNotFound
	}
	return err
}
