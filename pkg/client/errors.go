package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/appleniks969/kmmNetworkClient/pkg/transport"
)

// ErrorClass is the closed failure taxonomy of the client. Every failed
// request surfaces exactly one class.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses. Never retried.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassTimeout represents transport-level timeouts.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassCancelled represents cooperative cancellation. Never
	// retried, never wrapped further.
	ErrorClassCancelled ErrorClass = "cancelled"

	// ErrorClassUnknown covers every other transport failure, including
	// connection resets and response parse failures.
	ErrorClassUnknown ErrorClass = "unknown"
)

// Error is the typed network error surfaced to callers. Match on Class via
// errors.As rather than parsing the message.
type Error struct {
	Class      ErrorClass
	StatusCode int
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d)", e.Class, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("%s error", e.Class)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err is a 4xx client error.
func IsClientError(err error) bool { return classOf(err) == ErrorClassClient }

// IsServerError reports whether err is a 5xx server error.
func IsServerError(err error) bool { return classOf(err) == ErrorClassServer }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool { return classOf(err) == ErrorClassTimeout }

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return classOf(err) == ErrorClassCancelled }

func classOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// Classify maps a transport outcome to the error taxonomy. It is pure:
// the same outcome always yields a structurally equal error. A successful
// outcome (no transport error, status below 400) yields nil.
func Classify(resp *transport.Response, err error) *Error {
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return &Error{Class: ErrorClassCancelled, Err: err}
		case errors.Is(err, context.DeadlineExceeded):
			return &Error{Class: ErrorClassTimeout, Err: err}
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &Error{Class: ErrorClassTimeout, Err: err}
		}

		return &Error{Class: ErrorClassUnknown, Err: err}
	}

	if resp == nil {
		return &Error{Class: ErrorClassUnknown}
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &Error{Class: ErrorClassClient, StatusCode: resp.StatusCode, Body: resp.Body}
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return &Error{Class: ErrorClassServer, StatusCode: resp.StatusCode, Body: resp.Body}
	case resp.StatusCode >= 400:
		// Status above 599 is off the standard grid.
		return &Error{Class: ErrorClassUnknown, StatusCode: resp.StatusCode, Body: resp.Body}
	default:
		return nil
	}
}

// shouldRetry determines if an error class is worth another attempt.
// Client errors signal a request defect, not a transient condition, and
// cancellation always ends the request immediately.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassTimeout, ErrorClassUnknown:
		return true
	default:
		return false
	}
}
