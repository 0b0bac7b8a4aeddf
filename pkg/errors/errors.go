package errors

import (
	"fmt"
	"time"
)

// ErrorType represents different classes of failures the sync can hit
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network_error"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeClient     ErrorType = "client_error"
	ErrorTypeServer     ErrorType = "server_error"
	ErrorTypeFilesystem ErrorType = "filesystem_error"
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a classified failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	// RetryAfter is the server-dictated wait for rate_limit errors.
	// Zero for every other type.
	RetryAfter time.Duration
	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without an underlying cause
func New(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// Wrap creates a classified error around an underlying cause
func Wrap(t ErrorType, err error, msg string) *Error {
	return &Error{Type: t, Message: msg, Err: err}
}

// IsRetryable checks if an error type should be retried.
// Filesystem errors are never retryable: retrying a full disk only
// burns the backoff budget. Unknown errors fail safe.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServer:
		return true
	case ErrorTypeClient, ErrorTypeFilesystem, ErrorTypeValidation:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch {
	case statusCode == 0: // network failure, no response
		return true
	case statusCode == 429:
		return true
	case statusCode >= 500:
		return true
	default:
		return false
	}
}
