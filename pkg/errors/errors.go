// Package errors provides structured error types for careflow.
//
// Errors carry a machine-readable [Code] so that the retry layer can make a
// single, exhaustive decision about a failure instead of sniffing messages:
//
//   - INVALID_*: input rejected before anything is sent
//   - NOT_FOUND, UNAUTHORIZED, FORBIDDEN, HTTP_STATUS, RATE_LIMITED: the API answered
//   - TIMEOUT, NETWORK_UNREACHABLE: the API never answered
//   - DECODE, INTERNAL: local failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "patient id cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap transport errors at the failure site
//	err := errors.Wrap(errors.ErrCodeTimeout, origErr, "GET %s", url)
//
// HTTP responses that are not successful surface as [*StatusError], whose
// code is derived from the status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPattern Code = "INVALID_PATTERN"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// The remote API answered with a failure status
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"
	ErrCodeRateLimited  Code = "RATE_LIMITED"
	ErrCodeHTTPStatus   Code = "HTTP_STATUS"

	// The remote API never answered
	ErrCodeTimeout            Code = "TIMEOUT"
	ErrCodeNetworkUnreachable Code = "NETWORK_UNREACHABLE"

	// Local errors
	ErrCodeDecode   Code = "DECODE"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *StatusError.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the chain holds neither an *Error nor a *StatusError.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StatusError reports an HTTP response whose status was not successful.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string // truncated response body, may be empty
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: status %d", e.Code(), e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Code maps the status to an error code.
func (e *StatusError) Code() Code {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	default:
		return ErrCodeHTTPStatus
	}
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
