package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the different kinds of failure a fetch attempt can hit
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeStorage        ErrorType = "storage"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error represents a typed fetch or storage error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error wrapping cause
func New(errorType ErrorType, code int, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
		Err:     cause,
	}
}

// FromStatus builds an error for a non-2xx HTTP response
func FromStatus(statusCode int) *Error {
	return &Error{
		Type:    TypeForStatus(statusCode),
		Message: fmt.Sprintf("unexpected status %d %s", statusCode, http.StatusText(statusCode)),
		Code:    statusCode,
	}
}

// TypeForStatus maps an HTTP status code to an error type
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return ErrorTypeNotFound
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode >= 400:
		return ErrorTypeInvalidRequest
	default:
		return ErrorTypeUnknown
	}
}

// TypeOf returns the error type of err, or ErrorTypeUnknown for untyped errors
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsTransient reports whether an error type may clear up on a later run.
// Permanent types (missing asset, auth, bad request) will fail the same way again.
func IsTransient(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
