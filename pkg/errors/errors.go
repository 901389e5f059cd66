// Package errors classifies failures of requests against the image board.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeForbidden   ErrorType = "forbidden"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a request error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d) for %s: %s", e.Type, e.Code, e.URL, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromStatus maps a non-2xx HTTP status to a typed error. It returns nil for
// 2xx responses.
func FromStatus(statusCode int, url string) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	e := &Error{Code: statusCode, URL: url, Message: http.StatusText(statusCode)}
	switch {
	case statusCode == http.StatusNotFound:
		e.Type = ErrorTypeNotFound
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		e.Type = ErrorTypeForbidden
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case statusCode >= 500:
		e.Type = ErrorTypeServerError
	default:
		e.Type = ErrorTypeUnknown
		e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// Network wraps a transport level failure
func Network(url string, err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		URL:     url,
		Err:     err,
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// Retryable reports whether err is a typed request error worth retrying
func Retryable(err error) bool {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return IsRetryable(reqErr.Type)
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if it is untyped
func TypeOf(err error) ErrorType {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Type
	}
	return ErrorTypeUnknown
}
