package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different types of errors that can occur while scraping
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeConnection     ErrorType = "connection"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeTemporaryBlock ErrorType = "temporary_block"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeParsing        ErrorType = "parsing"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// temporaryBlockMessage is the literal message Instagram returns when it is
// temporarily blocking an IP. Seeing it means retrying is pointless.
const temporaryBlockMessage = "Please wait a few minutes before you try again"

// Error represents a scraping error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error without an HTTP status code
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// NewWithCode creates a typed error carrying an HTTP status code
func NewWithCode(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// Wrap creates a typed error from an underlying error
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf("%s: %v", message, err)}
}

// TypeOf returns the error type of err, or ErrorTypeUnknown if err is not
// a typed error
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeConnection, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsTemporaryBlock reports whether err is Instagram's explicit temporary
// block signal. Matches both the typed error and the literal message, which
// can surface inside wrapped errors from lower layers.
func IsTemporaryBlock(err error) bool {
	if err == nil {
		return false
	}
	if TypeOf(err) == ErrorTypeTemporaryBlock {
		return true
	}
	return strings.Contains(err.Error(), temporaryBlockMessage)
}

// IsTooManyRequests reports whether err is an over-rate signal (HTTP 429)
func IsTooManyRequests(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}

// IsConnection reports whether err is a transient connection failure
func IsConnection(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeConnection || t == ErrorTypeNetwork
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// FromStatusCode maps an HTTP status code to an error type
func FromStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
