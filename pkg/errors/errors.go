package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeValidation indicates malformed or missing request input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTransport indicates the upstream could not be reached
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeUpstream indicates the upstream answered with a failure
	ErrorTypeUpstream ErrorType = "UPSTREAM"

	// ErrorTypeConfiguration indicates missing credentials or startup data
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// StatusCode and Body are only set for upstream errors
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Type == ErrorTypeUpstream && e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewUpstreamError creates an error for a non-success upstream answer.
// body is the upstream error body, if any.
func NewUpstreamError(message string, statusCode int, body string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		Err:        err,
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain holds an AppError of type t
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// IsUpstreamFailure reports whether err came from reaching or talking to the upstream
func IsUpstreamFailure(err error) bool {
	return IsType(err, ErrorTypeTransport) || IsType(err, ErrorTypeUpstream)
}

// Upstream failure classes, used to tell our own malformed requests apart
// from upstream outages in logs and metrics
const (
	FailureRejected    = "rejected"
	FailureUnavailable = "unavailable"
	FailureUnreachable = "unreachable"
	FailureUnknown     = "unknown"
)

// ClassifyUpstreamFailure names the kind of upstream failure. A rejected
// call (4xx) usually means the request we built was malformed.
func ClassifyUpstreamFailure(err error) string {
	appErr, ok := As(err)
	if !ok {
		return FailureUnknown
	}
	switch appErr.Type {
	case ErrorTypeTransport:
		return FailureUnreachable
	case ErrorTypeUpstream:
		if appErr.StatusCode >= 400 && appErr.StatusCode < 500 {
			return FailureRejected
		}
		return FailureUnavailable
	default:
		return FailureUnknown
	}
}
