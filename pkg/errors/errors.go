package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "AUTH"
	ErrorTypeUpload      ErrorType = "UPLOAD"
	ErrorTypeWrite       ErrorType = "WRITE"
	ErrorTypeRead        ErrorType = "READ"
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeInternal    ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewAuth creates an authentication failure (bad credentials or identity endpoint unreachable).
func NewAuth(message string, err error) error {
	return &AppError{Type: ErrorTypeAuth, Message: message, Err: err}
}

// NewUpload creates an object store upload failure.
func NewUpload(message string, err error) error {
	return &AppError{Type: ErrorTypeUpload, Message: message, Err: err}
}

// NewWrite creates a document insert/update/delete failure.
func NewWrite(message string, err error) error {
	return &AppError{Type: ErrorTypeWrite, Message: message, Err: err}
}

// NewRead creates a document select failure.
func NewRead(message string, err error) error {
	return &AppError{Type: ErrorTypeRead, Message: message, Err: err}
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewUnavailable marks a backend as temporarily rejected, e.g. an open circuit breaker.
func NewUnavailable(message string, err error) error {
	return &AppError{Type: ErrorTypeUnavailable, Message: message, Err: err}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: message,
			Err:     err,
		}
	}

	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf reports the outermost AppError type in the chain, or INTERNAL.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsAuth checks if an error is an authentication failure
func IsAuth(err error) bool { return isType(err, ErrorTypeAuth) }

// IsUpload checks if an error is an upload failure
func IsUpload(err error) bool { return isType(err, ErrorTypeUpload) }

// IsWrite checks if an error is a write failure
func IsWrite(err error) bool { return isType(err, ErrorTypeWrite) }

// IsRead checks if an error is a read failure
func IsRead(err error) bool { return isType(err, ErrorTypeRead) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsUnavailable checks if an error is an unavailable error
func IsUnavailable(err error) bool { return isType(err, ErrorTypeUnavailable) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return isType(err, ErrorTypeInternal) }
