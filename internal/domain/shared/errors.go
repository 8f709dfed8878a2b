package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error with a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the failure classes of the import and retention pipeline.
// Argument and configuration errors are fatal to the single call that raised
// them; data and transport errors are logged and the batch continues.
const (
	CodeArgumentError      = "ARGUMENT_ERROR"
	CodeDataError          = "DATA_ERROR"
	CodeTransportError     = "TRANSPORT_ERROR"
	CodeConfigurationError = "CONFIGURATION_ERROR"
)

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
)

// NewArgumentError creates a domain error for invalid caller-supplied options
func NewArgumentError(format string, args ...interface{}) *DomainError {
	return NewDomainError(CodeArgumentError, fmt.Sprintf(format, args...))
}

// NewDataError creates a domain error for invalid or incomplete remote data
func NewDataError(format string, args ...interface{}) *DomainError {
	return NewDomainError(CodeDataError, fmt.Sprintf(format, args...))
}

// NewTransportError creates a domain error for remote gateway failures
func NewTransportError(format string, args ...interface{}) *DomainError {
	return NewDomainError(CodeTransportError, fmt.Sprintf(format, args...))
}

// NewConfigurationError creates a domain error for unusable configuration
func NewConfigurationError(format string, args ...interface{}) *DomainError {
	return NewDomainError(CodeConfigurationError, fmt.Sprintf(format, args...))
}

// HasCode reports whether err is a DomainError carrying the given code
func HasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsArgumentError reports whether err is an argument error
func IsArgumentError(err error) bool {
	return HasCode(err, CodeArgumentError)
}

// IsTransportError reports whether err is a transport error
func IsTransportError(err error) bool {
	return HasCode(err, CodeTransportError)
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return HasCode(err, CodeConfigurationError)
}
