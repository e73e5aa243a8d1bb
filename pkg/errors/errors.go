package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes domain errors for classification and handling
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeProcess    ErrorType = "process"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeCancelled  ErrorType = "cancelled"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError is the standard error type carrying a category, an optional
// underlying cause and structured context for diagnostics
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Type))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for key, value := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", key, value))
			first = false
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair to the error and returns the same
// error to allow fluent chaining at the call site
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewDomainError creates an error with an explicit type
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return newDomainError(errorType, message, cause)
}

func NewValidationError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeValidation, message, cause)
}

func NewNotFoundError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeNotFound, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeIO, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeProcess, message, cause)
}

func NewNetworkError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeNetwork, message, cause)
}

func NewTimeoutError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeTimeout, message, cause)
}

func NewConflictError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeConflict, message, cause)
}

func NewPermissionError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypePermission, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeCancelled, message, cause)
}

func NewInternalError(message string, cause error) *DomainError {
	return newDomainError(ErrorTypeInternal, message, cause)
}

func isErrorType(err error, errorType ErrorType) bool {
	domainError, ok := err.(*DomainError)
	if !ok {
		return false
	}
	return domainError.Type == errorType
}

func IsValidationError(err error) bool { return isErrorType(err, ErrorTypeValidation) }
func IsNotFoundError(err error) bool   { return isErrorType(err, ErrorTypeNotFound) }
func IsIOError(err error) bool         { return isErrorType(err, ErrorTypeIO) }
func IsProcessError(err error) bool    { return isErrorType(err, ErrorTypeProcess) }
func IsNetworkError(err error) bool    { return isErrorType(err, ErrorTypeNetwork) }
func IsTimeoutError(err error) bool    { return isErrorType(err, ErrorTypeTimeout) }
func IsConflictError(err error) bool   { return isErrorType(err, ErrorTypeConflict) }
func IsPermissionError(err error) bool { return isErrorType(err, ErrorTypePermission) }
func IsCancelledError(err error) bool  { return isErrorType(err, ErrorTypeCancelled) }
func IsInternalError(err error) bool   { return isErrorType(err, ErrorTypeInternal) }
