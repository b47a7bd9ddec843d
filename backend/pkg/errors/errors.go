package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a missing user or quote
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeAlreadyExists represents a create of an id that is already taken
	ErrorTypeAlreadyExists ErrorType = "already_exists"
	// ErrorTypeValidation represents malformed input rejected before storage
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStorageUnavailable represents a transient storage failure
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable"
	// ErrorTypeStartup represents a fatal failure while connecting at startup
	ErrorTypeStartup ErrorType = "startup"
	// ErrorTypePlatform represents chat platform (Discord) failures
	ErrorTypePlatform ErrorType = "platform"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// ErrNotFound is returned when a user or quote does not exist
type ErrNotFound struct {
	*BaseError
	Entity string
	ID     string
}

func NewNotFound(entity, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", entity, id), nil),
		Entity:    entity,
		ID:        id,
	}
}

// ErrAlreadyExists is returned when creating an entity whose id is taken
type ErrAlreadyExists struct {
	*BaseError
	Entity string
	ID     string
}

func NewAlreadyExists(entity, id string) *ErrAlreadyExists {
	return &ErrAlreadyExists{
		BaseError: NewBaseError(ErrorTypeAlreadyExists, fmt.Sprintf("%s already exists: %s", entity, id), nil),
		Entity:    entity,
		ID:        id,
	}
}

// ErrValidation is returned for malformed identifiers and ids
type ErrValidation struct {
	*BaseError
	Field string
	Value string
}

func NewValidation(field, value, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s %q: %s", field, value, reason), nil),
		Field:     field,
		Value:     value,
	}
}

// ErrStorageUnavailable is returned when the store cannot be reached
type ErrStorageUnavailable struct {
	*BaseError
	Operation string
}

func NewStorageUnavailable(operation string, err error) *ErrStorageUnavailable {
	return &ErrStorageUnavailable{
		BaseError: NewBaseError(ErrorTypeStorageUnavailable, fmt.Sprintf("storage unavailable during %s", operation), err),
		Operation: operation,
	}
}

// ErrStartupFailure is returned when an initial connection cannot be established
type ErrStartupFailure struct {
	*BaseError
	Component string
}

func NewStartupFailure(component string, err error) *ErrStartupFailure {
	return &ErrStartupFailure{
		BaseError: NewBaseError(ErrorTypeStartup, fmt.Sprintf("failed to start %s", component), err),
		Component: component,
	}
}

// ErrPlatformCallFailed is returned when a Discord API call fails
type ErrPlatformCallFailed struct {
	*BaseError
	Call string
}

func NewPlatformCallFailed(call string, err error) *ErrPlatformCallFailed {
	return &ErrPlatformCallFailed{
		BaseError: NewBaseError(ErrorTypePlatform, fmt.Sprintf("platform call failed: %s", call), err),
		Call:      call,
	}
}

// ErrPlatformUnavailable is returned when no Discord session is available
var ErrPlatformUnavailable = NewBaseError(ErrorTypePlatform, "Discord session not available", nil)

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType checks if an error (or anything it wraps) is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.errorType() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return IsErrorType(err, ErrorTypeNotFound) }

// IsAlreadyExists reports whether err is an AlreadyExists error
func IsAlreadyExists(err error) bool { return IsErrorType(err, ErrorTypeAlreadyExists) }

// IsValidation reports whether err is a Validation error
func IsValidation(err error) bool { return IsErrorType(err, ErrorTypeValidation) }

// IsStorageUnavailable reports whether err is a StorageUnavailable error
func IsStorageUnavailable(err error) bool { return IsErrorType(err, ErrorTypeStorageUnavailable) }

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Caller gave up; retrying would only repeat the cancellation
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	return IsStorageUnavailable(err)
}
