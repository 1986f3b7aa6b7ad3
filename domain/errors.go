package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// FieldError describes one violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error represents a domain-level error. Validation failures carry one
// FieldError per violated rule; all other kinds leave Fields empty.
type Error struct {
	Code    ErrorCode
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError collects the violated rules of one request.
func NewValidationError(fields []FieldError) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewAuthorizationError names the role the principal is missing.
func NewAuthorizationError(role Role) *Error {
	return &Error{
		Code:    ErrCodeForbidden,
		Message: fmt.Sprintf("Missing role '%s'", role),
	}
}

// NewStoryNotFound reports an absent story aggregate.
func NewStoryNotFound(id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("story %s not found", id)}
}

// NewTaskNotFound reports an absent task.
func NewTaskNotFound(id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("task %s not found", id)}
}

// NewDuplicateStory reports a story id collision on capture.
func NewDuplicateStory(id string) *Error {
	return &Error{Code: ErrCodeConflict, Message: fmt.Sprintf("story %s already exists", id)}
}

// NewDuplicateTask reports a task id collision on add.
func NewDuplicateTask(id string) *Error {
	return &Error{Code: ErrCodeConflict, Message: fmt.Sprintf("task %s already exists", id)}
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
