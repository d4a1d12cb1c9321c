package model

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store and ledger failures.
type ErrorCode string

const (
	// CodeNotFound indicates the referenced entity does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeConflict indicates a uniqueness violation: duplicate external
	// student id, or a second attendance mark for the same pair.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeValidation indicates a required field was missing or malformed
	// at the boundary.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeBackendUnavailable indicates the remote store connection could
	// not be established. A configuration condition, not a per-request one.
	CodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// CodeUnknown wraps any unexpected lower-level failure, including a
	// partial cascade delete detected by the remote adapter.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Error is the typed failure returned by the persistence port, the ledger
// and the report engine. The API layer maps Code to a transport status.
type Error struct {
	Code    ErrorCode
	Entity  string // "student", "session", "attendance", "setting" (optional)
	Message string
	Err     error // underlying cause (optional)
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a NOT_FOUND error for the named entity.
func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Entity: entity, Message: entity + " not found"}
}

// Conflict builds a CONFLICT error.
func Conflict(entity, message string) *Error {
	return &Error{Code: CodeConflict, Entity: entity, Message: message}
}

// Validation builds a VALIDATION error.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// BackendUnavailable builds a BACKEND_UNAVAILABLE error wrapping cause.
func BackendUnavailable(message string, cause error) *Error {
	return &Error{Code: CodeBackendUnavailable, Message: message, Err: cause}
}

// Unknown wraps an unexpected failure.
func Unknown(message string, cause error) *Error {
	return &Error{Code: CodeUnknown, Message: message, Err: cause}
}

func is(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error, unwrapping as needed.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsConflict reports whether err is a CONFLICT error.
func IsConflict(err error) bool { return is(err, CodeConflict) }

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool { return is(err, CodeValidation) }

// IsBackendUnavailable reports whether err is a BACKEND_UNAVAILABLE error.
func IsBackendUnavailable(err error) bool { return is(err, CodeBackendUnavailable) }
