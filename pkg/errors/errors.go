package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies engine and service failures for callers.
type Code string

const (
	// CodeValidation marks rejected-request errors: the input violated a
	// precondition and no calculation was attempted.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeNotFound marks lookups of entities that do not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict marks duplicate-creation conflicts.
	CodeConflict Code = "CONFLICT"
	// CodeStateConflict marks disallowed lifecycle transitions, including
	// concurrent-modification failures detected by guarded updates.
	CodeStateConflict Code = "STATE_CONFLICT"
	// CodeDependency marks failures of external collaborators (database,
	// cache) the operation depends on.
	CodeDependency Code = "DEPENDENCY_ERROR"
	// CodeInternal marks unexpected failures.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Retryable reports whether an operation failing with the code may
// succeed on retry without any input change.
func (c Code) Retryable() bool {
	switch c {
	case CodeDependency, CodeInternal:
		return true
	default:
		return false
	}
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed *Error from anywhere in the chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the first typed error in the chain, falling
// back to CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}
