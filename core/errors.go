package core

import (
	"errors"
)

type errKind int

const (
	kindNotFound errKind = iota + 1
	kindNotAllowed
	kindConflict
	kindInvalidInput
	kindInternal
)

// Error is a domain error carrying one of the five kinds of the error taxonomy:
// NotFound, NotAllowed, Conflict, InvalidInput or Internal.
type Error struct {
	kind       errKind
	msg        string
	constraint string // violated DB constraint; Conflict only
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func NotFoundError(msg string) error {
	return &Error{kind: kindNotFound, msg: msg}
}

func NotAllowedError(msg string) error {
	return &Error{kind: kindNotAllowed, msg: msg}
}

// ConflictError reports a uniqueness or referential-integrity violation.
// constraint names the violated DB constraint when known.
func ConflictError(msg, constraint string) error {
	return &Error{kind: kindConflict, msg: msg, constraint: constraint}
}

func InvalidInputError(msg string) error {
	return &Error{kind: kindInvalidInput, msg: msg}
}

func InternalError(err error, msg string) error {
	return &Error{kind: kindInternal, msg: msg, cause: err}
}

func isKind(err error, kind errKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

func IsNotFound(err error) bool   { return isKind(err, kindNotFound) }
func IsNotAllowed(err error) bool { return isKind(err, kindNotAllowed) }
func IsConflict(err error) bool   { return isKind(err, kindConflict) }
func IsInternal(err error) bool   { return isKind(err, kindInternal) }

func IsInvalidInput(err error) bool {
	if isKind(err, kindInvalidInput) {
		return true
	}
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ConflictConstraint returns the name of the DB constraint behind a Conflict
// error, or "" if err is not a Conflict or the constraint is unknown.
func ConflictConstraint(err error) string {
	var e *Error
	if errors.As(err, &e) && e.kind == kindConflict {
		return e.constraint
	}
	return ""
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}
