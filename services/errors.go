package services

import (
	"errors"
	"fmt"

	"metahire/store"
)

// Kind classifies service errors so transports can map them to responses.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindStorage
	KindPartialFailure
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindStorage:
		return "STORAGE_ERROR"
	case KindPartialFailure:
		return "PARTIAL_FAILURE"
	case KindForbidden:
		return "FORBIDDEN"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	}
	return "INTERNAL_ERROR"
}

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func PartialFailure(message string, err error) *Error {
	return &Error{Kind: KindPartialFailure, Message: message, Err: err}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool       { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool       { return KindOf(err) == KindConflict }
func IsValidation(err error) bool     { return KindOf(err) == KindValidation }
func IsStorage(err error) bool        { return KindOf(err) == KindStorage }
func IsPartialFailure(err error) bool { return KindOf(err) == KindPartialFailure }
func IsForbidden(err error) bool      { return KindOf(err) == KindForbidden }
func IsUnauthorized(err error) bool   { return KindOf(err) == KindUnauthorized }

// fromStore turns a store error into a service error. what names the entity
// for not-found messages.
func fromStore(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return NotFound(what)
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Message: what + " already exists", Err: err}
	case errors.Is(err, store.ErrReference):
		return &Error{Kind: KindValidation, Message: what + " references a missing record", Err: err}
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Storage("failed to access "+what, err)
}

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}
