package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies service failures. Handlers map each kind to one HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindBadRequest
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// AppError is the error type returned by every service operation.
type AppError struct {
	Kind    Kind
	Message string
	Invalid []string // offending inputs, e.g. rejected reference URLs
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func Unauthorized(msg string) *AppError { return &AppError{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *AppError    { return &AppError{Kind: KindForbidden, Message: msg} }
func BadRequest(msg string) *AppError   { return &AppError{Kind: KindBadRequest, Message: msg} }
func Conflict(msg string) *AppError     { return &AppError{Kind: KindConflict, Message: msg} }
func NotFound(msg string) *AppError     { return &AppError{Kind: KindNotFound, Message: msg} }

// Internal wraps an unexpected failure, keeping the underlying message.
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf classifies err. Errors that are not *AppError are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// isDuplicateKey matches unique-constraint violations from the store.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

// storeError maps a storage error at the operation boundary.
// Duplicate keys become Conflict(conflictMsg); missing rows NotFound(notFoundMsg).
func storeError(err error, conflictMsg, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if conflictMsg != "" && isDuplicateKey(err) {
		return &AppError{Kind: KindConflict, Message: conflictMsg, Err: err}
	}
	if notFoundMsg != "" && errors.Is(err, gorm.ErrRecordNotFound) {
		return &AppError{Kind: KindNotFound, Message: notFoundMsg, Err: err}
	}
	return Internal(err)
}
