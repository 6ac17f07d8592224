package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independent of transport.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindOutOfStock        Kind = "out_of_stock"
	KindInsufficientStock Kind = "insufficient_stock"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func OutOfStock(message string) *Error { return New(KindOutOfStock, message, nil) }

func InsufficientStock(message string) *Error { return New(KindInsufficientStock, message, nil) }

func Validation(message string) *Error { return New(KindValidation, message, nil) }

func Conflict(message string) *Error { return New(KindConflict, message, nil) }

func Unauthorized(message string) *Error { return New(KindUnauthorized, message, nil) }

func Forbidden(message string) *Error { return New(KindForbidden, message, nil) }

// Internal hides err behind a generic message; err stays reachable through Unwrap for logs.
func Internal(err error) *Error {
	return New(KindInternal, "An internal server error occurred.", err)
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = NotFound("Not found")
	ErrOutOfStock        = OutOfStock("Out of stock")
	ErrInsufficientStock = InsufficientStock("Insufficient stock")
	ErrValidation        = Validation("Validation error")
	ErrConflict          = Conflict("Conflict")
	ErrUnauthorized      = Unauthorized("Unauthorized")
	ErrForbidden         = Forbidden("Forbidden")
	ErrInternal          = Internal(nil)
)

// KindOf returns the Kind of err, treating foreign errors as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusCode maps an error to the HTTP status used at the API boundary.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock, KindInsufficientStock, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to clients.
func PublicMessage(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return ErrInternal.Message
}
