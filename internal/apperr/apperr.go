package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error for the transport boundary.
type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error is the single error type the services return. Message is safe to
// show to the user; internal causes stay in Err.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error  { return &Error{Kind: KindValidation, Message: msg} }
func Auth(msg string) *Error        { return &Error{Kind: KindAuth, Message: msg} }
func Forbidden(msg string) *Error   { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error    { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error    { return &Error{Kind: KindConflict, Message: msg} }
func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: cause}
}

// KindOf extracts the kind of err, defaulting to KindUnavailable for
// anything that is not an *Error (storage drivers, context timeouts).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnavailable
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
