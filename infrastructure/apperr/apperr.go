package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies operation failures so the HTTP layer can map them to
// status codes without inspecting error strings.
type Kind int

const (
	// KindInternal is the default for unexpected persistence failures.
	KindInternal Kind = iota
	// KindNotFound: a referenced entity id does not exist.
	KindNotFound
	// KindConflict: uniqueness violation or resource in an incompatible
	// state (port not free, asset not available, no capacity).
	KindConflict
	// KindForbidden: actor's role lacks permission for the mutation.
	KindForbidden
	// KindInvalidState: the requested transition violates a state machine.
	KindInvalidState
)

// Error carries a kind alongside the message; it supports errors.Is/As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error's kind to the status code surfaced to callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
