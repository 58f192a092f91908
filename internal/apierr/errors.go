package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed operation. The backend is the source of truth for
// permission and existence decisions, so most kinds are derived from the HTTP
// status of its response rather than from local state.
type Kind string

const (
	// KindNotFound means the target entity no longer exists, e.g. booking a
	// wish that was deleted meanwhile.
	KindNotFound Kind = "not_found"
	// KindForbidden means the backend refused the action for the acting user,
	// e.g. an owner booking their own wish.
	KindForbidden Kind = "forbidden_action"
	// KindValidation means the request payload was rejected, e.g. a missing
	// title.
	KindValidation Kind = "validation_error"
	// KindNetwork means the request never produced a usable response:
	// transport failures and unexpected server errors end up here. Retrying
	// is the caller's decision.
	KindNetwork Kind = "network_error"
)

// Error is the typed failure surfaced by every core operation. It carries the
// backend's detail message when one was returned.
type Error struct {
	Kind   Kind
	Detail string
	Status int
	cause  error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound creates a not-found error with the given detail message.
func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail, Status: http.StatusNotFound}
}

// Forbidden creates a forbidden-action error with the given detail message.
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail, Status: http.StatusForbidden}
}

// Validation creates a validation error with the given detail message.
func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail, Status: http.StatusBadRequest}
}

// Network wraps a transport-level failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, cause: err}
}

// FromResponse maps an HTTP error response to the taxonomy. The detail string
// comes from the backend's JSON error body. Statuses outside the taxonomy are
// reported as network errors so callers still get a typed failure.
func FromResponse(status int, detail string) *Error {
	e := &Error{Detail: detail, Status: status}
	switch status {
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusForbidden:
		e.Kind = KindForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindNetwork
	}
	return e
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and
// KindNetwork otherwise: an unclassified failure is treated like a transport
// problem rather than a permission decision.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// IsForbidden reports whether err is a forbidden-action error.
func IsForbidden(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindForbidden
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}
