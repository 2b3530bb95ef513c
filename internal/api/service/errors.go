package service

import "errors"

// Error kinds. Every error returned by a service matches exactly one of
// these with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrAuth                = errors.New("authentication failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInternal            = errors.New("internal error")
)

// Error is a classified service failure. Message is safe to return to
// callers; Cause is for logs only.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func internalError(message string, cause error) *Error {
	return &Error{Kind: ErrInternal, Message: message, Cause: cause}
}

// KindOf returns the kind of err. Errors that did not come from a service
// are treated as internal.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}

// PublicMessage returns the caller-safe message of err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
