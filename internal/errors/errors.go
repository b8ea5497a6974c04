package errors

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"net"
)

// Kind classifies an error for callers that must branch on what went wrong
// rather than on a generic failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeNoChanges     = "NO_CHANGES"

	// Business logic errors
	ErrCodeLastAdmin     = "LAST_ADMIN"
	ErrCodeSelfDemotion  = "SELF_DEMOTION"
	ErrCodeSelfDeletion  = "SELF_DELETION"
	ErrCodeInvalidStatus = "INVALID_STATUS"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Error is the error value returned by stores and services.
type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets the kind sentinels (ErrNotFound, ErrForbidden, ...) match any error
// of the same kind. Specific sentinels only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" && t.Field == "" && t.Message == "" {
		return t.Kind == e.Kind
	}
	return false
}

// Kind sentinels, for use with errors.Is.
var (
	ErrInternal    = &Error{Kind: KindInternal}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrUnavailable = &Error{Kind: KindUnavailable}
)

// Specific sentinels
var (
	ErrNoChanges = &Error{Kind: KindConflict, Code: ErrCodeNoChanges, Message: "no changes were detected"}
	ErrLastAdmin = &Error{Kind: KindConflict, Code: ErrCodeLastAdmin, Message: "at least one administrator must remain"}

	ErrSelfDemotion = &Error{Kind: KindForbidden, Code: ErrCodeSelfDemotion, Message: "administrators cannot demote themselves"}
	ErrSelfDeletion = &Error{Kind: KindForbidden, Code: ErrCodeSelfDeletion, Message: "administrators cannot delete their own account"}

	ErrInvalidCredentials = &Error{Kind: KindValidation, Code: ErrCodeInvalidCredentials, Message: "invalid username or password"}
)

// Validation reports malformed or missing input for a field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: ErrCodeInvalidInput, Field: field, Message: message}
}

// NotFound reports a missing resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: ErrCodeNotFound, Message: resource + " not found"}
}

// Forbidden reports a denied capability check.
func Forbidden(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return &Error{Kind: KindForbidden, Code: ErrCodeForbidden, Message: message}
}

// Conflict reports a duplicate or otherwise conflicting write.
func Conflict(code, message string) *Error {
	if code == "" {
		code = ErrCodeConflict
	}
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// Unavailable wraps a transport or connection failure of the backing store.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindUnavailable, Code: ErrCodeServiceUnavailable, Message: op, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Code: ErrCodeInternalError, Message: op, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Store classifies an unexpected store error: connection and timeout
// failures become Unavailable, everything else Internal. Errors that are
// already classified pass through.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}
	if IsTransient(err) {
		return Unavailable(op, err)
	}
	return Internal(op, err)
}

// IsTransient reports whether err looks like a connectivity problem.
func IsTransient(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

// Wrapf adds context to err while keeping its kind visible to errors.Is.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
