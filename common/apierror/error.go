// Package apierror defines the error taxonomy shared by every network function's
// HTTP surface: a small set of kinds, each mapped to a fixed HTTP status code.
package apierror

import (
	"fmt"
	"net/http"
)

// Kind is one of the taxonomy entries every NF surfaces to its callers.
type Kind string

const (
	InvalidArgument    Kind = "invalid-argument"
	Unauthenticated    Kind = "unauthenticated"
	Forbidden          Kind = "forbidden"
	NotFound           Kind = "not-found"
	Conflict           Kind = "conflict"
	ResourceExhausted  Kind = "resource-exhausted"
	BackendUnavailable Kind = "backend-unavailable"
	Internal           Kind = "internal"
)

// Error is the typed error every handler returns instead of a bare error string.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusCode maps a Kind to the HTTP status defined in the error-handling design.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case ResourceExhausted:
		return http.StatusServiceUnavailable
	case BackendUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func InvalidArgumentf(format string, args ...interface{}) *Error {
	return &Error{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: Conflict, Message: fmt.Sprintf(format, args...)}
}

func ResourceExhaustedf(format string, args ...interface{}) *Error {
	return &Error{Kind: ResourceExhausted, Message: fmt.Sprintf(format, args...)}
}

func BackendUnavailable(message string, cause error) *Error {
	return &Error{Kind: BackendUnavailable, Message: message, Cause: cause}
}

func Unauthenticatedf(format string, args ...interface{}) *Error {
	return &Error{Kind: Unauthenticated, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return &Error{Kind: Forbidden, Message: fmt.Sprintf(format, args...)}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: Internal, Message: message, Cause: cause}
}

// As extracts an *Error from any error, defaulting to Internal when err is not
// one of ours — every handler can call this once at the top of its error path.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*Error); ok {
		return apiErr
	}
	return &Error{Kind: Internal, Message: err.Error(), Cause: err}
}
