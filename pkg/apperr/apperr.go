// Package apperr defines the single error type handlers return to the error middleware.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnprocessableEntity
	KindInternal
	KindServiceUnavailable
	KindGatewayTimeout
)

var kindStatus = map[Kind]int{
	KindBadRequest:          http.StatusBadRequest,
	KindUnauthorized:        http.StatusUnauthorized,
	KindForbidden:           http.StatusForbidden,
	KindNotFound:            http.StatusNotFound,
	KindConflict:            http.StatusConflict,
	KindUnprocessableEntity: http.StatusUnprocessableEntity,
	KindInternal:            http.StatusInternalServerError,
	KindServiceUnavailable:  http.StatusServiceUnavailable,
	KindGatewayTimeout:      http.StatusGatewayTimeout,
}

var kindCode = map[Kind]string{
	KindBadRequest:          "BAD_REQUEST",
	KindUnauthorized:        "UNAUTHORIZED",
	KindForbidden:           "FORBIDDEN",
	KindNotFound:            "NOT_FOUND",
	KindConflict:            "CONFLICT",
	KindUnprocessableEntity: "UNPROCESSABLE_ENTITY",
	KindInternal:            "INTERNAL_SERVER_ERROR",
	KindServiceUnavailable:  "SERVICE_UNAVAILABLE",
	KindGatewayTimeout:      "GATEWAY_TIMEOUT",
}

// Status maps the kind to its HTTP status code.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultCode is the code used when an error is built without an explicit one.
func (k Kind) DefaultCode() string {
	if c, ok := kindCode[k]; ok {
		return c
	}
	return kindCode[KindInternal]
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

// Wrap attaches the underlying cause, kept out of the client response.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(kind Kind, code, msg string) *Error {
	if code == "" {
		code = kind.DefaultCode()
	}
	return &Error{Kind: kind, Code: code, Message: msg}
}

func BadRequest(code, msg string) *Error   { return New(KindBadRequest, code, msg) }
func Unauthorized(code, msg string) *Error { return New(KindUnauthorized, code, msg) }
func Forbidden(code, msg string) *Error    { return New(KindForbidden, code, msg) }
func NotFound(code, msg string) *Error     { return New(KindNotFound, code, msg) }
func Conflict(code, msg string) *Error     { return New(KindConflict, code, msg) }
func Unprocessable(code, msg string) *Error {
	return New(KindUnprocessableEntity, code, msg)
}
func ServiceUnavailable(code, msg string) *Error {
	return New(KindServiceUnavailable, code, msg)
}
func GatewayTimeout(code, msg string) *Error { return New(KindGatewayTimeout, code, msg) }

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: KindInternal.DefaultCode(), Message: "Internal server error", Err: err}
}

// From returns err as an *Error, converting anything else to Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Validation reports a request body or query that failed binding rules.
func Validation(err error) *Error {
	return Unprocessable("VALIDATION_ERROR", "Validation failed: "+err.Error()).Wrap(err)
}

// InvalidID reports a malformed path identifier.
func InvalidID(name string) *Error {
	return BadRequest("INVALID_ID", "Invalid "+name)
}
