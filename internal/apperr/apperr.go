// Package apperr defines the typed failure taxonomy shared by every layer of
// the application. Services return *Error values for predictable business
// outcomes (missing resources, rejected input, illegal transitions) and the
// HTTP layer converts them into the response envelope through the error
// handler registry (see package errhandling).
//
// Each failure belongs to exactly one Kind. The Kind determines the stable,
// machine-readable code and the default HTTP status. Codes are part of the
// public API contract and must never change:
//
//	NOT_FOUND        404
//	VALIDATION_ERROR 400
//	CONFLICT         409
//	UNAUTHORIZED     401
//	FORBIDDEN        403
//	INTERNAL_ERROR   500
//
// No failure is retryable; all of them terminate the current request.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Stable error codes returned to clients.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

var kindTable = map[Kind]struct {
	code   string
	status int
}{
	KindInternal:     {CodeInternal, http.StatusInternalServerError},
	KindNotFound:     {CodeNotFound, http.StatusNotFound},
	KindValidation:   {CodeValidation, http.StatusBadRequest},
	KindConflict:     {CodeConflict, http.StatusConflict},
	KindUnauthorized: {CodeUnauthorized, http.StatusUnauthorized},
	KindForbidden:    {CodeForbidden, http.StatusForbidden},
}

// Code returns the stable client-facing code for k.
func (k Kind) Code() string {
	if e, ok := kindTable[k]; ok {
		return e.code
	}
	return CodeInternal
}

// Status returns the default HTTP status for k.
func (k Kind) Status() int {
	if e, ok := kindTable[k]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string { return k.Code() }

// FieldIssue describes a single rejected input field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete application failure.
//
// Details is an optional, opaque payload echoed to clients (for validation
// failures it is usually a []FieldIssue). Cause is never exposed to clients;
// it is kept for logs and errors.Is/As chains.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Cause)
	}
	return e.Kind.Code() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns the stable client-facing code.
func (e *Error) Code() string { return e.Kind.Code() }

// Status returns the HTTP status equivalent.
func (e *Error) Status() int { return e.Kind.Status() }

// New builds an Error of the given kind.
func New(kind Kind, msg string, details any) *Error {
	return &Error{Kind: kind, Message: msg, Details: details}
}

// NotFound reports a missing resource. The message names the resource and,
// when provided, the identifier that was looked up.
func NotFound(resource string, id ...string) *Error {
	msg := resource + " not found"
	if len(id) > 0 && id[0] != "" {
		msg = fmt.Sprintf("%s with id '%s' not found", resource, id[0])
	}
	return New(KindNotFound, msg, nil)
}

// Validation reports rejected input or a violated business rule.
func Validation(msg string, details ...FieldIssue) *Error {
	e := New(KindValidation, msg, nil)
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// Conflict reports a clash with the current state of a resource.
func Conflict(msg string, details any) *Error {
	return New(KindConflict, msg, details)
}

// Unauthorized reports a missing or invalid identity.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Unauthorized access"
	}
	return New(KindUnauthorized, msg, nil)
}

// Forbidden reports an identity that is not allowed to perform the action.
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "Access forbidden"
	}
	return New(KindForbidden, msg, nil)
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
