package errhandling

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/validation"
)

// MaskedMessage replaces internal failure text in production.
const MaskedMessage = "An unexpected error occurred"

// AppErrorHandler renders any *apperr.Error with its own code, status,
// message and details.
type AppErrorHandler struct{}

func (AppErrorHandler) CanHandle(err error) bool {
	_, ok := apperr.As(err)
	return ok
}

func (AppErrorHandler) Handle(err error, _ Request) Response {
	ae, _ := apperr.As(err)
	return Response{
		Status: ae.Status(),
		Body:   envelope.Failure(ae.Code(), ae.Message, ae.Details),
	}
}

// SchemaErrorHandler renders input shape failures as VALIDATION_ERROR with a
// per-field breakdown.
type SchemaErrorHandler struct{}

func (SchemaErrorHandler) CanHandle(err error) bool {
	var ve *validation.Error
	return errors.As(err, &ve)
}

func (SchemaErrorHandler) Handle(err error, _ Request) Response {
	var ve *validation.Error
	errors.As(err, &ve)
	msg := ve.Message
	if msg == "" {
		msg = "Invalid request data"
	}
	var details any
	if len(ve.Issues) > 0 {
		details = ve.Issues
	}
	return Response{
		Status: http.StatusBadRequest,
		Body:   envelope.Failure(apperr.CodeValidation, msg, details),
	}
}

// FallbackHandler matches every failure and renders it as INTERNAL_ERROR.
type FallbackHandler struct {
	// Production hides the failure text behind MaskedMessage.
	Production bool
}

func (FallbackHandler) CanHandle(error) bool { return true }

// CatchAll marks the handler as a valid end of chain.
func (FallbackHandler) CatchAll() bool { return true }

func (h FallbackHandler) Handle(err error, _ Request) Response {
	msg := MaskedMessage
	if !h.Production && err != nil {
		msg = err.Error()
	}
	return Response{
		Status: http.StatusInternalServerError,
		Body:   envelope.Failure(apperr.CodeInternal, msg, nil),
	}
}

// KindHandler matches application errors of a single kind and renders them
// with fn.
func KindHandler(kind apperr.Kind, fn func(*apperr.Error, Request) Response) Handler {
	return kindHandler{kind: kind, fn: fn}
}

type kindHandler struct {
	kind apperr.Kind
	fn   func(*apperr.Error, Request) Response
}

func (h kindHandler) CanHandle(err error) bool { return apperr.IsKind(err, h.kind) }

func (h kindHandler) Handle(err error, req Request) Response {
	ae, _ := apperr.As(err)
	return h.fn(ae, req)
}
