// Package errhandling converts failures into response envelopes through an
// ordered chain of handlers.
//
// Handlers are tried in registration order and the first one whose CanHandle
// reports true produces the response; later handlers are never consulted.
// The last handler must be a catch-all, which NewRegistry checks when the
// registry is built. Specific handlers (typed application errors, schema
// failures) therefore have to be registered before the fallback.
package errhandling

import (
	"errors"

	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/observability"
)

var (
	// ErrNoCatchAll is returned by NewRegistry when the chain is empty or
	// its last handler does not match every failure.
	ErrNoCatchAll = errors.New("errhandling: last handler must be a catch-all")

	// ErrNoHandler is the panic value raised by Dispatch when no handler
	// matched. It signals a misconfigured registry, never a client error.
	ErrNoHandler = errors.New("No error handler found")
)

// Request is the part of the inbound request a handler may need.
type Request struct {
	Method    string
	Path      string
	RequestID string
}

// Response is the outcome of a dispatch: an HTTP status and the envelope to
// write.
type Response struct {
	Status int
	Body   envelope.Response
}

// Handler converts one family of failures into a Response.
type Handler interface {
	CanHandle(err error) bool
	Handle(err error, req Request) Response
}

// catchAll is implemented by handlers that match every failure.
type catchAll interface {
	CatchAll() bool
}

// Registry is an immutable, ordered handler chain. It is safe for concurrent
// use.
type Registry struct {
	logger   ErrorLogger
	handlers []Handler
}

// NewRegistry builds a registry from handlers in the given order. A nil
// logger is replaced by NopLogger.
func NewRegistry(logger ErrorLogger, handlers ...Handler) (*Registry, error) {
	if len(handlers) == 0 {
		return nil, ErrNoCatchAll
	}
	if ca, ok := handlers[len(handlers)-1].(catchAll); !ok || !ca.CatchAll() {
		return nil, ErrNoCatchAll
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &Registry{
		logger:   logger,
		handlers: append([]Handler(nil), handlers...),
	}, nil
}

// MustNewRegistry is like NewRegistry but panics on a misconfigured chain.
func MustNewRegistry(logger ErrorLogger, handlers ...Handler) *Registry {
	r, err := NewRegistry(logger, handlers...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the standard chain: application errors, schema failures,
// then the fallback. Internal messages are masked when production is true.
func Default(logger ErrorLogger, production bool) *Registry {
	return MustNewRegistry(logger,
		AppErrorHandler{},
		SchemaErrorHandler{},
		FallbackHandler{Production: production},
	)
}

// Dispatch logs err and converts it with the first matching handler.
//
// The log call happens before matching and regardless of which handler
// wins. Dispatch panics with ErrNoHandler when nothing matches, which can
// only happen on a Registry that bypassed NewRegistry.
func (r *Registry) Dispatch(err error, req Request) Response {
	if r.logger != nil {
		r.logger.LogError(err, req)
	}
	for _, h := range r.handlers {
		if h.CanHandle(err) {
			resp := h.Handle(err, req)
			code := "UNKNOWN"
			if resp.Body.Error != nil {
				code = resp.Body.Error.Code
			}
			observability.ErrorResponses.WithLabelValues(code).Inc()
			return resp
		}
	}
	panic(ErrNoHandler)
}
