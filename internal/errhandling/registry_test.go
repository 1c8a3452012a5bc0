package errhandling

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/observability"
	"github.com/tbourn/go-commerce-backend/internal/validation"
)

type recordingLogger struct {
	calls []Request
}

func (l *recordingLogger) LogError(_ error, req Request) { l.calls = append(l.calls, req) }

type namedHandler struct {
	name  string
	match func(error) bool
}

func (h namedHandler) CanHandle(err error) bool { return h.match(err) }

func (h namedHandler) Handle(error, Request) Response {
	return Response{Status: http.StatusTeapot, Body: envelope.Failure(h.name, h.name, nil)}
}

var req = Request{Method: http.MethodGet, Path: "/api/orders/1", RequestID: "rid-1"}

func TestNewRegistry_RequiresCatchAllLast(t *testing.T) {
	_, err := NewRegistry(nil)
	require.ErrorIs(t, err, ErrNoCatchAll)

	_, err = NewRegistry(nil, FallbackHandler{}, AppErrorHandler{})
	require.ErrorIs(t, err, ErrNoCatchAll)

	r, err := NewRegistry(nil, AppErrorHandler{}, FallbackHandler{})
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Panics(t, func() { MustNewRegistry(nil, AppErrorHandler{}) })
}

func TestDispatch_FirstMatchWins(t *testing.T) {
	a := KindHandler(apperr.KindNotFound, func(e *apperr.Error, _ Request) Response {
		return Response{Status: http.StatusNotFound, Body: envelope.Failure("A", e.Message, nil)}
	})
	r := MustNewRegistry(nil, a, FallbackHandler{})

	resp := r.Dispatch(apperr.NotFound("Order", "42"), req)
	require.NotNil(t, resp.Body.Error)
	assert.Equal(t, "A", resp.Body.Error.Code)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = r.Dispatch(apperr.Validation("bad"), req)
	assert.Equal(t, apperr.CodeInternal, resp.Body.Error.Code)
}

func TestDispatch_NoFallthroughToLaterMatches(t *testing.T) {
	all := func(error) bool { return true }
	r := MustNewRegistry(nil,
		namedHandler{name: "first", match: all},
		namedHandler{name: "second", match: all},
		FallbackHandler{},
	)
	resp := r.Dispatch(errors.New("x"), req)
	assert.Equal(t, "first", resp.Body.Error.Code)
}

func TestDispatch_LogsUnconditionally(t *testing.T) {
	lg := &recordingLogger{}
	r := Default(lg, false)

	r.Dispatch(apperr.NotFound("Widget"), req)
	r.Dispatch(&validation.Error{Message: "Validation failed"}, req)
	r.Dispatch(errors.New("boom"), req)

	require.Len(t, lg.calls, 3)
	assert.Equal(t, req, lg.calls[0])
}

func TestDispatch_PanicsWithoutMatch(t *testing.T) {
	r := &Registry{handlers: []Handler{namedHandler{name: "never", match: func(error) bool { return false }}}}
	assert.PanicsWithValue(t, ErrNoHandler, func() { r.Dispatch(errors.New("x"), req) })
}

func TestDefault_AppError(t *testing.T) {
	r := Default(NopLogger{}, true)
	wrapped := fmt.Errorf("service: %w", apperr.Conflict("taken", map[string]string{"id": "1"}))

	resp := r.Dispatch(wrapped, req)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.False(t, resp.Body.Success)
	assert.Equal(t, apperr.CodeConflict, resp.Body.Error.Code)
	assert.Equal(t, "taken", resp.Body.Error.Message)
	assert.Equal(t, map[string]string{"id": "1"}, resp.Body.Error.Details)
}

func TestDefault_SchemaError(t *testing.T) {
	r := Default(NopLogger{}, true)
	issues := []apperr.FieldIssue{{Field: "items.0.price", Message: "must be greater than 0"}}

	resp := r.Dispatch(&validation.Error{Source: validation.SourceBody, Message: "Validation failed", Issues: issues}, req)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, apperr.CodeValidation, resp.Body.Error.Code)
	assert.Equal(t, "Validation failed", resp.Body.Error.Message)
	assert.Equal(t, issues, resp.Body.Error.Details)

	resp = r.Dispatch(&validation.Error{}, req)
	assert.Equal(t, "Invalid request data", resp.Body.Error.Message)
	assert.Nil(t, resp.Body.Error.Details)
}

func TestFallback_MasksInProduction(t *testing.T) {
	boom := errors.New("pq: connection refused")

	resp := Default(NopLogger{}, true).Dispatch(boom, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, apperr.CodeInternal, resp.Body.Error.Code)
	assert.Equal(t, MaskedMessage, resp.Body.Error.Message)

	resp = Default(NopLogger{}, false).Dispatch(boom, req)
	assert.Equal(t, "pq: connection refused", resp.Body.Error.Message)
}

func TestDispatch_CountsByCode(t *testing.T) {
	c := observability.ErrorResponses.WithLabelValues(apperr.CodeNotFound)
	before := testutil.ToFloat64(c)
	Default(NopLogger{}, false).Dispatch(apperr.NotFound("Order"), req)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestZerologLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	lg := NewZerologLogger(zerolog.New(&buf))

	lg.LogError(apperr.NotFound("Order", "1"), req)
	lg.LogError(errors.New("boom"), req)

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "warn", first["level"])
	assert.Equal(t, apperr.CodeNotFound, first["code"])
	assert.Equal(t, "/api/orders/1", first["path"])
	assert.Equal(t, "GET", first["method"])
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])
}
