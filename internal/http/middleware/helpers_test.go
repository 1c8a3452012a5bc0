package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/errhandling"
)

func init() { gin.SetMode(gin.TestMode) }

func testRegistry(production bool) *errhandling.Registry {
	return errhandling.Default(errhandling.NopLogger{}, production)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope.Response {
	t.Helper()
	var body envelope.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, w.Body.String())
	}
	return body
}
