package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-commerce-backend/internal/config"
	"github.com/tbourn/go-commerce-backend/internal/http/middleware"
	"github.com/tbourn/go-commerce-backend/internal/repo"
)

func init() { gin.SetMode(gin.TestMode) }

const userID = "123e4567-e89b-12d3-a456-426614174001"

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.Open(config.DBConfig{
		Driver:       config.DriverSQLite,
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(db) })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         config.EnvTest,
		APIBasePath:    "/api",
		RateRPS:        1000,
		RateBurst:      1000,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

type envelopeBody struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
		Count int   `json:"count"`
	} `json:"meta"`
}

func call(t *testing.T, r http.Handler, method, path, payload string, hdr ...string) (*httptest.ResponseRecorder, envelopeBody) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(payload))
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var b envelopeBody
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	}
	return w, b
}

type orderJSON struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Total  float64 `json:"total"`
}

const newOrder = `{"userId":"` + userID + `","items":[
 {"productId":"123e4567-e89b-12d3-a456-426614174002","quantity":2,"price":25},
 {"productId":"123e4567-e89b-12d3-a456-426614174003","quantity":1,"price":49.99}]}`

func createOrder(t *testing.T, r http.Handler, hdr ...string) (*httptest.ResponseRecorder, orderJSON) {
	t.Helper()
	w, b := call(t, r, http.MethodPost, "/api/orders", newOrder, hdr...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o orderJSON
	require.NoError(t, json.Unmarshal(b.Data, &o))
	return w, o
}

func TestCreateOrder_EndToEnd(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())

	_, o := createOrder(t, r)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, 99.99, o.Total)

	w, b := call(t, r, http.MethodGet, "/api/orders/"+o.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, b.Success)

	w, b = call(t, r, http.MethodGet, "/api/orders?userId="+userID, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, b.Meta)
	assert.EqualValues(t, 1, b.Meta.Total)
}

func TestOrderLifecycle_EndToEnd(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())
	_, o := createOrder(t, r)
	status := "/api/orders/" + o.ID + "/status"

	for _, next := range []string{"confirmed", "shipped", "delivered"} {
		w, _ := call(t, r, http.MethodPatch, status, `{"status":"`+next+`"}`)
		require.Equal(t, http.StatusOK, w.Code, next)
	}

	w, b := call(t, r, http.MethodPatch, status, `{"status":"pending"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", b.Error.Code)
	assert.Equal(t, "Cannot transition from 'delivered' to 'pending'", b.Error.Message)

	w, b = call(t, r, http.MethodPost, "/api/orders/"+o.ID+"/cancel", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", b.Error.Code)

	w, _ = call(t, r, http.MethodDelete, "/api/orders/"+o.ID, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePendingOrder_EndToEnd(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())
	_, o := createOrder(t, r)

	w, b := call(t, r, http.MethodDelete, "/api/orders/"+o.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":true}`, string(b.Data))

	w, b = call(t, r, http.MethodGet, "/api/orders/"+o.ID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", b.Error.Code)
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())

	w1, first := createOrder(t, r, middleware.HeaderIdempotencyKey, "order-42")
	assert.Empty(t, w1.Header().Get(middleware.HeaderIdempotentReplayed))

	w2, second := createOrder(t, r, middleware.HeaderIdempotencyKey, "order-42")
	assert.Equal(t, "true", w2.Header().Get(middleware.HeaderIdempotentReplayed))
	assert.Equal(t, first.ID, second.ID)

	_, b := call(t, r, http.MethodGet, "/api/orders", "")
	assert.EqualValues(t, 1, b.Meta.Total)

	w, b := call(t, r, http.MethodPost, "/api/orders", newOrder, middleware.HeaderIdempotencyKey, "bad key!")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", b.Error.Code)
}

func TestWidgets_EndToEnd(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())

	w, b := call(t, r, http.MethodGet, "/api/widgets/00000000-0000-0000-0000-000000000000", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", b.Error.Code)
	assert.False(t, b.Success)

	w, b = call(t, r, http.MethodPost, "/api/widgets", `{"name":"  Demo Widget  "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var wd struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(b.Data, &wd))
	assert.Equal(t, "Demo Widget", wd.Name)

	w, b = call(t, r, http.MethodGet, "/api/widgets?name=DEMO", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, b.Meta.Total)

	w, _ = call(t, r, http.MethodPatch, "/api/widgets/"+wd.ID, `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodDelete, "/api/widgets/"+wd.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodDelete, "/api/widgets/"+wd.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFallbacks_Health_Metrics(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())

	w, b := call(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(b.Data), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w, b = call(t, r, http.MethodGet, "/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", b.Error.Code)

	w, b = call(t, r, http.MethodPut, "/api/widgets", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, CodeMethodNotAllowed, b.Error.Code)

	w, _ = call(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w, _ = call(t, r, http.MethodGet, "/swagger/index.html", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "swagger is disabled by default")
}

func TestCORS_AllowList(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://shop.example"}
	r := NewRouter(newTestDB(t), cfg)

	w, _ := call(t, r, http.MethodGet, "/health", "", "Origin", "https://shop.example")
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	w, _ = call(t, r, http.MethodGet, "/health", "", "Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := NewRouter(newTestDB(t), cfg)

	w, _ := call(t, r, http.MethodGet, "/api/widgets", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, b := call(t, r, http.MethodGet, "/api/widgets", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, middleware.CodeRateLimited, b.Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestGzip_WhenAccepted(t *testing.T) {
	r := NewRouter(newTestDB(t), testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestGroupWithPrefix_Root(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/"
	r := NewRouter(newTestDB(t), cfg)

	w, _ := call(t, r, http.MethodGet, "/widgets", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
