package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-commerce-backend/internal/domain"
	"github.com/tbourn/go-commerce-backend/internal/errhandling"
	"github.com/tbourn/go-commerce-backend/internal/http/middleware"
	"github.com/tbourn/go-commerce-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	orderID  = "123e4567-e89b-12d3-a456-426614174000"
	userID   = "123e4567-e89b-12d3-a456-426614174001"
	widgetID = "5f1c1a3e-3c57-4c4b-9a43-6a4f6f2d9f10"
)

// ---- fakes ----

type fakeOrders struct {
	get      func(id string) (*domain.Order, error)
	list     func(q services.ListOrdersQuery) (services.Page[domain.Order], error)
	create   func(key string, in services.CreateOrderInput) (*domain.Order, bool, error)
	update   func(id string, s domain.OrderStatus) (*domain.Order, error)
	cancel   func(id string) (*domain.Order, error)
	del      func(id string) error
	lastKey  string
	lastList services.ListOrdersQuery
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*domain.Order, error) { return f.get(id) }
func (f *fakeOrders) ListOrders(_ context.Context, q services.ListOrdersQuery) (services.Page[domain.Order], error) {
	f.lastList = q
	return f.list(q)
}
func (f *fakeOrders) CreateOrderOnce(_ context.Context, key string, in services.CreateOrderInput) (*domain.Order, bool, error) {
	f.lastKey = key
	return f.create(key, in)
}
func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id string, s domain.OrderStatus) (*domain.Order, error) {
	return f.update(id, s)
}
func (f *fakeOrders) CancelOrder(_ context.Context, id string) (*domain.Order, error) {
	return f.cancel(id)
}
func (f *fakeOrders) DeleteOrder(_ context.Context, id string) error { return f.del(id) }

type fakeWidgets struct {
	get    func(id string) (*domain.Widget, error)
	list   func(q services.ListWidgetsQuery) (services.Page[domain.Widget], error)
	create func(name string) (*domain.Widget, error)
	update func(id, name string) (*domain.Widget, error)
	del    func(id string) error
}

func (f *fakeWidgets) GetWidget(_ context.Context, id string) (*domain.Widget, error) {
	return f.get(id)
}
func (f *fakeWidgets) ListWidgets(_ context.Context, q services.ListWidgetsQuery) (services.Page[domain.Widget], error) {
	return f.list(q)
}
func (f *fakeWidgets) CreateWidget(_ context.Context, name string) (*domain.Widget, error) {
	return f.create(name)
}
func (f *fakeWidgets) UpdateWidget(_ context.Context, id, name string) (*domain.Widget, error) {
	return f.update(id, name)
}
func (f *fakeWidgets) DeleteWidget(_ context.Context, id string) error { return f.del(id) }

// ---- helpers ----

type respBody struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Count int   `json:"count"`
	} `json:"meta"`
}

func newEngine(orders OrderService, widgets WidgetService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Errors(errhandling.Default(errhandling.NopLogger{}, false)))
	if orders != nil {
		NewOrderHandler(orders).Register(r.Group("/orders"))
	}
	if widgets != nil {
		NewWidgetHandler(widgets).Register(r.Group("/widgets"))
	}
	return r
}

func do(t *testing.T, r http.Handler, method, path, payload string, hdr ...string) (*httptest.ResponseRecorder, respBody) {
	t.Helper()
	var rdr *bytes.Reader
	if payload != "" {
		rdr = bytes.NewReader([]byte(payload))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var b respBody
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
			t.Fatalf("decode body: %v (%s)", err, w.Body.String())
		}
	}
	return w, b
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:     orderID,
		UserID: userID,
		Status: status,
		Total:  decimal.RequireFromString("99.99"),
		Items: []domain.OrderItem{
			{ProductID: "123e4567-e89b-12d3-a456-426614174002", Quantity: 2, Price: decimal.NewFromInt(25)},
			{ProductID: "123e4567-e89b-12d3-a456-426614174003", Quantity: 1, Price: decimal.RequireFromString("49.99")},
		},
		CreatedAt: time.Unix(0, 0).UTC(),
		UpdatedAt: time.Unix(0, 0).UTC(),
	}
}
