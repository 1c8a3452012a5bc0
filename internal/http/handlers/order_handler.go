package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/domain"
	"github.com/tbourn/go-commerce-backend/internal/http/middleware"
	"github.com/tbourn/go-commerce-backend/internal/services"
	"github.com/tbourn/go-commerce-backend/internal/validation"
)

// OrderService is the order API consumed by OrderHandler.
// *services.OrderService satisfies it.
type OrderService interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, q services.ListOrdersQuery) (services.Page[domain.Order], error)
	CreateOrderOnce(ctx context.Context, key string, in services.CreateOrderInput) (*domain.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, id string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// OrderHandler serves /orders.
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler returns an OrderHandler bound to svc.
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Register mounts the order routes on g.
func (h *OrderHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", middleware.IdempotencyKey(middleware.IdempotencyOptions{}), h.Create)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/cancel", h.Cancel)
	g.DELETE("/:id", h.Delete)
}

// List godoc
// @ID          listOrders
// @Summary     List orders
// @Description Returns a page of orders, newest first, optionally filtered by user and status.
// @Tags        Orders
// @Produce     json
// @Param       page    query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit   query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       userId  query  string  false  "Owner filter (UUID)"
// @Param       status  query  string  false  "Status filter"   Enums(pending, confirmed, shipped, delivered, cancelled)
// @Success     200  {object}  handlers.PageResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	q, err := validation.Query[ListOrdersParams](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.ListOrders(c.Request.Context(), services.ListOrdersQuery{
		Page:   q.Page,
		Limit:  q.Limit,
		UserID: q.UserID,
		Status: domain.OrderStatus(q.Status),
	})
	if err != nil {
		fail(c, err)
		return
	}
	paged(c, http.StatusOK, res)
}

// Get godoc
// @ID          getOrder
// @Summary     Get an order
// @Tags        Orders
// @Produce     json
// @Param       id   path  string  true  "Order ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Order}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.svc.GetOrder(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// Create godoc
// @ID          createOrder
// @Summary     Create an order
// @Description Creates a pending order. The total is computed from the items.
// @Description A repeated Idempotency-Key from the same user returns the original order
// @Description with the Idempotent-Replayed header set.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                       false  "Retry-safe key"
// @Param       body             body    handlers.CreateOrderRequest  true   "Order"
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Order}
// @Header      201  {string}  Idempotent-Replayed  "true when served from an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	body, err := validation.Body[CreateOrderRequest](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	in := services.CreateOrderInput{UserID: body.UserID, Items: make([]domain.OrderItem, 0, len(body.Items))}
	for _, it := range body.Items {
		in.Items = append(in.Items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	o, replayed, err := h.svc.CreateOrderOnce(c.Request.Context(), middleware.IdempotencyKeyFrom(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotentReplayed, "true")
	}
	ok(c, http.StatusCreated, o)
}

// UpdateStatus godoc
// @ID          updateOrderStatus
// @Summary     Change an order's status
// @Description Allowed moves: pending→confirmed|cancelled, confirmed→shipped|cancelled, shipped→delivered.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       id    path  string                             true  "Order ID (UUID)"
// @Param       body  body  handlers.UpdateOrderStatusRequest  true  "Target status"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Order}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	body, err := validation.Body[UpdateOrderStatusRequest](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.svc.UpdateOrderStatus(c.Request.Context(), p.ID, domain.OrderStatus(body.Status))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// Cancel godoc
// @ID          cancelOrder
// @Summary     Cancel an order
// @Tags        Orders
// @Produce     json
// @Param       id   path  string  true  "Order ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Order}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.svc.CancelOrder(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// Delete godoc
// @ID          deleteOrder
// @Summary     Delete a pending order
// @Tags        Orders
// @Produce     json
// @Param       id   path  string  true  "Order ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.DeletedResponse}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), p.ID); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, DeletedResponse{Deleted: true})
}
