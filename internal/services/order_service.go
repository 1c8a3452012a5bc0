package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-commerce-backend/internal/domain"
	"github.com/tbourn/go-commerce-backend/internal/observability"
	"github.com/tbourn/go-commerce-backend/internal/repo"
	"github.com/tbourn/go-commerce-backend/internal/utils"
)

const orderScope = "services/OrderService"

// OrderRepository is the persistence contract OrderService depends on.
// *repo.OrderRepo satisfies it.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*repo.OrderRow, error)
	FindMany(ctx context.Context, f repo.OrderFilter) ([]repo.OrderRow, int64, error)
	Create(ctx context.Context, row *repo.OrderRow) (*repo.OrderRow, error)
	CreateIdempotent(ctx context.Context, row *repo.OrderRow, key string, ttl time.Duration) (*repo.OrderRow, bool, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*repo.OrderRow, error)
	Delete(ctx context.Context, id, status string) (bool, error)
}

// CreateOrderInput is a validated order creation request.
type CreateOrderInput struct {
	UserID string
	Items  []domain.OrderItem
}

// ListOrdersQuery selects a page of orders. Zero values disable filters.
type ListOrdersQuery struct {
	Page   int
	Limit  int
	UserID string
	Status domain.OrderStatus
}

// OrderService enforces order creation limits and the status machine.
type OrderService struct {
	Repo OrderRepository
	// IdempotencyTTL bounds how long an Idempotency-Key replays.
	IdempotencyTTL time.Duration
}

// NewOrderService returns an OrderService using r.
func NewOrderService(r OrderRepository, idempotencyTTL time.Duration) *OrderService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &OrderService{Repo: r, IdempotencyTTL: idempotencyTTL}
}

// GetOrder returns the order with id or a NotFound failure.
func (s *OrderService) GetOrder(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, span := observability.StartSpan(ctx, orderScope, "GetOrder", attribute.String("order.id", id))
	defer func() { observability.EndSpan(span, err) }()

	return s.load(ctx, id)
}

// ListOrders returns one page of orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, q ListOrdersQuery) (_ Page[domain.Order], err error) {
	page, limit, offset := utils.Window(q.Page, q.Limit, utils.DefaultPageLimit, utils.MaxPageLimit)
	ctx, span := observability.StartSpan(ctx, orderScope, "ListOrders",
		attribute.Int("page", page),
		attribute.Int("limit", limit),
		attribute.String("filter.status", string(q.Status)),
	)
	defer func() { observability.EndSpan(span, err) }()

	rows, total, err := s.Repo.FindMany(ctx, repo.OrderFilter{
		UserID: q.UserID,
		Status: string(q.Status),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return Page[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	items := make([]domain.Order, 0, len(rows))
	for i := range rows {
		items = append(items, toOrder(&rows[i]))
	}
	return Page[domain.Order]{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// CreateOrder validates in and persists a new pending order. The total is
// derived from the items; both limits are checked before anything is
// written.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (_ *domain.Order, err error) {
	ctx, span := observability.StartSpan(ctx, orderScope, "CreateOrder",
		attribute.String("user.id", in.UserID),
		attribute.Int("items", len(in.Items)),
	)
	defer func() { observability.EndSpan(span, err) }()

	row, err := newOrderRow(in)
	if err != nil {
		return nil, err
	}
	created, err := s.Repo.Create(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	observability.OrdersCreated.Inc()
	o := toOrder(created)
	return &o, nil
}

// CreateOrderOnce behaves like CreateOrder, except that a repeated key from
// the same user within the TTL returns the first order with replayed set.
// An empty key disables deduplication.
func (s *OrderService) CreateOrderOnce(ctx context.Context, key string, in CreateOrderInput) (_ *domain.Order, replayed bool, err error) {
	if key == "" {
		o, err := s.CreateOrder(ctx, in)
		return o, false, err
	}

	ctx, span := observability.StartSpan(ctx, orderScope, "CreateOrderOnce",
		attribute.String("user.id", in.UserID),
		attribute.Int("items", len(in.Items)),
	)
	defer func() { observability.EndSpan(span, err) }()

	row, err := newOrderRow(in)
	if err != nil {
		return nil, false, err
	}
	stored, replayed, err := s.Repo.CreateIdempotent(ctx, row, key, s.IdempotencyTTL)
	if err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}
	span.SetAttributes(attribute.Bool("idempotent.replayed", replayed))
	if !replayed {
		observability.OrdersCreated.Inc()
	}
	o := toOrder(stored)
	return &o, replayed, nil
}

// UpdateOrderStatus moves the order to status when the transition map
// allows it.
//
// The write is conditional on the status that was read. If another request
// changed the order in between, the result is a Conflict failure (or
// NotFound if it was deleted).
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (_ *domain.Order, err error) {
	ctx, span := observability.StartSpan(ctx, orderScope, "UpdateOrderStatus",
		attribute.String("order.id", id),
		attribute.String("order.status.to", string(status)),
	)
	defer func() { observability.EndSpan(span, err) }()

	return s.transition(ctx, id, status)
}

// CancelOrder is UpdateOrderStatus to cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, span := observability.StartSpan(ctx, orderScope, "CancelOrder", attribute.String("order.id", id))
	defer func() { observability.EndSpan(span, err) }()

	return s.transition(ctx, id, domain.OrderStatusCancelled)
}

// DeleteOrder removes a pending order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartSpan(ctx, orderScope, "DeleteOrder", attribute.String("order.id", id))
	defer func() { observability.EndSpan(span, err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != domain.OrderStatusPending {
		return errNotDeletable()
	}
	deleted, err := s.Repo.Delete(ctx, id, string(domain.OrderStatusPending))
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if !deleted {
		return s.lostRace(ctx, id)
	}
	return nil
}

func (s *OrderService) transition(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, errIllegalTransition(current.Status, to)
	}
	row, err := s.Repo.UpdateStatus(ctx, id, string(current.Status), string(to))
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	if row == nil {
		return nil, s.lostRace(ctx, id)
	}
	observability.OrderTransitions.WithLabelValues(string(current.Status), string(to)).Inc()
	o := toOrder(row)
	return &o, nil
}

// lostRace explains why a conditional write matched no row.
func (s *OrderService) lostRace(ctx context.Context, id string) error {
	row, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload order %s: %w", id, err)
	}
	if row == nil {
		return errOrderNotFound(id)
	}
	return errConcurrentUpdate(id)
}

func (s *OrderService) load(ctx context.Context, id string) (*domain.Order, error) {
	row, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	if row == nil {
		return nil, errOrderNotFound(id)
	}
	o := toOrder(row)
	return &o, nil
}

// newOrderRow applies the creation rules and builds the row to insert.
func newOrderRow(in CreateOrderInput) (*repo.OrderRow, error) {
	total, quantity := domain.OrderTotals(in.Items)
	if total.LessThan(MinOrderTotal) {
		return nil, errOrderTotalTooLow()
	}
	if quantity > MaxItemsPerOrder {
		return nil, errTooManyItems()
	}
	items := make(repo.OrderItems, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, repo.OrderItemRow{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return &repo.OrderRow{
		UserID: in.UserID,
		Status: string(domain.OrderStatusPending),
		Total:  total,
		Items:  items,
	}, nil
}

func toOrder(r *repo.OrderRow) domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return domain.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    domain.OrderStatus(r.Status),
		Total:     r.Total,
		Items:     items,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
