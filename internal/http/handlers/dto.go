package handlers

import "github.com/shopspring/decimal"

// IDParam is the :id route parameter.
type IDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// OrderItemRequest is one line of a new order.
type OrderItemRequest struct {
	ProductID string          `json:"productId" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174002"`
	Quantity  int             `json:"quantity" binding:"required,gt=0" example:"2"`
	Price     decimal.Decimal `json:"price" binding:"required,gt=0" swaggertype:"number" example:"25"`
}

// CreateOrderRequest is the JSON payload for POST /orders.
type CreateOrderRequest struct {
	UserID string             `json:"userId" binding:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174001"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderStatusRequest is the JSON payload for PATCH /orders/{id}/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled" example:"confirmed"`
}

// ListOrdersParams are the query parameters of GET /orders.
type ListOrdersParams struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	UserID string `form:"userId" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
}

// WidgetRequest is the JSON payload for POST /widgets and PATCH /widgets/{id}.
type WidgetRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200" example:"Demo"`
}

// ListWidgetsParams are the query parameters of GET /widgets.
type ListWidgetsParams struct {
	Page  int    `form:"page,default=1" binding:"min=1"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
	Name  string `form:"name" binding:"omitempty,max=200"`
}
