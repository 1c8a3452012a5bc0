// Package handlers implements the HTTP endpoints for orders and widgets.
//
// Handlers are transport-thin: they parse input into DTOs through package
// validation, call a service and wrap the result in the response envelope.
// Failures are never rendered here; fail attaches them to the gin context
// and the error middleware dispatches them through the error registry.
//
// Success bodies:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": { "id": "…", "status": "pending", … } }
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": [ … ], "meta": { "page": 1, "limit": 20, "total": 42, "count": 20 } }
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/envelope"
	"github.com/tbourn/go-commerce-backend/internal/services"
)

// SuccessResponse documents the success envelope for Swagger.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

// ErrorResponse documents the failure envelope for Swagger.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   envelope.Error `json:"error"`
}

// PageResponse documents the paginated envelope for Swagger.
type PageResponse struct {
	Success bool          `json:"success" example:"true"`
	Data    []any         `json:"data"`
	Meta    envelope.Meta `json:"meta"`
}

// DeletedResponse is the data payload of a successful delete.
type DeletedResponse struct {
	Deleted bool `json:"deleted" example:"true"`
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ok writes data in a success envelope.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope.Success(data))
}

// paged writes a listing in a paginated envelope.
func paged[T any](c *gin.Context, status int, p services.Page[T]) {
	c.JSON(status, envelope.Paginated(p.Items, p.Page, p.Limit, p.Total))
}
