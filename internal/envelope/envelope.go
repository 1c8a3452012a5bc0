// Package envelope defines the uniform JSON wrapper returned by every API
// endpoint:
//
//	{ "success": true,  "data": {...}, "meta": {...} }
//	{ "success": false, "error": { "code": "...", "message": "...", "details": ... } }
//
// Exactly one of Data and Error is present, depending on Success.
package envelope

// Response is the standard API response body.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Error is the failure part of a Response.
type Error struct {
	Code    string `json:"code" example:"NOT_FOUND"`
	Message string `json:"message" example:"Order with id '123' not found"`
	Details any    `json:"details,omitempty"`
}

// Meta carries pagination information for list responses.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Count int   `json:"count"`
}

// Success wraps data in a successful envelope.
func Success(data any) Response {
	return Response{Success: true, Data: data}
}

// Paginated wraps a page of items together with its pagination metadata.
// count is the number of items on this page; total is the number of items
// matching the query regardless of the window.
func Paginated[T any](items []T, page, limit int, total int64) Response {
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Page:  page,
			Limit: limit,
			Total: total,
			Count: len(items),
		},
	}
}

// Failure builds an error envelope. details is omitted when nil.
func Failure(code, message string, details any) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
