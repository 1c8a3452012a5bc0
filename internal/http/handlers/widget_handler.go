package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/domain"
	"github.com/tbourn/go-commerce-backend/internal/services"
	"github.com/tbourn/go-commerce-backend/internal/validation"
)

// WidgetService is the widget API consumed by WidgetHandler.
type WidgetService interface {
	GetWidget(ctx context.Context, id string) (*domain.Widget, error)
	ListWidgets(ctx context.Context, q services.ListWidgetsQuery) (services.Page[domain.Widget], error)
	CreateWidget(ctx context.Context, name string) (*domain.Widget, error)
	UpdateWidget(ctx context.Context, id, name string) (*domain.Widget, error)
	DeleteWidget(ctx context.Context, id string) error
}

// WidgetHandler serves /widgets.
type WidgetHandler struct {
	svc WidgetService
}

func NewWidgetHandler(svc WidgetService) *WidgetHandler {
	return &WidgetHandler{svc: svc}
}

// Register mounts the widget routes on g.
func (h *WidgetHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List godoc
// @ID          listWidgets
// @Summary     List widgets
// @Tags        Widgets
// @Produce     json
// @Param       page   query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       name   query  string  false  "Case-insensitive name fragment"
// @Success     200  {object}  handlers.PageResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /widgets [get]
func (h *WidgetHandler) List(c *gin.Context) {
	q, err := validation.Query[ListWidgetsParams](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.ListWidgets(c.Request.Context(), services.ListWidgetsQuery{Page: q.Page, Limit: q.Limit, Name: q.Name})
	if err != nil {
		fail(c, err)
		return
	}
	paged(c, http.StatusOK, res)
}

// Get godoc
// @ID          getWidget
// @Summary     Get a widget
// @Tags        Widgets
// @Produce     json
// @Param       id   path  string  true  "Widget ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Widget}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /widgets/{id} [get]
func (h *WidgetHandler) Get(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	w, err := h.svc.GetWidget(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// Create godoc
// @ID          createWidget
// @Summary     Create a widget
// @Tags        Widgets
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.WidgetRequest  true  "Widget"
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Widget}
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /widgets [post]
func (h *WidgetHandler) Create(c *gin.Context) {
	body, err := validation.Body[WidgetRequest](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	w, err := h.svc.CreateWidget(c.Request.Context(), body.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, w)
}

// Update godoc
// @ID          updateWidget
// @Summary     Rename a widget
// @Tags        Widgets
// @Accept      json
// @Produce     json
// @Param       id    path  string                  true  "Widget ID (UUID)"
// @Param       body  body  handlers.WidgetRequest  true  "Widget"
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Widget}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /widgets/{id} [patch]
func (h *WidgetHandler) Update(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	body, err := validation.Body[WidgetRequest](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	w, err := h.svc.UpdateWidget(c.Request.Context(), p.ID, body.Name)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// Delete godoc
// @ID          deleteWidget
// @Summary     Delete a widget
// @Tags        Widgets
// @Produce     json
// @Param       id   path  string  true  "Widget ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.DeletedResponse}
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /widgets/{id} [delete]
func (h *WidgetHandler) Delete(c *gin.Context) {
	p, err := validation.Path[IDParam](c).Unwrap()
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.DeleteWidget(c.Request.Context(), p.ID); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, DeletedResponse{Deleted: true})
}
