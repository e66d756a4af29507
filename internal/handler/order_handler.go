package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/raineandseaweb/raineandsea-sub003/internal/authz"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// OrderHandler handles order history HTTP requests
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// ListMine handles GET /orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.order.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user := authz.UserFromContext(c)
	page, pageSize := parsePage(c)
	span.SetAttributes(
		attribute.String("user_id", user.ID),
		attribute.Int("page", page),
	)

	orders, total, err := h.orderService.ListMine(ctx, user.ID, page, pageSize)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	response.Paginated(c, out, response.PageMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(total),
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

// GetMine handles GET /orders/:id
func (h *OrderHandler) GetMine(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.order.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user := authz.UserFromContext(c)
	span.SetAttributes(attribute.String("order_id", c.Param("id")))

	order, err := h.orderService.GetMine(ctx, user.ID, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, toOrderResponse(order))
}

// GuestLookup handles POST /orders/lookup. Order number and email must
// both match; a wrong email is indistinguishable from a missing order.
func (h *OrderHandler) GuestLookup(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.order.guest_lookup")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.GuestOrderLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.String("order_number", req.OrderNumber))

	order, err := h.orderService.GuestLookup(ctx, req.OrderNumber, req.Email)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, toOrderResponse(order))
}

func parsePage(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
