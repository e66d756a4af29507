package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/raineandseaweb/raineandsea-sub003/internal/authz"
	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CheckoutHandler handles checkout HTTP requests
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	cookies         *session.Manager
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService service.CheckoutService, cookies *session.Manager) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, cookies: cookies}
}

// Checkout handles POST /checkout. Works for guests (email required in
// the body) and for logged-in users (account email wins).
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	cartID := session.CartID(c)
	if cartID == "" {
		response.BadRequest(c, "no cart to check out")
		return
	}

	user := authz.UserFromContext(c)
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.Bool("guest", user == nil),
	)

	order, err := h.checkoutService.Checkout(ctx, cartID, user, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	// the cart converted into an order; drop the cookie so the next
	// visit starts fresh
	h.cookies.ClearCart(c)
	span.SetAttributes(attribute.String("order_number", order.OrderNumber))
	response.Created(c, toOrderResponse(order))
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:       it.ProductID,
			Title:           it.Title,
			Quantity:        it.Quantity,
			SelectedOptions: it.SelectedOptions,
			UnitPrice:       it.UnitPrice,
			LineTotal:       it.UnitPrice * float64(it.Quantity),
		})
	}
	return dto.OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Email:       o.Email,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       items,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}
