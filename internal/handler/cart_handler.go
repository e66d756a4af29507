package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CartHandler handles cart HTTP requests. Every endpoint works for
// guests and logged-in users alike; the cart is identified solely by
// the cart_id cookie, provisioned on first touch.
type CartHandler struct {
	cartService service.CartService
	cookies     *session.Manager
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService service.CartService, cookies *session.Manager) *CartHandler {
	return &CartHandler{cartService: cartService, cookies: cookies}
}

// ensureCart resolves the request's cart, creating one when the cookie
// is absent or names a cart that no longer exists. The cookie is
// (re)issued whenever the id changed, which also refreshes its expiry.
func (h *CartHandler) ensureCart(c *gin.Context) (string, error) {
	cookieID := session.CartID(c)
	cart, err := h.cartService.GetOrCreate(c.Request.Context(), cookieID)
	if err != nil {
		return "", err
	}
	if cart.ID != cookieID {
		h.cookies.SetCart(c, cart.ID)
	}
	return cart.ID, nil
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(attribute.String("cart_id", cartID))

	view, err := h.cartService.View(ctx, cartID)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.add_item")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.String("product_id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	view, err := h.cartService.AddItem(ctx, cartID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// ClearCart handles DELETE /cart: drops every line but keeps the cart
// and its cookie.
func (h *CartHandler) ClearCart(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.clear")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(attribute.String("cart_id", cartID))

	view, err := h.cartService.Clear(ctx, cartID)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// UpdateItem handles PATCH /cart/items/:id. Quantity zero or below
// removes the line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.update_item")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.String("item_id", c.Param("id")),
		attribute.Int("quantity", req.Quantity),
	)

	view, err := h.cartService.UpdateItemQuantity(ctx, cartID, c.Param("id"), req.Quantity)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.remove_item")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.String("item_id", c.Param("id")),
	)

	view, err := h.cartService.RemoveItem(ctx, cartID, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// Sync handles POST /cart/sync: replaces the whole cart with the client's
// local copy, merging duplicate lines and dropping dead products.
func (h *CartHandler) Sync(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.cart.sync")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.SyncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cartID, err := h.ensureCart(c)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.Int("items", len(req.Items)),
	)

	view, err := h.cartService.Sync(ctx, cartID, &req)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, view)
}
