package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// AdminHandler handles the admin surface: catalog management, order
// management, audit views, and sales analytics. Every route is wrapped
// with the admin role requirement at registration time.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.create_product")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.adminService.CreateProduct(ctx, &req)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	span.SetAttributes(attribute.String("product_id", product.ID))
	response.Created(c, product)
}

// UpdateProduct handles PATCH /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_product")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.String("product_id", c.Param("id")))

	product, err := h.adminService.UpdateProduct(ctx, c.Param("id"), &req)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, product)
}

// BulkUpdateProducts handles PATCH /admin/products. All patches land in
// one transaction: one bad id fails the whole batch.
func (h *AdminHandler) BulkUpdateProducts(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.bulk_update_products")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.BulkUpdateProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("updates", len(req.Updates)))

	products, err := h.adminService.BulkUpdateProducts(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	response.Success(c, products)
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.delete_product")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	span.SetAttributes(attribute.String("product_id", c.Param("id")))
	if err := h.adminService.DeleteProduct(ctx, c.Param("id")); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ListProducts handles GET /admin/products: unlike the public catalog it
// includes inactive products.
func (h *AdminHandler) ListProducts(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_products")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	products, total, err := h.adminService.ListProducts(ctx, &query)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Paginated(c, products, response.PageMeta{
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: int64(total),
		TotalPages: (total + query.PageSize - 1) / query.PageSize,
	})
}

// ListOrders handles GET /admin/orders
func (h *AdminHandler) ListOrders(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list_orders")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	page, pageSize := parsePage(c)
	orders, total, err := h.adminService.ListOrders(ctx, page, pageSize)
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

// GetOrder handles GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.get_order")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	span.SetAttributes(attribute.String("order_id", c.Param("id")))
	order, err := h.adminService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, toOrderResponse(order))
}

// UpdateOrderStatus handles PATCH /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.update_order_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("order_id", c.Param("id")),
		attribute.String("status", req.Status),
	)

	if err := h.adminService.UpdateOrderStatus(ctx, c.Param("id"), domain.OrderStatus(req.Status)); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": req.Status})
}

// ListAuditLogs handles GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.audit_logs")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	filter := &domain.AuditLogFilter{
		UserID:       query.UserID,
		Role:         query.Role,
		EndpointType: query.EndpointType,
		Status:       query.Status,
		Search:       query.Search,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.From != "" {
		t, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			response.BadRequest(c, "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if query.To != "" {
		t, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			response.BadRequest(c, "to must be RFC3339")
			return
		}
		filter.To = t
	}

	logs, total, err := h.adminService.ListAuditLogs(ctx, filter)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	out := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toAuditLogResponse(l))
	}
	response.Paginated(c, out, response.PageMeta{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalItems: int64(total),
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	})
}

// Analytics handles GET /admin/analytics
func (h *AdminHandler) Analytics(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.analytics")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	span.SetAttributes(attribute.String("period", query.Period))

	result, err := h.adminService.Analytics(ctx, query.Period)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func toAuditLogResponse(l *domain.AuditLog) dto.AuditLogResponse {
	out := dto.AuditLogResponse{
		ID:           l.ID,
		Method:       l.Method,
		Path:         l.Path,
		Status:       l.Status,
		UserEmail:    l.UserEmail,
		UserRole:     l.UserRole,
		EndpointType: l.EndpointType,
		Action:       l.Action,
		IP:           l.IP,
		DurationMs:   l.DurationMs,
		Error:        l.Error,
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
	}
	if l.UserID != nil {
		out.UserID = *l.UserID
	}
	return out
}
