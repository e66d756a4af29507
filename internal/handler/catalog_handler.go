package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// CatalogHandler handles public catalog HTTP requests
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		span.SetStatus(codes.Error, "invalid query")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("category", query.Category),
		attribute.Int("page", query.Page),
	)

	products, total, err := h.catalogService.List(ctx, &query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	response.Paginated(c, out, response.PageMeta{
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: int64(total),
		TotalPages: (total + query.PageSize - 1) / query.PageSize,
	})
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("product_id", id))

	product, err := h.catalogService.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, toProductResponse(product))
}

// Categories handles GET /products/categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.categories")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	categories, err := h.catalogService.Categories(ctx)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, categories)
}

// NotifyStock handles POST /products/notify-stock
func (h *CatalogHandler) NotifyStock(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.catalog.notify_stock")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.StockNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.catalogService.NotifyWhenInStock(ctx, &req); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "You will be notified when this item is back in stock."})
}

func toProductResponse(p *domain.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		BasePrice:   p.BasePrice,
		ImageURL:    p.ImageURL,
		Options:     p.Options,
		InStock:     p.InStock(),
	}
}
