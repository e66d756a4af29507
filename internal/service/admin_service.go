package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/events"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// AdminService serves the admin surfaces: catalog management, order
// management, audit views, and sales analytics.
type AdminService interface {
	CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error)
	// BulkUpdateProducts applies all patches atomically: one bad patch
	// rolls back the whole batch
	BulkUpdateProducts(ctx context.Context, req *dto.BulkUpdateProductsRequest) ([]*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error)

	ListOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error

	ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error)
	Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error)
}

// adminService implements AdminService
type adminService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	auditRepo   repository.AuditRepository
	stockRepo   repository.StockNotificationRepository
	publisher   events.Publisher
	log         *logger.Logger
	now         func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	stockRepo repository.StockNotificationRepository,
	publisher events.Publisher,
) AdminService {
	return &adminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		stockRepo:   stockRepo,
		publisher:   publisher,
		log:         logger.Get(),
		now:         time.Now,
	}
}

// CreateProduct creates a catalog product
func (s *adminService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	now := s.now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		ImageURL:    req.ImageURL,
		Options:     req.Options,
		Stock:       req.Stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func applyPatch(product *domain.Product, patch *dto.UpdateProductRequest) {
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.BasePrice != nil {
		product.BasePrice = *patch.BasePrice
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	if patch.Options != nil {
		product.Options = *patch.Options
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		product.IsActive = *patch.IsActive
	}
}

// UpdateProduct partially updates a product and dispatches restock
// notifications when stock goes from zero to positive
func (s *adminService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "admin.update_product")
	defer span.End()

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	wasOut := product.Stock <= 0
	applyPatch(product, req)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	if wasOut && product.Stock > 0 {
		s.dispatchRestock(ctx, product)
	}
	return product, nil
}

// BulkUpdateProducts applies all patches in one transaction
func (s *adminService) BulkUpdateProducts(ctx context.Context, req *dto.BulkUpdateProductsRequest) ([]*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "admin.bulk_update_products")
	defer span.End()

	ids := make([]string, 0, len(req.Updates))
	for _, update := range req.Updates {
		ids = append(ids, update.ID)
	}
	existing, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(req.Updates))
	var restocked []*domain.Product
	for i := range req.Updates {
		update := &req.Updates[i]
		product, ok := existing[update.ID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		wasOut := product.Stock <= 0
		applyPatch(product, &update.Patch)
		if wasOut && product.Stock > 0 {
			restocked = append(restocked, product)
		}
		products = append(products, product)
	}

	if err := s.productRepo.UpdateMany(ctx, products); err != nil {
		return nil, err
	}

	for _, product := range restocked {
		s.dispatchRestock(ctx, product)
	}
	return products, nil
}

// dispatchRestock publishes stock.restocked with the pending subscriber
// emails and marks those subscriptions notified. Failures are logged and
// swallowed: the product update itself has already committed.
func (s *adminService) dispatchRestock(ctx context.Context, product *domain.Product) {
	pending, err := s.stockRepo.ListPendingByProduct(ctx, product.ID)
	if err != nil {
		s.log.Error("restock subscription lookup failed",
			zap.String("product_id", product.ID), zap.Error(err))
		return
	}

	recipients := make([]string, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, n := range pending {
		recipients = append(recipients, n.Email)
		ids = append(ids, n.ID)
	}

	event := &events.StockRestockedEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		Stock:       product.Stock,
		Recipients:  recipients,
	}
	if err := s.publisher.PublishStockRestocked(ctx, event); err != nil {
		s.log.Error("stock.restocked publish failed",
			zap.String("product_id", product.ID), zap.Error(err))
		return
	}

	if err := s.stockRepo.MarkNotified(ctx, ids); err != nil {
		s.log.Error("restock subscriptions not marked notified",
			zap.String("product_id", product.ID), zap.Error(err))
	}
}

// DeleteProduct removes a product from the catalog
func (s *adminService) DeleteProduct(ctx context.Context, id string) error {
	return s.productRepo.Delete(ctx, id)
}

// ListProducts lists products including inactive ones
func (s *adminService) ListProducts(ctx context.Context, query *dto.ProductListQuery) ([]*domain.Product, int, error) {
	filter := &repository.ProductFilter{
		Category: query.Category,
		Search:   query.Search,
	}
	offset := (query.Page - 1) * query.PageSize
	return s.productRepo.List(ctx, filter, query.PageSize, offset)
}

// ListOrders lists all orders
func (s *adminService) ListOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.orderRepo.List(ctx, pageSize, (page-1)*pageSize)
}

// GetOrder fetches any order with its items
func (s *adminService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus moves an order through its lifecycle
func (s *adminService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return s.orderRepo.UpdateStatus(ctx, id, status)
}

// ListAuditLogs queries the request log
func (s *adminService) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	return s.auditRepo.List(ctx, filter)
}

// periodSpan resolves a period name to its window length and series
// bucket size
func periodSpan(period string, now time.Time) (from time.Time, bucket string, comparable bool) {
	switch period {
	case "7d":
		return now.AddDate(0, 0, -7), "day", true
	case "30d":
		return now.AddDate(0, 0, -30), "day", true
	case "6m":
		return now.AddDate(0, -6, 0), "week", true
	case "1y":
		return now.AddDate(-1, 0, 0), "month", true
	default: // "all"
		return time.Unix(0, 0).UTC(), "month", false
	}
}

// Analytics summarizes sales for a period with change against the
// previous period of equal length. period=all has no comparison window,
// so the change fields are null.
func (s *adminService) Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "admin.analytics")
	defer span.End()

	now := s.now().UTC()
	from, bucket, comparable := periodSpan(period, now)

	orders, revenue, err := s.orderRepo.Summary(ctx, from, now)
	if err != nil {
		return nil, err
	}

	resp := &dto.AnalyticsResponse{
		Period:  period,
		Orders:  orders,
		Revenue: revenue,
	}
	if orders > 0 {
		resp.AvgOrderValue = revenue / float64(orders)
	}

	if comparable {
		prevFrom := from.Add(-now.Sub(from))
		prevOrders, prevRevenue, err := s.orderRepo.Summary(ctx, prevFrom, from)
		if err != nil {
			return nil, err
		}
		resp.OrdersChangePct = changePct(float64(prevOrders), float64(orders))
		resp.RevenueChangePct = changePct(prevRevenue, revenue)
	}

	points, err := s.orderRepo.Series(ctx, from, now, bucket)
	if err != nil {
		return nil, err
	}
	resp.Series = make([]dto.AnalyticsPoint, 0, len(points))
	for _, p := range points {
		resp.Series = append(resp.Series, dto.AnalyticsPoint{
			Bucket:  p.Bucket.Format("2006-01-02"),
			Orders:  p.Orders,
			Revenue: p.Revenue,
		})
	}
	return resp, nil
}

// changePct returns the percentage change from prev to cur, or nil when
// prev is zero and no meaningful ratio exists
func changePct(prev, cur float64) *float64 {
	if prev == 0 {
		return nil
	}
	pct := (cur - prev) / prev * 100
	return &pct
}
