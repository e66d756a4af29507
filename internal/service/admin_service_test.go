package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
)

type adminFixture struct {
	svc      AdminService
	products *fakeProductRepo
	orders   *fakeOrderRepo
	stock    *fakeStockRepo
	events   *capturePublisher
}

func newAdminFixture(products ...*domain.Product) *adminFixture {
	productRepo := newFakeProductRepo(products...)
	cartRepo := newFakeCartRepo()
	orderRepo := newFakeOrderRepo(productRepo, cartRepo)
	stockRepo := newFakeStockRepo()
	publisher := &capturePublisher{}
	return &adminFixture{
		svc:      NewAdminService(productRepo, orderRepo, &fakeAuditRepo{}, stockRepo, publisher),
		products: productRepo,
		orders:   orderRepo,
		stock:    stockRepo,
		events:   publisher,
	}
}

func strPtr(s string) *string    { return &s }
func intPtr(n int) *int          { return &n }
func f64Ptr(f float64) *float64  { return &f }

func TestAdmin_UpdateProductPartialPatch(t *testing.T) {
	f := newAdminFixture(ringProduct())

	updated, err := f.svc.UpdateProduct(context.Background(), "ring-1", &dto.UpdateProductRequest{
		BasePrice: f64Ptr(12.00),
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.00, updated.BasePrice, 1e-9)
	assert.Equal(t, "Wave Ring", updated.Name, "unset fields stay untouched")
}

func TestAdmin_RestockDispatchesNotifications(t *testing.T) {
	product := ringProduct()
	product.Stock = 0
	f := newAdminFixture(product)

	f.stock.Create(context.Background(), &domain.StockNotification{
		ID: "n1", ProductID: "ring-1", Email: "fan@example.com", CreatedAt: time.Now(),
	})

	_, err := f.svc.UpdateProduct(context.Background(), "ring-1", &dto.UpdateProductRequest{
		Stock: intPtr(10),
	})
	require.NoError(t, err)

	require.Len(t, f.events.restocked, 1)
	assert.Equal(t, []string{"fan@example.com"}, f.events.restocked[0].Recipients)

	pending, _ := f.stock.ListPendingByProduct(context.Background(), "ring-1")
	assert.Empty(t, pending, "dispatched subscriptions are marked notified")
}

func TestAdmin_NoRestockEventWhenStockStaysPositive(t *testing.T) {
	f := newAdminFixture(ringProduct()) // stock 50

	_, err := f.svc.UpdateProduct(context.Background(), "ring-1", &dto.UpdateProductRequest{
		Stock: intPtr(60),
	})
	require.NoError(t, err)
	assert.Empty(t, f.events.restocked)
}

func TestAdmin_BulkUpdateAllOrNothing(t *testing.T) {
	f := newAdminFixture(ringProduct())

	_, err := f.svc.BulkUpdateProducts(context.Background(), &dto.BulkUpdateProductsRequest{
		Updates: []dto.BulkProductUpdate{
			{ID: "ring-1", Patch: dto.UpdateProductRequest{BasePrice: f64Ptr(99.00)}},
			{ID: "missing", Patch: dto.UpdateProductRequest{Name: strPtr("X")}},
		},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAdmin_BulkUpdateApplies(t *testing.T) {
	second := ringProduct()
	second.ID = "ring-2"
	second.Name = "Tide Ring"
	f := newAdminFixture(ringProduct(), second)

	products, err := f.svc.BulkUpdateProducts(context.Background(), &dto.BulkUpdateProductsRequest{
		Updates: []dto.BulkProductUpdate{
			{ID: "ring-1", Patch: dto.UpdateProductRequest{BasePrice: f64Ptr(11.00)}},
			{ID: "ring-2", Patch: dto.UpdateProductRequest{BasePrice: f64Ptr(13.00)}},
		},
	})
	require.NoError(t, err)
	require.Len(t, products, 2)

	got, _ := f.products.GetByID(context.Background(), "ring-2")
	assert.InDelta(t, 13.00, got.BasePrice, 1e-9)
}

func seedOrder(f *adminFixture, id string, createdAt time.Time, amount float64, status domain.OrderStatus) {
	f.orders.orders[id] = &domain.Order{
		ID:          id,
		OrderNumber: "RS-20260101-" + id,
		Email:       "x@example.com",
		Status:      status,
		TotalAmount: amount,
		CreatedAt:   createdAt,
	}
}

func TestAdmin_AnalyticsPeriodOverPeriod(t *testing.T) {
	f := newAdminFixture()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	f.svc.(*adminService).now = func() time.Time { return now }

	// current 7d window: two orders, 30.00
	seedOrder(f, "a", now.AddDate(0, 0, -1), 10.00, domain.OrderStatusPaid)
	seedOrder(f, "b", now.AddDate(0, 0, -3), 20.00, domain.OrderStatusPending)
	// previous window: one order, 20.00
	seedOrder(f, "c", now.AddDate(0, 0, -9), 20.00, domain.OrderStatusPaid)
	// cancelled orders never count
	seedOrder(f, "d", now.AddDate(0, 0, -2), 500.00, domain.OrderStatusCancelled)

	resp, err := f.svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Orders)
	assert.InDelta(t, 30.00, resp.Revenue, 1e-9)
	assert.InDelta(t, 15.00, resp.AvgOrderValue, 1e-9)
	require.NotNil(t, resp.OrdersChangePct)
	assert.InDelta(t, 100.0, *resp.OrdersChangePct, 1e-9)
	require.NotNil(t, resp.RevenueChangePct)
	assert.InDelta(t, 50.0, *resp.RevenueChangePct, 1e-9)
}

func TestAdmin_AnalyticsAllPeriodHasNoComparison(t *testing.T) {
	f := newAdminFixture()
	seedOrder(f, "a", time.Now().Add(-time.Hour), 10.00, domain.OrderStatusPaid)

	resp, err := f.svc.Analytics(context.Background(), "all")
	require.NoError(t, err)
	assert.Nil(t, resp.OrdersChangePct)
	assert.Nil(t, resp.RevenueChangePct)
	assert.Equal(t, 1, resp.Orders)
}

func TestAdmin_AnalyticsEmptyPreviousWindow(t *testing.T) {
	f := newAdminFixture()
	seedOrder(f, "a", time.Now().Add(-time.Hour), 10.00, domain.OrderStatusPaid)

	resp, err := f.svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)
	assert.Nil(t, resp.OrdersChangePct, "no baseline means no percentage")
}
