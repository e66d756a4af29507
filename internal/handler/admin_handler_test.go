package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
)

func adminRouter(svc *MockAdminService) *gin.Engine {
	h := NewAdminHandler(svc)
	r := gin.New()
	r.PATCH("/admin/products", h.BulkUpdateProducts)
	r.PATCH("/admin/orders/:id/status", h.UpdateOrderStatus)
	r.GET("/admin/audit-logs", h.ListAuditLogs)
	r.GET("/admin/analytics", h.Analytics)
	return r
}

func TestAdminHandler_BulkUpdateAtomicFailure(t *testing.T) {
	svc := &MockAdminService{
		BulkUpdateProductsFunc: func(_ context.Context, req *dto.BulkUpdateProductsRequest) ([]*domain.Product, error) {
			require.Len(t, req.Updates, 2)
			return nil, domain.ErrProductNotFound
		},
	}
	r := adminRouter(svc)

	body := `{"updates":[
		{"id":"p1","patch":{"stock":5}},
		{"id":"missing","patch":{"stock":1}}
	]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/admin/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code, "one bad id fails the whole batch")
}

func TestAdminHandler_BulkUpdateRequiresUpdates(t *testing.T) {
	r := adminRouter(&MockAdminService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/admin/products", strings.NewReader(`{"updates":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_UpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	called := false
	svc := &MockAdminService{
		UpdateOrderStatusFunc: func(_ context.Context, _ string, _ domain.OrderStatus) error {
			called = true
			return nil
		},
	}
	r := adminRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/o1/status", bytes.NewReader([]byte(`{"status":"teleported"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestAdminHandler_AuditLogsParseTimeBounds(t *testing.T) {
	var got *domain.AuditLogFilter
	svc := &MockAdminService{
		ListAuditLogsFunc: func(_ context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
			got = filter
			return nil, 0, nil
		},
	}
	r := adminRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/admin/audit-logs?from=2026-08-01T00:00:00Z&endpoint_type=admin&status=403", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, 2026, got.From.Year())
	assert.True(t, got.To.IsZero())
	assert.Equal(t, "admin", got.EndpointType)
	assert.Equal(t, 403, got.Status)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 50, got.PageSize)
}

func TestAdminHandler_AuditLogsRejectBadTimestamp(t *testing.T) {
	r := adminRouter(&MockAdminService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/audit-logs?from=yesterday", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "RFC3339")
}

func TestAdminHandler_AnalyticsPeriodValidation(t *testing.T) {
	svc := &MockAdminService{
		AnalyticsFunc: func(_ context.Context, period string) (*dto.AnalyticsResponse, error) {
			return &dto.AnalyticsResponse{Period: period, Series: []dto.AnalyticsPoint{}}, nil
		},
	}
	r := adminRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/analytics?period=7d", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period":"7d"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/analytics?period=90d", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
