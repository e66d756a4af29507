package dto

import "github.com/raineandseaweb/raineandsea-sub003/internal/domain"

// CreateProductRequest creates a catalog product (admin)
type CreateProductRequest struct {
	Name        string                    `json:"name" binding:"required,min=1"`
	Description string                    `json:"description"`
	Category    string                    `json:"category" binding:"required"`
	BasePrice   float64                   `json:"base_price" binding:"required,gt=0"`
	ImageURL    string                    `json:"image_url"`
	Options     []domain.OptionDefinition `json:"options"`
	Stock       int                       `json:"stock" binding:"min=0"`
	IsActive    *bool                     `json:"is_active"`
}

// UpdateProductRequest partially updates a product (admin). Nil fields
// are left untouched.
type UpdateProductRequest struct {
	Name        *string                    `json:"name"`
	Description *string                    `json:"description"`
	Category    *string                    `json:"category"`
	BasePrice   *float64                   `json:"base_price"`
	ImageURL    *string                    `json:"image_url"`
	Options     *[]domain.OptionDefinition `json:"options"`
	Stock       *int                       `json:"stock"`
	IsActive    *bool                      `json:"is_active"`
}

// BulkProductUpdate pairs a product id with its patch
type BulkProductUpdate struct {
	ID    string               `json:"id" binding:"required"`
	Patch UpdateProductRequest `json:"patch" binding:"required"`
}

// BulkUpdateProductsRequest applies several product patches atomically:
// either every patch lands or none do.
type BulkUpdateProductsRequest struct {
	Updates []BulkProductUpdate `json:"updates" binding:"required,min=1,max=100"`
}

// AuditLogQuery filters the admin audit log view
type AuditLogQuery struct {
	UserID       string `form:"user_id"`
	Role         string `form:"role"`
	EndpointType string `form:"endpoint_type"`
	Status       int    `form:"status"`
	Search       string `form:"search"`
	From         string `form:"from"`
	To           string `form:"to"`
	Page         int    `form:"page,default=1" binding:"min=1"`
	PageSize     int    `form:"page_size,default=50" binding:"min=1,max=200"`
}

// AuditLogResponse is one audit row in the admin view
type AuditLogResponse struct {
	ID           string `json:"id"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	Status       int    `json:"status"`
	UserID       string `json:"user_id,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
	EndpointType string `json:"endpoint_type"`
	Action       string `json:"action,omitempty"`
	IP           string `json:"ip"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// AnalyticsQuery selects the reporting window
type AnalyticsQuery struct {
	Period string `form:"period,default=30d" binding:"oneof=7d 30d 6m 1y all"`
}

// AnalyticsPoint is one time bucket in a revenue series
type AnalyticsPoint struct {
	Bucket  string  `json:"bucket"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// AnalyticsResponse summarizes sales for a period, with change relative
// to the previous period of equal length (null for period=all).
type AnalyticsResponse struct {
	Period           string           `json:"period"`
	Orders           int              `json:"orders"`
	Revenue          float64          `json:"revenue"`
	AvgOrderValue    float64          `json:"avg_order_value"`
	OrdersChangePct  *float64         `json:"orders_change_pct"`
	RevenueChangePct *float64         `json:"revenue_change_pct"`
	Series           []AnalyticsPoint `json:"series"`
}
