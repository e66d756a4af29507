package dto

import "github.com/raineandseaweb/raineandsea-sub003/internal/domain"

// ProductListQuery filters the public catalog listing
type ProductListQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// ProductResponse is the public catalog view of a product
type ProductResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Category    string                    `json:"category"`
	BasePrice   float64                   `json:"base_price"`
	ImageURL    string                    `json:"image_url,omitempty"`
	Options     []domain.OptionDefinition `json:"options,omitempty"`
	InStock     bool                      `json:"in_stock"`
}

// StockNotifyRequest subscribes an email to a restock notification
type StockNotifyRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}
