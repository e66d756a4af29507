package domain

import "time"

// Cart groups line items under a cart_id cookie. Guest carts have no
// user; a cart is attached to a user on login/sync.
type Cart struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is one cart line. Identity for merge purposes is
// (ProductID, SelectedOptions); see pricing.MergeKey.
type CartItem struct {
	ID              string            `json:"id"`
	CartID          string            `json:"cart_id"`
	ProductID       string            `json:"product_id"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
	UnitPrice       float64           `json:"unit_price"`
	Title           string            `json:"title"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CartTotals are the aggregate figures for a cart. Items whose pricing
// data could not be resolved are excluded from TotalPrice rather than
// counted as zero; Incomplete is set so callers can tell the difference.
type CartTotals struct {
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
	Incomplete bool    `json:"incomplete,omitempty"`
}
