package dto

// AddToCartRequest adds a product line to the cart
type AddToCartRequest struct {
	ProductID       string            `json:"product_id" binding:"required"`
	Quantity        int               `json:"quantity" binding:"required,min=1"`
	SelectedOptions map[string]string `json:"selected_options"`
}

// UpdateCartItemRequest changes a line's quantity. Zero or negative
// removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// SyncCartRequest replaces the entire cart contents, used when a client
// reconciles a locally kept cart after login.
type SyncCartRequest struct {
	Items []AddToCartRequest `json:"items" binding:"required"`
}

// CartItemResponse is a priced cart line. Resolved is false when the
// backing product has been removed; such lines are excluded from the
// cart total.
type CartItemResponse struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"product_id"`
	Title           string            `json:"title"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	UnitPrice       float64           `json:"unit_price"`
	LineTotal       float64           `json:"line_total"`
	Resolved        bool              `json:"resolved"`
}

// CartResponse is the full priced cart view
type CartResponse struct {
	ID         string             `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice float64            `json:"total_price"`
	Incomplete bool               `json:"incomplete"`
}
