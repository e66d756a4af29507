package dto

// CheckoutRequest converts the current cart into an order. Email is
// required for guests and ignored for authenticated users.
type CheckoutRequest struct {
	Email string `json:"email"`
}

// GuestOrderLookupRequest fetches an order without an account
type GuestOrderLookupRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

// OrderItemResponse is a priced order line snapshot
type OrderItemResponse struct {
	ProductID       string            `json:"product_id"`
	Title           string            `json:"title"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	UnitPrice       float64           `json:"unit_price"`
	LineTotal       float64           `json:"line_total"`
}

// OrderResponse represents a placed order
type OrderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"order_number"`
	Email       string              `json:"email"`
	Status      string              `json:"status"`
	TotalAmount float64             `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
}

// UpdateOrderStatusRequest moves an order through its lifecycle (admin)
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped cancelled"`
}
