package domain

import "time"

// OrderStatus represents order lifecycle state
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a placed order. Guest orders have no user and are
// looked up later by order number + email.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	UserID      *string     `json:"user_id,omitempty"`
	Email       string      `json:"email"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderItem is a priced snapshot of a cart line at checkout time; later
// catalog edits never change it.
type OrderItem struct {
	ID              string            `json:"id"`
	OrderID         string            `json:"order_id"`
	ProductID       string            `json:"product_id"`
	Title           string            `json:"title"`
	Quantity        int               `json:"quantity"`
	UnitPrice       float64           `json:"unit_price"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
}
