package domain

import "time"

// AuditLog is one immutable row per handled API request. Rows are
// append-only and never mutated after insert.
type AuditLog struct {
	ID           string    `json:"id"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Status       int       `json:"status"`
	UserID       *string   `json:"user_id,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	UserRole     string    `json:"user_role,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	EndpointType string    `json:"endpoint_type"`
	Action       string    `json:"action"`
	IP           string    `json:"ip"`
	DurationMs   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditLogFilter narrows admin audit views. Zero values mean "no filter".
type AuditLogFilter struct {
	UserID       string
	Role         string
	EndpointType string
	Status       int
	Search       string // matched against path, user email, UUIDs, numeric status
	From         time.Time
	To           time.Time
	Page         int
	PageSize     int
}

// StockNotification is a request to be notified when a product is
// restocked. Delivery itself is an external concern.
type StockNotification struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	Email      string     `json:"email"`
	CreatedAt  time.Time  `json:"created_at"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
}
