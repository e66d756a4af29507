package repository

import (
	"context"
	"time"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// GetByID retrieves a user by ID; (nil, nil) when not found
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail retrieves a user by email; (nil, nil) when not found
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// SessionRepository tracks issued login sessions
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	// DeleteByUserExcept removes every session of a user but the one
	// named, used when a password change should keep the caller signed in
	DeleteByUserExcept(ctx context.Context, userID, keepID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PasswordResetRepository stores single-use reset tokens
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	// GetValidByTokenHash returns an unexpired, unused reset record;
	// (nil, nil) when no such token exists
	GetValidByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
}

// ProductFilter contains filter options for listing products
type ProductFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
}

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// GetByID retrieves a product by ID; (nil, nil) when not found
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs retrieves several products at once, keyed by id; missing
	// ids are simply absent from the result
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context, filter *ProductFilter, limit, offset int) ([]*domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	// UpdateMany applies all updates in a single transaction: either
	// every product row is updated or none are
	UpdateMany(ctx context.Context, products []*domain.Product) error
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

// CartRepository defines the interface for cart data access
type CartRepository interface {
	CreateCart(ctx context.Context, cart *domain.Cart) error
	// GetCart retrieves a cart by ID; (nil, nil) when not found
	GetCart(ctx context.Context, id string) (*domain.Cart, error)
	AttachUser(ctx context.Context, cartID, userID string) error
	GetItems(ctx context.Context, cartID string) ([]*domain.CartItem, error)
	// GetItemByMergeKey finds the line an addition would merge into;
	// (nil, nil) when the cart has no such line
	GetItemByMergeKey(ctx context.Context, cartID, mergeKey string) (*domain.CartItem, error)
	GetItem(ctx context.Context, cartID, itemID string) (*domain.CartItem, error)
	InsertItem(ctx context.Context, item *domain.CartItem, mergeKey string) error
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	// ReplaceItems swaps the full cart contents in one transaction
	ReplaceItems(ctx context.Context, cartID string, items []*domain.CartItem, mergeKeys []string) error
	ClearItems(ctx context.Context, cartID string) error
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// PlaceOrder persists the order with its items, decrements product
	// stock, and clears the source cart, all in one transaction
	PlaceOrder(ctx context.Context, order *domain.Order, cartID string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByNumberAndEmail serves guest order lookup; both values must
	// match the same order
	GetByNumberAndEmail(ctx context.Context, orderNumber, email string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// Summary aggregates order count and revenue between two instants
	Summary(ctx context.Context, from, to time.Time) (int, float64, error)
	// Series buckets orders and revenue by the given interval
	Series(ctx context.Context, from, to time.Time, bucket string) ([]SeriesPoint, error)
}

// SeriesPoint is one aggregation bucket of the sales series
type SeriesPoint struct {
	Bucket  time.Time
	Orders  int
	Revenue float64
}

// AuditRepository persists and queries the append-only request log
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error)
}

// StockNotificationRepository stores restock notification requests
type StockNotificationRepository interface {
	// Create registers interest; duplicate (product, email) pairs are
	// silently accepted
	Create(ctx context.Context, n *domain.StockNotification) error
	ListPendingByProduct(ctx context.Context, productID string) ([]*domain.StockNotification, error)
	MarkNotified(ctx context.Context, ids []string) error
}
