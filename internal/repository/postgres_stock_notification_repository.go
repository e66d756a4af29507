package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// PostgresStockNotificationRepository implements
// StockNotificationRepository using PostgreSQL
type PostgresStockNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStockNotificationRepository creates a new PostgresStockNotificationRepository
func NewPostgresStockNotificationRepository(pool *pgxpool.Pool) *PostgresStockNotificationRepository {
	return &PostgresStockNotificationRepository{pool: pool}
}

// Create registers interest in a restock. Re-registering the same email
// is a no-op so the endpoint stays idempotent.
func (r *PostgresStockNotificationRepository) Create(ctx context.Context, n *domain.StockNotification) error {
	query := `
		INSERT INTO stock_notifications (id, product_id, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, email) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.ProductID, strings.ToLower(n.Email), n.CreatedAt)
	return err
}

// ListPendingByProduct lists subscriptions not yet notified
func (r *PostgresStockNotificationRepository) ListPendingByProduct(ctx context.Context, productID string) ([]*domain.StockNotification, error) {
	query := `
		SELECT id, product_id, email, created_at, notified_at
		FROM stock_notifications
		WHERE product_id = $1 AND notified_at IS NULL
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.StockNotification
	for rows.Next() {
		n := &domain.StockNotification{}
		if err := rows.Scan(&n.ID, &n.ProductID, &n.Email, &n.CreatedAt, &n.NotifiedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotified stamps subscriptions as delivered
func (r *PostgresStockNotificationRepository) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE stock_notifications SET notified_at = $2 WHERE id = ANY($1)`
	_, err := r.pool.Exec(ctx, query, ids, time.Now().UTC())
	return err
}
