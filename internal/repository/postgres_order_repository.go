package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

// PlaceOrder persists the order, decrements stock, and clears the source
// cart in one transaction. A failed stock decrement aborts the whole
// checkout with ErrInsufficientStock.
func (r *PostgresOrderRepository) PlaceOrder(ctx context.Context, order *domain.Order, cartID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, order_number, user_id, email, status, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, orderQuery,
		order.ID,
		order.OrderNumber,
		order.UserID,
		strings.ToLower(order.Email),
		order.Status,
		order.TotalAmount,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, title, quantity, unit_price, selected_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stockQuery := `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`

	for _, item := range order.Items {
		optionsJSON, _ := json.Marshal(item.SelectedOptions)
		if _, err := tx.Exec(ctx, itemQuery,
			item.ID,
			order.ID,
			item.ProductID,
			item.Title,
			item.Quantity,
			item.UnitPrice,
			optionsJSON,
		); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, stockQuery, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", item.ProductID, domain.ErrInsufficientStock)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const orderColumns = `id, order_number, user_id, email, status, total_amount, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Email,
		&order.Status,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, product_id, title, quantity, unit_price,
			COALESCE(selected_options, '{}'::jsonb) as selected_options
		FROM order_items
		WHERE order_id = $1
		ORDER BY title ASC
	`
	rows, err := r.pool.Query(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.OrderItem{}
		var optionsJSON []byte
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.Quantity,
			&item.UnitPrice,
			&optionsJSON,
		); err != nil {
			return err
		}
		if optionsJSON != nil {
			json.Unmarshal(optionsJSON, &item.SelectedOptions)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// GetByID retrieves an order with its items
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil || order == nil {
		return order, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByNumberAndEmail serves guest order lookup
func (r *PostgresOrderRepository) GetByNumberAndEmail(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND email = $2`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber, strings.ToLower(email)))
	if err != nil || order == nil {
		return order, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*domain.Order, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders WHERE %s`, where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

// ListByUser lists a user's orders, newest first
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int, error) {
	return r.list(ctx, "user_id = $1", []interface{}{userID}, limit, offset)
}

// List lists all orders for the admin view
func (r *PostgresOrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, int, error) {
	return r.list(ctx, "TRUE", nil, limit, offset)
}

// UpdateStatus moves an order through its lifecycle
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Summary aggregates order count and revenue between two instants.
// Cancelled orders never count toward sales figures.
func (r *PostgresOrderRepository) Summary(ctx context.Context, from, to time.Time) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> $3
	`
	var count int
	var revenue float64
	err := r.pool.QueryRow(ctx, query, from, to, domain.OrderStatusCancelled).Scan(&count, &revenue)
	return count, revenue, err
}

// Series buckets orders and revenue by the given interval ("day",
// "week", "month").
func (r *PostgresOrderRepository) Series(ctx context.Context, from, to time.Time, bucket string) ([]SeriesPoint, error) {
	switch bucket {
	case "day", "week", "month":
	default:
		return nil, fmt.Errorf("unsupported bucket %q", bucket)
	}

	// bucket is validated above; date_trunc does not accept a
	// parameterized field name
	query := fmt.Sprintf(`
		SELECT date_trunc('%s', created_at) AS bucket, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> $3
		GROUP BY bucket
		ORDER BY bucket ASC
	`, bucket)

	rows, err := r.pool.Query(ctx, query, from, to, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Bucket, &p.Orders, &p.Revenue); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
