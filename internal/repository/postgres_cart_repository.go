package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// PostgresCartRepository implements CartRepository using PostgreSQL
type PostgresCartRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCartRepository creates a new PostgresCartRepository
func NewPostgresCartRepository(pool *pgxpool.Pool) *PostgresCartRepository {
	return &PostgresCartRepository{pool: pool}
}

const cartItemColumns = `id, cart_id, product_id, quantity,
	COALESCE(selected_options, '{}'::jsonb) as selected_options,
	created_at, updated_at`

func scanCartItem(row pgx.Row) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	var optionsJSON []byte

	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&optionsJSON,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if optionsJSON != nil {
		json.Unmarshal(optionsJSON, &item.SelectedOptions)
	}
	return item, nil
}

// CreateCart creates a new cart
func (r *PostgresCartRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt)
	return err
}

// GetCart retrieves a cart by ID
func (r *PostgresCartRepository) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE id = $1`
	cart := &domain.Cart{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cart, nil
}

// AttachUser binds a guest cart to the user who just logged in
func (r *PostgresCartRepository) AttachUser(ctx context.Context, cartID, userID string) error {
	query := `UPDATE carts SET user_id = $2, updated_at = $3 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, cartID, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

// GetItems lists cart lines, oldest first so the cart keeps a stable
// visual order in clients
func (r *PostgresCartRepository) GetItems(ctx context.Context, cartID string) ([]*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItemByMergeKey finds the line an addition with this identity merges
// into
func (r *PostgresCartRepository) GetItemByMergeKey(ctx context.Context, cartID, mergeKey string) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 AND merge_key = $2`
	item, err := scanCartItem(r.pool.QueryRow(ctx, query, cartID, mergeKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// GetItem retrieves a single line, scoped to its cart so one cart's
// cookie can never address another cart's items
func (r *PostgresCartRepository) GetItem(ctx context.Context, cartID, itemID string) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 AND id = $2`
	item, err := scanCartItem(r.pool.QueryRow(ctx, query, cartID, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// InsertItem adds a new cart line
func (r *PostgresCartRepository) InsertItem(ctx context.Context, item *domain.CartItem, mergeKey string) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, selected_options, merge_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	optionsJSON, _ := json.Marshal(item.SelectedOptions)
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.CartID,
		item.ProductID,
		item.Quantity,
		optionsJSON,
		mergeKey,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

// UpdateItemQuantity sets a line's quantity
func (r *PostgresCartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	query := `UPDATE cart_items SET quantity = $2, updated_at = $3 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, itemID, quantity, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// DeleteItem removes a line
func (r *PostgresCartRepository) DeleteItem(ctx context.Context, itemID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	return err
}

// ReplaceItems swaps the full cart contents in one transaction
func (r *PostgresCartRepository) ReplaceItems(ctx context.Context, cartID string, items []*domain.CartItem, mergeKeys []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, selected_options, merge_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range items {
		optionsJSON, _ := json.Marshal(item.SelectedOptions)
		if _, err := tx.Exec(ctx, insertQuery,
			item.ID,
			item.CartID,
			item.ProductID,
			item.Quantity,
			optionsJSON,
			mergeKeys[i],
			item.CreatedAt,
			item.UpdatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ClearItems empties a cart
func (r *PostgresCartRepository) ClearItems(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
