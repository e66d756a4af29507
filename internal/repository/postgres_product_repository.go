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

// PostgresProductRepository implements ProductRepository using PostgreSQL
type PostgresProductRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProductRepository creates a new PostgresProductRepository
func NewPostgresProductRepository(pool *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{pool: pool}
}

// Option definitions live in a JSONB column; they are read-modify-write
// data owned by admins, never queried relationally.
const productColumns = `id, name,
	COALESCE(description, '') as description,
	category, base_price,
	COALESCE(image_url, '') as image_url,
	COALESCE(options, '[]'::jsonb) as options,
	stock, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	var optionsJSON []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.BasePrice,
		&product.ImageURL,
		&optionsJSON,
		&product.Stock,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if optionsJSON != nil {
		json.Unmarshal(optionsJSON, &product.Options)
	}
	return product, nil
}

func scanProducts(rows pgx.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Create creates a new product
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, category, base_price, image_url, options, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	optionsJSON, _ := json.Marshal(product.Options)
	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.BasePrice,
		product.ImageURL,
		optionsJSON,
		product.Stock,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	return err
}

// GetByID retrieves a product by ID
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

// GetByIDs retrieves several products keyed by id
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	if len(ids) == 0 {
		return map[string]*domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return byID, nil
}

// List lists products with filters and pagination
func (r *PostgresProductRepository) List(ctx context.Context, filter *ProductFilter, limit, offset int) ([]*domain.Product, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argIndex := 1

	if filter != nil {
		if filter.ActiveOnly {
			conditions = append(conditions, "is_active = true")
		}
		if filter.Category != "" {
			conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
			args = append(args, filter.Category)
			argIndex++
		}
		if filter.Search != "" {
			conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
			args = append(args, "%"+filter.Search+"%")
			argIndex++
		}
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

const productUpdateQuery = `
	UPDATE products SET
		name = $2, description = $3, category = $4, base_price = $5,
		image_url = $6, options = $7, stock = $8, is_active = $9, updated_at = $10
	WHERE id = $1
`

// Update updates a product
func (r *PostgresProductRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	optionsJSON, _ := json.Marshal(product.Options)

	result, err := r.pool.Exec(ctx, productUpdateQuery,
		product.ID,
		product.Name,
		product.Description,
		product.Category,
		product.BasePrice,
		product.ImageURL,
		optionsJSON,
		product.Stock,
		product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// UpdateMany applies all updates in a single transaction
func (r *PostgresProductRepository) UpdateMany(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, product := range products {
		product.UpdatedAt = now
		optionsJSON, _ := json.Marshal(product.Options)

		result, err := tx.Exec(ctx, productUpdateQuery,
			product.ID,
			product.Name,
			product.Description,
			product.Category,
			product.BasePrice,
			product.ImageURL,
			optionsJSON,
			product.Stock,
			product.IsActive,
			product.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", product.ID, domain.ErrProductNotFound)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a product
func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Categories lists distinct categories of active products
func (r *PostgresProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM products WHERE is_active = true ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
