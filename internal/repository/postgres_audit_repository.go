package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// PostgresAuditRepository implements AuditRepository using PostgreSQL.
// The table is append-only: there is no update or delete path.
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

// Insert appends one audit row
func (r *PostgresAuditRepository) Insert(ctx context.Context, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, method, path, status, user_id, user_email, user_role,
			session_id, endpoint_type, action, ip, duration_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Method,
		entry.Path,
		entry.Status,
		entry.UserID,
		entry.UserEmail,
		entry.UserRole,
		entry.SessionID,
		entry.EndpointType,
		entry.Action,
		entry.IP,
		entry.DurationMs,
		entry.Error,
		entry.CreatedAt,
	)
	return err
}

// List queries audit rows with filters and pagination, newest first
func (r *PostgresAuditRepository) List(ctx context.Context, filter *domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argIndex := 1

	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Role != "" {
		add("user_role = $%d", filter.Role)
	}
	if filter.EndpointType != "" {
		add("endpoint_type = $%d", filter.EndpointType)
	}
	if filter.Status != 0 {
		add("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at < $%d", filter.To)
	}
	if filter.Search != "" {
		// free-text search matches path and email; an all-digit term
		// additionally matches the status code
		if status, err := strconv.Atoi(filter.Search); err == nil {
			conditions = append(conditions,
				fmt.Sprintf("(path ILIKE $%d OR user_email ILIKE $%d OR status = $%d)", argIndex, argIndex, argIndex+1))
			args = append(args, "%"+filter.Search+"%", status)
			argIndex += 2
		} else {
			conditions = append(conditions,
				fmt.Sprintf("(path ILIKE $%d OR user_email ILIKE $%d OR user_id::text = $%d)", argIndex, argIndex, argIndex+1))
			args = append(args, "%"+filter.Search+"%", filter.Search)
			argIndex += 2
		}
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM audit_logs WHERE %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	query := fmt.Sprintf(`
		SELECT id, method, path, status, user_id,
			COALESCE(user_email, '') as user_email,
			COALESCE(user_role, '') as user_role,
			COALESCE(session_id, '') as session_id,
			endpoint_type,
			COALESCE(action, '') as action,
			ip, duration_ms,
			COALESCE(error, '') as error,
			created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*domain.AuditLog
	for rows.Next() {
		entry := &domain.AuditLog{}
		if err := rows.Scan(
			&entry.ID,
			&entry.Method,
			&entry.Path,
			&entry.Status,
			&entry.UserID,
			&entry.UserEmail,
			&entry.UserRole,
			&entry.SessionID,
			&entry.EndpointType,
			&entry.Action,
			&entry.IP,
			&entry.DurationMs,
			&entry.Error,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
