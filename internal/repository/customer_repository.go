package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// CustomerFilter captures customer listing parameters within a tenant.
type CustomerFilter struct {
	TenantID   string
	SearchTerm *string
	Limit      int
	Offset     int
}

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*domain.Customer, error)
	GetByExternalRef(ctx context.Context, tenantID, ref string) (*domain.Customer, error)
	ListWithFilter(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
	TouchLastSeen(ctx context.Context, id string) error
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (tenant_id, name, email, phone, external_ref, note, last_seen_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		customer.TenantID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.ExternalRef,
		customer.Note,
		customer.LastSeenAt,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET name=$1, email=$2, phone=$3, external_ref=$4, note=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.ExternalRef,
		customer.Note,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, tenant_id, name, email, phone, external_ref, note, last_seen_at, created_at, updated_at
        FROM customers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) GetByEmail(ctx context.Context, tenantID, email string) (*domain.Customer, error) {
	const query = `
        SELECT id, tenant_id, name, email, phone, external_ref, note, last_seen_at, created_at, updated_at
        FROM customers WHERE tenant_id=$1 AND LOWER(email)=LOWER($2)
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, tenantID, email)
}

func (r *customerRepository) GetByExternalRef(ctx context.Context, tenantID, ref string) (*domain.Customer, error) {
	const query = `
        SELECT id, tenant_id, name, email, phone, external_ref, note, last_seen_at, created_at, updated_at
        FROM customers WHERE tenant_id=$1 AND external_ref=$2
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, tenantID, ref)
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&customer.ID,
		&customer.TenantID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.ExternalRef,
		&customer.Note,
		&customer.LastSeenAt,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) ListWithFilter(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error) {
	base := `SELECT id, tenant_id, name, email, phone, external_ref, note, last_seen_at, created_at, updated_at
             FROM customers`
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s OR phone LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.TenantID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.ExternalRef,
			&customer.Note,
			&customer.LastSeenAt,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, customer)
	}
	return result, rows.Err()
}

func (r *customerRepository) TouchLastSeen(ctx context.Context, id string) error {
	const query = `UPDATE customers SET last_seen_at=NOW(), updated_at=NOW() WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
