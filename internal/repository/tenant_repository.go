package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// TenantFilter captures platform-level tenant search parameters.
type TenantFilter struct {
	Statuses   []domain.TenantStatus
	Plans      []domain.TenantPlan
	SearchTerm *string
	Limit      int
	Offset     int
}

// TenantRepository encapsulates tenant persistence.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	Update(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	ListWithFilter(ctx context.Context, filter TenantFilter) ([]domain.Tenant, error)
}

type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository instantiates repository.
func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepository{pool: pool}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        INSERT INTO tenants (name, slug, plan, status, locale, webhook_url, module_overrides, max_agents, break_allowance_seconds)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tenant.Name,
		tenant.Slug,
		tenant.Plan,
		tenant.Status,
		tenant.Locale,
		tenant.WebhookURL,
		tenant.ModuleOverrides,
		tenant.MaxAgents,
		tenant.BreakAllowanceSeconds,
	).Scan(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        UPDATE tenants SET name=$1, plan=$2, status=$3, locale=$4, webhook_url=$5,
            module_overrides=$6, max_agents=$7, break_allowance_seconds=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		tenant.Name,
		tenant.Plan,
		tenant.Status,
		tenant.Locale,
		tenant.WebhookURL,
		tenant.ModuleOverrides,
		tenant.MaxAgents,
		tenant.BreakAllowanceSeconds,
		tenant.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	const query = `
        SELECT id, name, slug, plan, status, locale, webhook_url, module_overrides,
               max_agents, break_allowance_seconds, created_at, updated_at
        FROM tenants WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	const query = `
        SELECT id, name, slug, plan, status, locale, webhook_url, module_overrides,
               max_agents, break_allowance_seconds, created_at, updated_at
        FROM tenants WHERE slug=$1`
	return r.fetchSingle(ctx, query, slug)
}

func (r *tenantRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Plan,
		&tenant.Status,
		&tenant.Locale,
		&tenant.WebhookURL,
		&tenant.ModuleOverrides,
		&tenant.MaxAgents,
		&tenant.BreakAllowanceSeconds,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) ListWithFilter(ctx context.Context, filter TenantFilter) ([]domain.Tenant, error) {
	base := `SELECT id, name, slug, plan, status, locale, webhook_url, module_overrides,
                    max_agents, break_allowance_seconds, created_at, updated_at
             FROM tenants`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Plans) > 0 {
		placeholders := make([]string, len(filter.Plans))
		for i, plan := range filter.Plans {
			args = append(args, plan)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("plan IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(slug) LIKE %s)", placeholder, placeholder))
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

	var result []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Slug,
			&tenant.Plan,
			&tenant.Status,
			&tenant.Locale,
			&tenant.WebhookURL,
			&tenant.ModuleOverrides,
			&tenant.MaxAgents,
			&tenant.BreakAllowanceSeconds,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tenant)
	}
	return result, rows.Err()
}
