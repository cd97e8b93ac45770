package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// QuickReplyFilter captures canned response listing parameters.
type QuickReplyFilter struct {
	TenantID   string
	Category   *string
	SearchTerm *string
	// VisibleTo limits results to shared replies plus those owned by the
	// given agent.
	VisibleTo  *string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// QuickReplyRepository encapsulates canned response persistence.
type QuickReplyRepository interface {
	Create(ctx context.Context, reply *domain.QuickReply) error
	Update(ctx context.Context, reply *domain.QuickReply) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.QuickReply, error)
	GetByShortCode(ctx context.Context, tenantID, shortCode string) (*domain.QuickReply, error)
	ListWithFilter(ctx context.Context, filter QuickReplyFilter) ([]domain.QuickReply, error)
	IncrementUsage(ctx context.Context, id string) error
}

type quickReplyRepository struct {
	pool *pgxpool.Pool
}

// NewQuickReplyRepository instantiates repository.
func NewQuickReplyRepository(pool *pgxpool.Pool) QuickReplyRepository {
	return &quickReplyRepository{pool: pool}
}

func (r *quickReplyRepository) Create(ctx context.Context, reply *domain.QuickReply) error {
	const query = `
        INSERT INTO quick_replies (tenant_id, owner_id, category, title, short_code, body, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reply.TenantID,
		reply.OwnerID,
		reply.Category,
		reply.Title,
		reply.ShortCode,
		reply.Body,
		reply.Active,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

func (r *quickReplyRepository) Update(ctx context.Context, reply *domain.QuickReply) error {
	const query = `
        UPDATE quick_replies SET category=$1, title=$2, short_code=$3, body=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		reply.Category,
		reply.Title,
		reply.ShortCode,
		reply.Body,
		reply.Active,
		reply.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quickReplyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM quick_replies WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quickReplyRepository) GetByID(ctx context.Context, id string) (*domain.QuickReply, error) {
	const query = `
        SELECT id, tenant_id, owner_id, category, title, short_code, body, usage_count, active, created_at, updated_at
        FROM quick_replies WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *quickReplyRepository) GetByShortCode(ctx context.Context, tenantID, shortCode string) (*domain.QuickReply, error) {
	const query = `
        SELECT id, tenant_id, owner_id, category, title, short_code, body, usage_count, active, created_at, updated_at
        FROM quick_replies WHERE tenant_id=$1 AND short_code=$2`
	return r.fetchSingle(ctx, query, tenantID, shortCode)
}

func (r *quickReplyRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.QuickReply, error) {
	var reply domain.QuickReply
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&reply.ID,
		&reply.TenantID,
		&reply.OwnerID,
		&reply.Category,
		&reply.Title,
		&reply.ShortCode,
		&reply.Body,
		&reply.UsageCount,
		&reply.Active,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *quickReplyRepository) ListWithFilter(ctx context.Context, filter QuickReplyFilter) ([]domain.QuickReply, error) {
	base := `SELECT id, tenant_id, owner_id, category, title, short_code, body, usage_count, active, created_at, updated_at
             FROM quick_replies`
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.Category != nil && *filter.Category != "" {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.VisibleTo != nil {
		args = append(args, *filter.VisibleTo)
		clauses = append(clauses, fmt.Sprintf("(owner_id IS NULL OR owner_id=$%d)", len(args)))
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "active=TRUE")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(short_code) LIKE %s OR LOWER(body) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY usage_count DESC, title ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.QuickReply
	for rows.Next() {
		var reply domain.QuickReply
		if err := rows.Scan(
			&reply.ID,
			&reply.TenantID,
			&reply.OwnerID,
			&reply.Category,
			&reply.Title,
			&reply.ShortCode,
			&reply.Body,
			&reply.UsageCount,
			&reply.Active,
			&reply.CreatedAt,
			&reply.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

func (r *quickReplyRepository) IncrementUsage(ctx context.Context, id string) error {
	const query = `UPDATE quick_replies SET usage_count=usage_count+1, updated_at=NOW() WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
