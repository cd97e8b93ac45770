package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// ConversationFilter captures inbox search parameters within a tenant.
type ConversationFilter struct {
	TenantID    string
	CustomerID  *string
	AssigneeID  *string
	Unassigned  bool
	Statuses    []domain.ConversationStatus
	Priorities  []domain.ConversationPriority
	Channels    []domain.ConversationChannel
	Tag         *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ConversationRepository encapsulates conversation persistence.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Update(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByReference(ctx context.Context, tenantID, reference string) (*domain.Conversation, error)
	ListWithFilter(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, error)
	StatusCounts(ctx context.Context, tenantID string, assigneeID *string) (map[domain.ConversationStatus]int64, error)
	CountsInRange(ctx context.Context, tenantID string, from, to time.Time) (int64, map[domain.ConversationStatus]int64, map[domain.ConversationPriority]int64, map[domain.ConversationChannel]int64, error)
	ResolutionStats(ctx context.Context, tenantID string, from, to time.Time) (int64, float64, error)
	AgentLoads(ctx context.Context, tenantID string, from, to time.Time) ([]domain.AgentLoad, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository instantiates repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (tenant_id, reference, customer_id, assignee_id, channel, subject, status, priority, tags, last_message_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
        RETURNING id, last_message_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		conv.TenantID,
		conv.Reference,
		conv.CustomerID,
		conv.AssigneeID,
		conv.Channel,
		conv.Subject,
		conv.Status,
		conv.Priority,
		conv.Tags,
	).Scan(&conv.ID, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt)
}

func (r *conversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        UPDATE conversations SET assignee_id=$1, subject=$2, status=$3, priority=$4, tags=$5,
            last_message_at=$6, closed_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		conv.AssigneeID,
		conv.Subject,
		conv.Status,
		conv.Priority,
		conv.Tags,
		conv.LastMessageAt,
		conv.ClosedAt,
		conv.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `
        SELECT id, tenant_id, reference, customer_id, assignee_id, channel, subject,
               status, priority, tags, last_message_at, created_at, updated_at, closed_at
        FROM conversations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *conversationRepository) GetByReference(ctx context.Context, tenantID, reference string) (*domain.Conversation, error) {
	const query = `
        SELECT id, tenant_id, reference, customer_id, assignee_id, channel, subject,
               status, priority, tags, last_message_at, created_at, updated_at, closed_at
        FROM conversations WHERE tenant_id=$1 AND reference=$2`
	return r.fetchSingle(ctx, query, tenantID, reference)
}

func (r *conversationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID,
		&conv.TenantID,
		&conv.Reference,
		&conv.CustomerID,
		&conv.AssigneeID,
		&conv.Channel,
		&conv.Subject,
		&conv.Status,
		&conv.Priority,
		&conv.Tags,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
		&conv.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListWithFilter(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, error) {
	base := `SELECT id, tenant_id, reference, customer_id, assignee_id, channel, subject,
                    status, priority, tags, last_message_at, created_at, updated_at, closed_at
             FROM conversations`
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	} else if filter.Unassigned {
		clauses = append(clauses, "assignee_id IS NULL")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Channels) > 0 {
		placeholders := make([]string, len(filter.Channels))
		for i, ch := range filter.Channels {
			args = append(args, ch)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("channel IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Tag != nil && *filter.Tag != "" {
		args = append(args, *filter.Tag)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE %s OR LOWER(reference) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY last_message_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConversations(rows)
}

func scanConversations(rows pgx.Rows) ([]domain.Conversation, error) {
	var result []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.TenantID,
			&conv.Reference,
			&conv.CustomerID,
			&conv.AssigneeID,
			&conv.Channel,
			&conv.Subject,
			&conv.Status,
			&conv.Priority,
			&conv.Tags,
			&conv.LastMessageAt,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	return result, rows.Err()
}

func (r *conversationRepository) StatusCounts(ctx context.Context, tenantID string, assigneeID *string) (map[domain.ConversationStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM conversations WHERE tenant_id=$1`
	args := []any{tenantID}
	if assigneeID != nil {
		args = append(args, *assigneeID)
		query += fmt.Sprintf(" AND assignee_id=$%d", len(args))
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ConversationStatus]int64)
	for rows.Next() {
		var status domain.ConversationStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *conversationRepository) CountsInRange(ctx context.Context, tenantID string, from, to time.Time) (int64, map[domain.ConversationStatus]int64, map[domain.ConversationPriority]int64, map[domain.ConversationChannel]int64, error) {
	const query = `
        SELECT status, priority, channel, COUNT(*)
        FROM conversations
        WHERE tenant_id=$1 AND created_at >= $2 AND created_at <= $3
        GROUP BY status, priority, channel`

	rows, err := r.pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return 0, nil, nil, nil, err
	}
	defer rows.Close()

	var total int64
	byStatus := make(map[domain.ConversationStatus]int64)
	byPriority := make(map[domain.ConversationPriority]int64)
	byChannel := make(map[domain.ConversationChannel]int64)
	for rows.Next() {
		var status domain.ConversationStatus
		var priority domain.ConversationPriority
		var channel domain.ConversationChannel
		var count int64
		if err := rows.Scan(&status, &priority, &channel, &count); err != nil {
			return 0, nil, nil, nil, err
		}
		total += count
		byStatus[status] += count
		byPriority[priority] += count
		byChannel[channel] += count
	}
	return total, byStatus, byPriority, byChannel, rows.Err()
}

func (r *conversationRepository) ResolutionStats(ctx context.Context, tenantID string, from, to time.Time) (int64, float64, error) {
	const query = `
        SELECT COUNT(*), COALESCE(AVG(EXTRACT(EPOCH FROM (closed_at - created_at))), 0)
        FROM conversations
        WHERE tenant_id=$1 AND created_at >= $2 AND created_at <= $3
          AND status IN ('RESOLVED','CLOSED') AND closed_at IS NOT NULL`
	var resolved int64
	var avgSeconds float64
	if err := r.pool.QueryRow(ctx, query, tenantID, from, to).Scan(&resolved, &avgSeconds); err != nil {
		return 0, 0, err
	}
	return resolved, avgSeconds, nil
}

func (r *conversationRepository) AgentLoads(ctx context.Context, tenantID string, from, to time.Time) ([]domain.AgentLoad, error) {
	const query = `
        SELECT a.id, a.name,
               COUNT(c.id),
               COUNT(c.id) FILTER (WHERE c.status IN ('RESOLVED','CLOSED'))
        FROM agents a
        JOIN conversations c ON c.assignee_id = a.id
        WHERE c.tenant_id=$1 AND c.created_at >= $2 AND c.created_at <= $3
        GROUP BY a.id, a.name
        ORDER BY COUNT(c.id) DESC`

	rows, err := r.pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AgentLoad
	for rows.Next() {
		var load domain.AgentLoad
		if err := rows.Scan(&load.AgentID, &load.Name, &load.Assigned, &load.Resolved); err != nil {
			return nil, err
		}
		result = append(result, load)
	}
	return result, rows.Err()
}
