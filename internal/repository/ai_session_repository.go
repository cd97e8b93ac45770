package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// AISessionRepository encapsulates assistant session persistence.
type AISessionRepository interface {
	Create(ctx context.Context, session *domain.AISession) error
	Update(ctx context.Context, session *domain.AISession) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.AISession, error)
	ListByAgent(ctx context.Context, tenantID, agentID string, includeArchived bool, limit, offset int) ([]domain.AISession, error)
	IncrementMessageCount(ctx context.Context, id string, delta int) error
}

type aiSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAISessionRepository instantiates repository.
func NewAISessionRepository(pool *pgxpool.Pool) AISessionRepository {
	return &aiSessionRepository{pool: pool}
}

func (r *aiSessionRepository) Create(ctx context.Context, session *domain.AISession) error {
	const query = `
        INSERT INTO ai_sessions (tenant_id, agent_id, conversation_id, title, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		session.TenantID,
		session.AgentID,
		session.ConversationID,
		session.Title,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

func (r *aiSessionRepository) Update(ctx context.Context, session *domain.AISession) error {
	const query = `
        UPDATE ai_sessions SET title=$1, status=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query,
		session.Title,
		session.Status,
		session.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *aiSessionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ai_sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *aiSessionRepository) GetByID(ctx context.Context, id string) (*domain.AISession, error) {
	const query = `
        SELECT id, tenant_id, agent_id, conversation_id, title, status, message_count, created_at, updated_at
        FROM ai_sessions WHERE id=$1`
	var session domain.AISession
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.TenantID,
		&session.AgentID,
		&session.ConversationID,
		&session.Title,
		&session.Status,
		&session.MessageCount,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *aiSessionRepository) ListByAgent(ctx context.Context, tenantID, agentID string, includeArchived bool, limit, offset int) ([]domain.AISession, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
        SELECT id, tenant_id, agent_id, conversation_id, title, status, message_count, created_at, updated_at
        FROM ai_sessions WHERE tenant_id=$1 AND agent_id=$2`
	if !includeArchived {
		query += ` AND status='ACTIVE'`
	}
	query += ` ORDER BY updated_at DESC LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, tenantID, agentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AISession
	for rows.Next() {
		var session domain.AISession
		if err := rows.Scan(
			&session.ID,
			&session.TenantID,
			&session.AgentID,
			&session.ConversationID,
			&session.Title,
			&session.Status,
			&session.MessageCount,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

func (r *aiSessionRepository) IncrementMessageCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE ai_sessions SET message_count=message_count+$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, delta, id)
	return err
}
