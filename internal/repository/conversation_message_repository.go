package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// ConversationMessageRepository manages conversation thread messages.
type ConversationMessageRepository interface {
	Create(ctx context.Context, msg *domain.ConversationMessage) error
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]domain.ConversationMessage, error)
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}

type conversationMessageRepository struct {
	pool *pgxpool.Pool
}

// NewConversationMessageRepository builds repository.
func NewConversationMessageRepository(pool *pgxpool.Pool) ConversationMessageRepository {
	return &conversationMessageRepository{pool: pool}
}

func (r *conversationMessageRepository) Create(ctx context.Context, msg *domain.ConversationMessage) error {
	const query = `
        INSERT INTO conversation_messages (conversation_id, author_type, author_id, kind, body, attachments)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []domain.AttachmentRef{}
	}
	return r.pool.QueryRow(ctx, query,
		msg.ConversationID,
		msg.AuthorType,
		msg.AuthorID,
		msg.Kind,
		msg.Body,
		attachments,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *conversationMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, conversation_id, author_type, author_id, kind, body, attachments, created_at
        FROM conversation_messages WHERE conversation_id=$1
        ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.AuthorType,
			&msg.AuthorID,
			&msg.Kind,
			&msg.Body,
			&msg.Attachments,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *conversationMessageRepository) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM conversation_messages WHERE conversation_id=$1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, conversationID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
