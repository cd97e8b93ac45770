package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// TeamChatRepository manages internal chat channels and messages.
type TeamChatRepository interface {
	CreateChannel(ctx context.Context, channel *domain.ChatChannel) error
	DeleteChannel(ctx context.Context, id string) error
	GetChannel(ctx context.Context, id string) (*domain.ChatChannel, error)
	GetChannelByName(ctx context.Context, tenantID, name string) (*domain.ChatChannel, error)
	ListChannels(ctx context.Context, tenantID string) ([]domain.ChatChannel, error)
	AddMember(ctx context.Context, channelID, agentID string) error
	RemoveMember(ctx context.Context, channelID, agentID string) error
	IsMember(ctx context.Context, channelID, agentID string) (bool, error)
	ListMemberIDs(ctx context.Context, channelID string) ([]string, error)
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, channelID string, before *time.Time, limit int) ([]domain.ChatMessage, error)
}

type teamChatRepository struct {
	pool *pgxpool.Pool
}

// NewTeamChatRepository instantiates repository.
func NewTeamChatRepository(pool *pgxpool.Pool) TeamChatRepository {
	return &teamChatRepository{pool: pool}
}

func (r *teamChatRepository) CreateChannel(ctx context.Context, channel *domain.ChatChannel) error {
	const query = `
        INSERT INTO chat_channels (tenant_id, name, topic, created_by)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		channel.TenantID,
		channel.Name,
		channel.Topic,
		channel.CreatedBy,
	).Scan(&channel.ID, &channel.CreatedAt)
}

// DeleteChannel removes a channel; members and messages cascade.
func (r *teamChatRepository) DeleteChannel(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM chat_channels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamChatRepository) GetChannel(ctx context.Context, id string) (*domain.ChatChannel, error) {
	const query = `
        SELECT id, tenant_id, name, topic, created_by, created_at
        FROM chat_channels WHERE id=$1`
	return r.fetchChannel(ctx, query, id)
}

func (r *teamChatRepository) GetChannelByName(ctx context.Context, tenantID, name string) (*domain.ChatChannel, error) {
	const query = `
        SELECT id, tenant_id, name, topic, created_by, created_at
        FROM chat_channels WHERE tenant_id=$1 AND name=$2`
	return r.fetchChannel(ctx, query, tenantID, name)
}

func (r *teamChatRepository) fetchChannel(ctx context.Context, query string, args ...any) (*domain.ChatChannel, error) {
	var channel domain.ChatChannel
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&channel.ID,
		&channel.TenantID,
		&channel.Name,
		&channel.Topic,
		&channel.CreatedBy,
		&channel.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *teamChatRepository) ListChannels(ctx context.Context, tenantID string) ([]domain.ChatChannel, error) {
	const query = `
        SELECT id, tenant_id, name, topic, created_by, created_at
        FROM chat_channels WHERE tenant_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatChannel
	for rows.Next() {
		var channel domain.ChatChannel
		if err := rows.Scan(
			&channel.ID,
			&channel.TenantID,
			&channel.Name,
			&channel.Topic,
			&channel.CreatedBy,
			&channel.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, channel)
	}
	return result, rows.Err()
}

func (r *teamChatRepository) AddMember(ctx context.Context, channelID, agentID string) error {
	const query = `
        INSERT INTO chat_channel_members (channel_id, agent_id)
        VALUES ($1,$2) ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, channelID, agentID)
	return err
}

func (r *teamChatRepository) RemoveMember(ctx context.Context, channelID, agentID string) error {
	const query = `DELETE FROM chat_channel_members WHERE channel_id=$1 AND agent_id=$2`
	cmd, err := r.pool.Exec(ctx, query, channelID, agentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamChatRepository) IsMember(ctx context.Context, channelID, agentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM chat_channel_members WHERE channel_id=$1 AND agent_id=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, channelID, agentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *teamChatRepository) ListMemberIDs(ctx context.Context, channelID string) ([]string, error) {
	const query = `SELECT agent_id FROM chat_channel_members WHERE channel_id=$1`
	rows, err := r.pool.Query(ctx, query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (r *teamChatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `
        INSERT INTO chat_messages (channel_id, tenant_id, sender_id, body, mentions)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	mentions := msg.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		msg.ChannelID,
		msg.TenantID,
		msg.SenderID,
		msg.Body,
		mentions,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *teamChatRepository) ListMessages(ctx context.Context, channelID string, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, channel_id, tenant_id, sender_id, body, mentions, created_at
        FROM chat_messages WHERE channel_id=$1`
	args := []any{channelID}
	if before != nil {
		args = append(args, *before)
		query += ` AND created_at < $2`
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.ChannelID,
			&msg.TenantID,
			&msg.SenderID,
			&msg.Body,
			&msg.Mentions,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
