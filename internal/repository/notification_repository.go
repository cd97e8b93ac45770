package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// NotificationFilter captures inbox listing parameters for an agent.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Types       []domain.NotificationType
	Limit       int
	Offset      int
}

// NotificationRepository encapsulates notification persistence.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListWithFilter(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (tenant_id, recipient_id, type, title, body, payload)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	payload := notification.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query,
		notification.TenantID,
		notification.RecipientID,
		notification.Type,
		notification.Title,
		notification.Body,
		payload,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        SELECT id, tenant_id, recipient_id, type, title, body, payload, read_at, created_at
        FROM notifications WHERE id=$1`
	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.TenantID,
		&n.RecipientID,
		&n.Type,
		&n.Title,
		&n.Body,
		&n.Payload,
		&n.ReadAt,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListWithFilter(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	base := `SELECT id, tenant_id, recipient_id, type, title, body, payload, read_at, created_at
             FROM notifications`
	clauses := []string{"recipient_id=$1"}
	args := []any{filter.RecipientID}

	if filter.UnreadOnly {
		clauses = append(clauses, "read_at IS NULL")
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
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

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.TenantID,
			&n.RecipientID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.Payload,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND read_at IS NULL`
	var count int64
	if err := r.pool.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	// COALESCE keeps the original read timestamp on repeat calls.
	const query = `UPDATE notifications SET read_at=COALESCE(read_at, NOW()) WHERE id=$1 AND recipient_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	const query = `UPDATE notifications SET read_at=NOW() WHERE recipient_id=$1 AND read_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
