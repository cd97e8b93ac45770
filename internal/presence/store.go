package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asistanapp/panel-service/internal/domain"
)

// Record is the raw presence state kept in Redis for one agent. A missing
// record means the agent is offline.
type Record struct {
	State          domain.AgentState
	Since          time.Time
	BreakStartedAt *time.Time
}

// Store persists live presence and the daily break ledger.
type Store interface {
	SetPresence(ctx context.Context, tenantID, agentID string, rec Record) error
	GetPresence(ctx context.Context, tenantID, agentID string) (*Record, error)
	ListPresence(ctx context.Context, tenantID string, agentIDs []string) (map[string]*Record, error)
	TouchPresence(ctx context.Context, tenantID, agentID string) (bool, error)
	ClearPresence(ctx context.Context, tenantID, agentID string) error
	AddBreakUsage(ctx context.Context, tenantID, agentID, day string, seconds int) (int, error)
	GetBreakUsage(ctx context.Context, tenantID, agentID, day string) (int, error)
	MarkBreakNotified(ctx context.Context, tenantID, agentID, day string) (bool, error)
}

type redisStore struct {
	client       *redis.Client
	heartbeatTTL time.Duration
	ledgerTTL    time.Duration
}

// NewRedisStore builds the Redis-backed presence store.
func NewRedisStore(client *redis.Client, heartbeatTTL, ledgerTTL time.Duration) Store {
	if heartbeatTTL <= 0 {
		heartbeatTTL = 90 * time.Second
	}
	if ledgerTTL <= 0 {
		ledgerTTL = 48 * time.Hour
	}
	return &redisStore{client: client, heartbeatTTL: heartbeatTTL, ledgerTTL: ledgerTTL}
}

func presenceKey(tenantID, agentID string) string {
	return fmt.Sprintf("presence:%s:%s", tenantID, agentID)
}

func breakKey(tenantID, agentID, day string) string {
	return fmt.Sprintf("break:%s:%s:%s", tenantID, agentID, day)
}

func (s *redisStore) SetPresence(ctx context.Context, tenantID, agentID string, rec Record) error {
	key := presenceKey(tenantID, agentID)
	fields := map[string]any{
		"state": string(rec.State),
		"since": rec.Since.UTC().Format(time.RFC3339Nano),
	}
	if rec.BreakStartedAt != nil {
		fields["break_started_at"] = rec.BreakStartedAt.UTC().Format(time.RFC3339Nano)
	} else {
		fields["break_started_at"] = ""
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.heartbeatTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) GetPresence(ctx context.Context, tenantID, agentID string) (*Record, error) {
	values, err := s.client.HGetAll(ctx, presenceKey(tenantID, agentID)).Result()
	if err != nil {
		return nil, err
	}
	return recordFromHash(values)
}

func (s *redisStore) ListPresence(ctx context.Context, tenantID string, agentIDs []string) (map[string]*Record, error) {
	result := make(map[string]*Record, len(agentIDs))
	if len(agentIDs) == 0 {
		return result, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(agentIDs))
	pipe := s.client.Pipeline()
	for i, id := range agentIDs {
		cmds[i] = pipe.HGetAll(ctx, presenceKey(tenantID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, id := range agentIDs {
		rec, err := recordFromHash(cmds[i].Val())
		if err != nil {
			return nil, err
		}
		result[id] = rec
	}
	return result, nil
}

func recordFromHash(values map[string]string) (*Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	rec := &Record{State: domain.AgentState(values["state"])}
	if raw := values["since"]; raw != "" {
		since, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("presence: parse since: %w", err)
		}
		rec.Since = since
	}
	if raw := values["break_started_at"]; raw != "" {
		startedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("presence: parse break_started_at: %w", err)
		}
		rec.BreakStartedAt = &startedAt
	}
	return rec, nil
}

func (s *redisStore) TouchPresence(ctx context.Context, tenantID, agentID string) (bool, error) {
	ok, err := s.client.Expire(ctx, presenceKey(tenantID, agentID), s.heartbeatTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *redisStore) ClearPresence(ctx context.Context, tenantID, agentID string) error {
	return s.client.Del(ctx, presenceKey(tenantID, agentID)).Err()
}

func (s *redisStore) AddBreakUsage(ctx context.Context, tenantID, agentID, day string, seconds int) (int, error) {
	key := breakKey(tenantID, agentID, day)

	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, key, int64(seconds))
	pipe.Expire(ctx, key, s.ledgerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *redisStore) GetBreakUsage(ctx context.Context, tenantID, agentID, day string) (int, error) {
	used, err := s.client.Get(ctx, breakKey(tenantID, agentID, day)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (s *redisStore) MarkBreakNotified(ctx context.Context, tenantID, agentID, day string) (bool, error) {
	key := breakKey(tenantID, agentID, day) + ":notified"
	return s.client.SetNX(ctx, key, "1", s.ledgerTTL).Result()
}
