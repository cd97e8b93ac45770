package service

import (
	"context"
	"time"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/presence"
	"github.com/asistanapp/panel-service/internal/realtime"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// PresenceService tracks agent availability and the daily break ledger.
type PresenceService struct {
	store               presence.Store
	agents              repository.AgentRepository
	dispatcher          events.Dispatcher
	hub                 Broadcaster
	defaultBreakSeconds int
}

// PresenceDependencies bundles collaborators for the presence service.
type PresenceDependencies struct {
	Store      presence.Store
	AgentRepo  repository.AgentRepository
	Dispatcher events.Dispatcher
	Hub        Broadcaster
}

// NewPresenceService constructs the service.
func NewPresenceService(cfg config.Config, deps PresenceDependencies) *PresenceService {
	return &PresenceService{
		store:               deps.Store,
		agents:              deps.AgentRepo,
		dispatcher:          deps.Dispatcher,
		hub:                 deps.Hub,
		defaultBreakSeconds: cfg.Presence.DefaultBreakSeconds,
	}
}

// SetState moves the caller between ONLINE, AWAY, and OFFLINE. Breaks go
// through StartBreak so the ledger stays consistent; leaving BREAK through
// SetState settles the ledger first.
func (s *PresenceService) SetState(ctx context.Context, principal *auth.Principal, state domain.AgentState) (*domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	if !domain.ValidAgentState(state) {
		return nil, apperrors.NewValidationError("unknown presence state", map[string]any{"state": state})
	}
	if state == domain.StateBreak {
		return nil, apperrors.NewValidationError("use the break endpoint to start a break", nil)
	}

	tenantID := principal.Tenant.ID
	agentID := principal.Agent.ID
	current, err := s.store.GetPresence(ctx, tenantID, agentID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.State == domain.StateBreak {
		if _, err := s.settleBreak(ctx, principal, current); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if state == domain.StateOffline {
		if err := s.store.ClearPresence(ctx, tenantID, agentID); err != nil {
			return nil, err
		}
		s.broadcastChange(tenantID, agentID, domain.StateOffline, now)
		return s.snapshot(ctx, principal, nil)
	}

	rec := presence.Record{State: state, Since: now}
	if err := s.store.SetPresence(ctx, tenantID, agentID, rec); err != nil {
		return nil, err
	}
	s.broadcastChange(tenantID, agentID, state, now)
	return s.snapshot(ctx, principal, &rec)
}

// StartBreak puts the caller on break. Starting while already on break is a
// no-op; an exhausted daily allowance is rejected.
func (s *PresenceService) StartBreak(ctx context.Context, principal *auth.Principal) (*domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	tenantID := principal.Tenant.ID
	agentID := principal.Agent.ID

	current, err := s.store.GetPresence(ctx, tenantID, agentID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.State == domain.StateBreak {
		return s.snapshot(ctx, principal, current)
	}

	allowance := s.allowanceFor(principal.Tenant)
	used, err := s.store.GetBreakUsage(ctx, tenantID, agentID, utcDay(time.Now()))
	if err != nil {
		return nil, err
	}
	if used >= allowance {
		return nil, apperrors.NewConflict("daily break allowance exhausted", map[string]any{
			"used_seconds":      used,
			"allowance_seconds": allowance,
		})
	}

	now := time.Now().UTC()
	rec := presence.Record{State: domain.StateBreak, Since: now, BreakStartedAt: &now}
	if err := s.store.SetPresence(ctx, tenantID, agentID, rec); err != nil {
		return nil, err
	}
	s.broadcastChange(tenantID, agentID, domain.StateBreak, now)
	return s.snapshot(ctx, principal, &rec)
}

// EndBreak settles the ledger and returns the caller to ONLINE.
func (s *PresenceService) EndBreak(ctx context.Context, principal *auth.Principal) (*domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	tenantID := principal.Tenant.ID
	agentID := principal.Agent.ID

	current, err := s.store.GetPresence(ctx, tenantID, agentID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.State != domain.StateBreak {
		return nil, apperrors.NewConflict("agent is not on break", nil)
	}
	if _, err := s.settleBreak(ctx, principal, current); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := presence.Record{State: domain.StateOnline, Since: now}
	if err := s.store.SetPresence(ctx, tenantID, agentID, rec); err != nil {
		return nil, err
	}
	s.broadcastChange(tenantID, agentID, domain.StateOnline, now)
	return s.snapshot(ctx, principal, &rec)
}

// Heartbeat extends the presence TTL. An expired record is re-created as
// ONLINE so a reconnecting panel does not show its own agent offline.
func (s *PresenceService) Heartbeat(ctx context.Context, principal *auth.Principal) (*domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	tenantID := principal.Tenant.ID
	agentID := principal.Agent.ID

	alive, err := s.store.TouchPresence(ctx, tenantID, agentID)
	if err != nil {
		return nil, err
	}
	if !alive {
		now := time.Now().UTC()
		rec := presence.Record{State: domain.StateOnline, Since: now}
		if err := s.store.SetPresence(ctx, tenantID, agentID, rec); err != nil {
			return nil, err
		}
		s.broadcastChange(tenantID, agentID, domain.StateOnline, now)
		return s.snapshot(ctx, principal, &rec)
	}
	return s.Snapshot(ctx, principal)
}

// Snapshot returns the caller's presence including today's break ledger.
func (s *PresenceService) Snapshot(ctx context.Context, principal *auth.Principal) (*domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	rec, err := s.store.GetPresence(ctx, principal.Tenant.ID, principal.Agent.ID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, principal, rec)
}

// TeamSnapshot returns presence for every active agent in the tenant.
func (s *PresenceService) TeamSnapshot(ctx context.Context, principal *auth.Principal) ([]domain.AgentPresence, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	tenantID := principal.Tenant.ID

	roster, err := s.agents.ListWithFilter(ctx, repository.AgentFilter{
		TenantID:   &tenantID,
		ActiveOnly: true,
		Limit:      500,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(roster))
	for _, agent := range roster {
		ids = append(ids, agent.ID)
	}
	records, err := s.store.ListPresence(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	allowance := s.allowanceFor(principal.Tenant)
	day := utcDay(time.Now())
	result := make([]domain.AgentPresence, 0, len(roster))
	for _, agent := range roster {
		used, err := s.store.GetBreakUsage(ctx, tenantID, agent.ID, day)
		if err != nil {
			return nil, err
		}
		entry := domain.AgentPresence{
			AgentID:               agent.ID,
			State:                 domain.StateOffline,
			BreakUsedSeconds:      used,
			BreakAllowanceSeconds: allowance,
		}
		if rec := records[agent.ID]; rec != nil {
			entry.State = rec.State
			entry.Since = rec.Since
			entry.BreakStartedAt = rec.BreakStartedAt
		}
		result = append(result, entry)
	}
	return result, nil
}

// settleBreak accrues elapsed break time into the daily ledger, capped at
// the allowance, and publishes the limit event the first time the cap is
// reached on a given day.
func (s *PresenceService) settleBreak(ctx context.Context, principal *auth.Principal, current *presence.Record) (int, error) {
	tenantID := principal.Tenant.ID
	agentID := principal.Agent.ID
	day := utcDay(time.Now())
	allowance := s.allowanceFor(principal.Tenant)

	used, err := s.store.GetBreakUsage(ctx, tenantID, agentID, day)
	if err != nil {
		return 0, err
	}

	elapsed := 0
	if current.BreakStartedAt != nil {
		elapsed = int(time.Since(*current.BreakStartedAt).Seconds())
	}
	remaining := allowance - used
	if remaining < 0 {
		remaining = 0
	}
	delta := elapsed
	if delta > remaining {
		delta = remaining
	}
	if delta < 0 {
		delta = 0
	}

	total := used
	if delta > 0 {
		total, err = s.store.AddBreakUsage(ctx, tenantID, agentID, day, delta)
		if err != nil {
			return 0, err
		}
	}

	if total >= allowance {
		first, err := s.store.MarkBreakNotified(ctx, tenantID, agentID, day)
		if err != nil {
			return 0, err
		}
		if first {
			publishEvent(ctx, s.dispatcher, events.Event{
				Type:     events.EventBreakLimitReached,
				TenantID: tenantID,
				Actor:    events.Actor{Type: events.ActorSystem},
				Payload: events.BreakLimitReachedPayload{
					AgentID:          agentID,
					UsedSeconds:      total,
					AllowanceSeconds: allowance,
				},
			})
		}
	}
	return total, nil
}

func (s *PresenceService) snapshot(ctx context.Context, principal *auth.Principal, rec *presence.Record) (*domain.AgentPresence, error) {
	used, err := s.store.GetBreakUsage(ctx, principal.Tenant.ID, principal.Agent.ID, utcDay(time.Now()))
	if err != nil {
		return nil, err
	}
	entry := &domain.AgentPresence{
		AgentID:               principal.Agent.ID,
		State:                 domain.StateOffline,
		BreakUsedSeconds:      used,
		BreakAllowanceSeconds: s.allowanceFor(principal.Tenant),
	}
	if rec != nil {
		entry.State = rec.State
		entry.Since = rec.Since
		entry.BreakStartedAt = rec.BreakStartedAt
	}
	return entry, nil
}

func (s *PresenceService) allowanceFor(tenant *domain.Tenant) int {
	if tenant.BreakAllowanceSeconds > 0 {
		return tenant.BreakAllowanceSeconds
	}
	return s.defaultBreakSeconds
}

func (s *PresenceService) broadcastChange(tenantID, agentID string, state domain.AgentState, since time.Time) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToTenant(tenantID, realtime.Frame{
		Type: realtime.FramePresenceChanged,
		Data: map[string]any{
			"agent_id": agentID,
			"state":    state,
			"since":    since,
		},
	})
}

func utcDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
