package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/realtime"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

var (
	channelNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,59}$`)
	mentionPattern     = regexp.MustCompile(`@([a-zA-Z0-9._-]+)`)
)

// TeamChatService runs staff-only channels inside a tenant. Channels are
// open to every agent; the member table records who participates, filled in
// as agents create, post to, or subscribe to a channel.
type TeamChatService struct {
	chats      repository.TeamChatRepository
	agents     repository.AgentRepository
	tenants    repository.TenantRepository
	dispatcher events.Dispatcher
	hub        Broadcaster
}

// TeamChatDependencies bundles collaborators for the team chat service.
type TeamChatDependencies struct {
	TeamChatRepo repository.TeamChatRepository
	AgentRepo    repository.AgentRepository
	TenantRepo   repository.TenantRepository
	Dispatcher   events.Dispatcher
	Hub          Broadcaster
}

// ChannelCreateInput describes channel creation payload.
type ChannelCreateInput struct {
	Name  string
	Topic string
}

// NewTeamChatService constructs the service.
func NewTeamChatService(deps TeamChatDependencies) *TeamChatService {
	return &TeamChatService{
		chats:      deps.TeamChatRepo,
		agents:     deps.AgentRepo,
		tenants:    deps.TenantRepo,
		dispatcher: deps.Dispatcher,
		hub:        deps.Hub,
	}
}

// CreateChannel opens a channel. Takes ADMIN; the creator joins immediately.
func (s *TeamChatService) CreateChannel(ctx context.Context, principal *auth.Principal, input ChannelCreateInput) (*domain.ChatChannel, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	if principal.Agent.Role != domain.RoleAdmin && !principal.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("only admins can create channels")
	}
	name := strings.TrimSpace(strings.ToLower(input.Name))
	if !channelNamePattern.MatchString(name) {
		return nil, apperrors.NewValidationError("name must be 1..60 lowercase letters, digits, - or _", nil)
	}
	topic := strings.TrimSpace(input.Topic)
	if len(topic) > 200 {
		return nil, apperrors.NewValidationError("topic must be at most 200 characters", nil)
	}
	if _, err := s.chats.GetChannelByName(ctx, principal.Tenant.ID, name); err == nil {
		return nil, apperrors.NewConflict("channel name is already in use", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	channel := &domain.ChatChannel{
		TenantID:  principal.Tenant.ID,
		Name:      name,
		Topic:     topic,
		CreatedBy: principal.Agent.ID,
	}
	if err := s.chats.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}
	if err := s.chats.AddMember(ctx, channel.ID, principal.Agent.ID); err != nil {
		return nil, err
	}
	return channel, nil
}

// ListChannels returns every channel in the tenant.
func (s *TeamChatService) ListChannels(ctx context.Context, principal *auth.Principal) ([]domain.ChatChannel, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	return s.chats.ListChannels(ctx, principal.Tenant.ID)
}

// DeleteChannel removes a channel and its history. Takes ADMIN.
func (s *TeamChatService) DeleteChannel(ctx context.Context, principal *auth.Principal, id string) error {
	channel, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return err
	}
	if principal.Agent.Role != domain.RoleAdmin && !principal.IsSuperAdmin() {
		return apperrors.NewForbidden("only admins can delete channels")
	}
	return s.chats.DeleteChannel(ctx, channel.ID)
}

// History pages backwards through a channel using a before-cursor and
// returns the page oldest-first, ready for rendering.
func (s *TeamChatService) History(ctx context.Context, principal *auth.Principal, channelID string, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	channel, err := s.loadScoped(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chats.ListMessages(ctx, channel.ID, before, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// PostMessage stores a message, joins the sender to the channel, fans it out
// to subscribed sockets, and raises a mention event per @-mentioned agent.
func (s *TeamChatService) PostMessage(ctx context.Context, principal *auth.Principal, channelID, body string) (*domain.ChatMessage, error) {
	channel, err := s.loadScoped(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > 4000 {
		return nil, apperrors.NewValidationError("body must be 1..4000 characters", nil)
	}
	if err := s.chats.AddMember(ctx, channel.ID, principal.Agent.ID); err != nil {
		return nil, err
	}

	mentions, err := s.resolveMentions(ctx, channel.TenantID, body)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ChannelID: channel.ID,
		TenantID:  channel.TenantID,
		SenderID:  principal.Agent.ID,
		Body:      body,
		Mentions:  mentions,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToChannel(channel.TenantID, channel.ID, msg.SenderID, realtime.Frame{
			Type: realtime.FrameChatMessage,
			Data: map[string]any{
				"channel_id": channel.ID,
				"message": map[string]any{
					"id":         msg.ID,
					"sender_id":  msg.SenderID,
					"body":       msg.Body,
					"mentions":   msg.Mentions,
					"created_at": msg.CreatedAt,
				},
			},
		})
	}

	for _, mentionedID := range mentions {
		if mentionedID == msg.SenderID {
			continue
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:     events.EventChatMention,
			TenantID: channel.TenantID,
			Actor:    agentActor(msg.SenderID),
			Payload: events.ChatMentionPayload{
				ChannelID:   channel.ID,
				ChannelName: channel.Name,
				MessageID:   msg.ID,
				SenderID:    msg.SenderID,
				MentionedID: mentionedID,
				BodyPreview: stringPreview(msg.Body, 120),
			},
		})
	}
	return msg, nil
}

// Members returns the agents participating in a channel.
func (s *TeamChatService) Members(ctx context.Context, principal *auth.Principal, channelID string) ([]domain.Agent, error) {
	channel, err := s.loadScoped(ctx, principal, channelID)
	if err != nil {
		return nil, err
	}
	ids, err := s.chats.ListMemberIDs(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	roster, err := s.agents.ListWithFilter(ctx, repository.AgentFilter{
		TenantID: &channel.TenantID,
		Limit:    500,
	})
	if err != nil {
		return nil, err
	}
	result := make([]domain.Agent, 0, len(ids))
	for _, agent := range roster {
		if member[agent.ID] {
			result = append(result, agent)
		}
	}
	return result, nil
}

// Leave drops the caller's membership.
func (s *TeamChatService) Leave(ctx context.Context, principal *auth.Principal, channelID string) error {
	channel, err := s.loadScoped(ctx, principal, channelID)
	if err != nil {
		return err
	}
	if err := s.chats.RemoveMember(ctx, channel.ID, principal.Agent.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewConflict("not a member of this channel", nil)
		}
		return err
	}
	return nil
}

// CanJoin authorizes a socket subscription: the channel must exist in the
// agent's tenant and the tenant must have team chat enabled. Joining records
// membership.
func (s *TeamChatService) CanJoin(ctx context.Context, tenantID, agentID, channelID string) (bool, error) {
	channel, err := s.chats.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if channel.TenantID != tenantID {
		return false, nil
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !tenant.ModuleEnabled(domain.ModuleTeamChat) {
		return false, nil
	}
	if err := s.chats.AddMember(ctx, channelID, agentID); err != nil {
		return false, err
	}
	return true, nil
}

// resolveMentions maps @name tokens to active agent IDs. Handles are the
// agent's display name lowercased with spaces as dots, and the local part of
// their email. Unresolved tokens are ignored.
func (s *TeamChatService) resolveMentions(ctx context.Context, tenantID, body string) ([]string, error) {
	tokens := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(tokens) == 0 {
		return nil, nil
	}

	roster, err := s.agents.ListWithFilter(ctx, repository.AgentFilter{
		TenantID:   &tenantID,
		ActiveOnly: true,
		Limit:      500,
	})
	if err != nil {
		return nil, err
	}
	handles := make(map[string]string, len(roster)*2)
	for _, agent := range roster {
		nameHandle := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(agent.Name), " ", "."))
		handles[nameHandle] = agent.ID
		if at := strings.Index(agent.Email, "@"); at > 0 {
			handles[strings.ToLower(agent.Email[:at])] = agent.ID
		}
	}

	seen := make(map[string]bool)
	var mentions []string
	for _, token := range tokens {
		id, ok := handles[strings.ToLower(token[1])]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		mentions = append(mentions, id)
	}
	return mentions, nil
}

func (s *TeamChatService) loadScoped(ctx context.Context, principal *auth.Principal, id string) (*domain.ChatChannel, error) {
	channel, err := s.chats.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsSuperAdmin() {
		return channel, nil
	}
	if principal.Tenant == nil || channel.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("channel", nil)
	}
	return channel, nil
}
