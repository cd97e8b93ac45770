package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

const (
	maxTagLength     = 40
	maxTagsPerThread = 16
	maxBodyLength    = 16000
	maxAttachments   = 10
)

// ConversationService coordinates support-thread workflows.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.ConversationMessageRepository
	customers     repository.CustomerRepository
	agents        repository.AgentRepository
	tenants       repository.TenantRepository
	dispatcher    events.Dispatcher
}

// ConversationDependencies bundles repositories for the conversation service.
type ConversationDependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.ConversationMessageRepository
	CustomerRepo     repository.CustomerRepository
	AgentRepo        repository.AgentRepository
	TenantRepo       repository.TenantRepository
	Dispatcher       events.Dispatcher
}

// ConversationCreateInput describes agent-side conversation creation.
type ConversationCreateInput struct {
	CustomerID   string
	Channel      domain.ConversationChannel
	Subject      string
	Priority     domain.ConversationPriority
	Tags         []string
	FirstMessage string
}

// ConversationListFilter mirrors the list endpoint query. Assignee accepts
// "me", "unassigned", or an agent id.
type ConversationListFilter struct {
	Statuses    []domain.ConversationStatus
	Priorities  []domain.ConversationPriority
	Channels    []domain.ConversationChannel
	Assignee    string
	CustomerID  *string
	Tag         *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// MessageInput describes an agent-authored thread entry.
type MessageInput struct {
	Kind        domain.MessageKind
	Body        string
	Attachments []domain.AttachmentRef
}

// IngestInput is a channel-connector message delivery.
type IngestInput struct {
	TenantID            string
	TenantSlug          string
	Reference           string
	CustomerName        string
	CustomerEmail       string
	CustomerExternalRef string
	Channel             domain.ConversationChannel
	Subject             string
	Body                string
}

// TagUpdateInput adds and removes conversation tags in one call.
type TagUpdateInput struct {
	Add    []string
	Remove []string
}

// NewConversationService constructs the service.
func NewConversationService(deps ConversationDependencies) *ConversationService {
	return &ConversationService{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		customers:     deps.CustomerRepo,
		agents:        deps.AgentRepo,
		tenants:       deps.TenantRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// Create opens a conversation on behalf of a customer.
func (s *ConversationService) Create(ctx context.Context, principal *auth.Principal, input ConversationCreateInput) (*domain.Conversation, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("customer", nil)
	}
	if !validChannel(input.Channel) {
		return nil, apperrors.NewValidationError("unknown channel", map[string]any{"channel": input.Channel})
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" || len(subject) > 200 {
		return nil, apperrors.NewValidationError("subject must be 1..200 characters", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	conv := &domain.Conversation{
		TenantID:      principal.Tenant.ID,
		Reference:     generateReference(),
		CustomerID:    customer.ID,
		Channel:       input.Channel,
		Subject:       subject,
		Status:        domain.ConversationStatusOpen,
		Priority:      priority,
		Tags:          tags,
		LastMessageAt: time.Now(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventConversationCreated,
		TenantID: conv.TenantID,
		Actor:    agentActor(principal.Agent.ID),
		Payload: events.ConversationCreatedPayload{
			ConversationID: conv.ID,
			Reference:      conv.Reference,
			CustomerID:     conv.CustomerID,
			Channel:        conv.Channel,
			Priority:       conv.Priority,
			Subject:        conv.Subject,
		},
	})

	if body := strings.TrimSpace(input.FirstMessage); body != "" {
		if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeAgent, &principal.Agent.ID, domain.MessageKindReply, body, nil, agentActor(principal.Agent.ID)); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// Get returns a conversation with its thread.
func (s *ConversationService) Get(ctx context.Context, principal *auth.Principal, id string) (*domain.Conversation, []domain.ConversationMessage, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ID, 200, 0)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

// List returns conversations matching the filter plus per-status totals for
// the panel's tab badges.
func (s *ConversationService) List(ctx context.Context, principal *auth.Principal, filter ConversationListFilter) ([]domain.Conversation, map[domain.ConversationStatus]int64, error) {
	if principal.Tenant == nil {
		return nil, nil, apperrors.NewForbidden("tenant context required")
	}

	repoFilter := repository.ConversationFilter{
		TenantID:    principal.Tenant.ID,
		CustomerID:  filter.CustomerID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Channels:    filter.Channels,
		Tag:         filter.Tag,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       normalizeLimit(filter.Limit),
		Offset:      filter.Offset,
	}

	var countScope *string
	switch filter.Assignee {
	case "":
	case "me":
		agentID := principal.Agent.ID
		repoFilter.AssigneeID = &agentID
		countScope = &agentID
	case "unassigned":
		repoFilter.Unassigned = true
	default:
		assignee := filter.Assignee
		repoFilter.AssigneeID = &assignee
		countScope = &assignee
	}

	conversations, err := s.conversations.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.conversations.StatusCounts(ctx, principal.Tenant.ID, countScope)
	if err != nil {
		return nil, nil, err
	}
	return conversations, counts, nil
}

// AddMessage appends a reply or internal note authored by the caller.
func (s *ConversationService) AddMessage(ctx context.Context, principal *auth.Principal, conversationID string, input MessageInput) (*domain.ConversationMessage, error) {
	conv, err := s.loadScoped(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == domain.ConversationStatusClosed {
		return nil, apperrors.NewConflict("conversation is closed", nil)
	}
	if input.Kind != domain.MessageKindReply && input.Kind != domain.MessageKindNote {
		return nil, apperrors.NewValidationError("kind must be REPLY or NOTE", nil)
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || len(body) > maxBodyLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("body must be 1..%d characters", maxBodyLength), nil)
	}
	if len(input.Attachments) > maxAttachments {
		return nil, apperrors.NewValidationError("too many attachments", map[string]any{"max": maxAttachments})
	}
	for _, att := range input.Attachments {
		if att.StorageKey == "" || att.FileName == "" {
			return nil, apperrors.NewValidationError("attachment storage_key and file_name are required", nil)
		}
	}

	return s.appendMessage(ctx, conv, domain.AuthorTypeAgent, &principal.Agent.ID, input.Kind, body, input.Attachments, agentActor(principal.Agent.ID))
}

// IngestMessage accepts a customer message from a channel connector. Unknown
// references open a fresh conversation; replies to resolved or closed threads
// reopen them.
func (s *ConversationService) IngestMessage(ctx context.Context, input IngestInput) (*domain.Conversation, *domain.ConversationMessage, error) {
	tenant, err := s.resolveTenant(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	if tenant.Status != domain.TenantStatusActive {
		return nil, nil, apperrors.NewForbidden("tenant is not active")
	}
	if !validChannel(input.Channel) {
		return nil, nil, apperrors.NewValidationError("unknown channel", map[string]any{"channel": input.Channel})
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || len(body) > maxBodyLength {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("body must be 1..%d characters", maxBodyLength), nil)
	}

	customer, err := s.findOrCreateCustomer(ctx, tenant.ID, input)
	if err != nil {
		return nil, nil, err
	}

	var conv *domain.Conversation
	if ref := strings.TrimSpace(input.Reference); ref != "" {
		conv, err = s.conversations.GetByReference(ctx, tenant.ID, ref)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, err
		}
	}

	if conv == nil {
		subject := strings.TrimSpace(input.Subject)
		if subject == "" {
			subject = "Conversation via " + strings.ToLower(string(input.Channel))
		}
		conv = &domain.Conversation{
			TenantID:      tenant.ID,
			Reference:     generateReference(),
			CustomerID:    customer.ID,
			Channel:       input.Channel,
			Subject:       subject,
			Status:        domain.ConversationStatusOpen,
			Priority:      domain.PriorityNormal,
			LastMessageAt: time.Now(),
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventConversationCreated,
			TenantID: conv.TenantID,
			Actor:    customerActor(),
			Payload: events.ConversationCreatedPayload{
				ConversationID: conv.ID,
				Reference:      conv.Reference,
				CustomerID:     conv.CustomerID,
				Channel:        conv.Channel,
				Priority:       conv.Priority,
				Subject:        conv.Subject,
			},
		})
	} else if conv.Status == domain.ConversationStatusResolved || conv.Status == domain.ConversationStatusClosed {
		oldStatus := conv.Status
		conv.Status = domain.ConversationStatusOpen
		conv.ClosedAt = nil
		if err := s.conversations.Update(ctx, conv); err != nil {
			return nil, nil, err
		}
		if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeSystem, nil, domain.MessageKindEvent, "conversation reopened by customer reply", nil, customerActor()); err != nil {
			return nil, nil, err
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventConversationStatusChanged,
			TenantID: conv.TenantID,
			Actor:    customerActor(),
			Payload: events.ConversationStatusChangedPayload{
				ConversationID: conv.ID,
				Reference:      conv.Reference,
				OldStatus:      oldStatus,
				NewStatus:      conv.Status,
			},
		})
	}

	authorID := customer.ID
	msg, err := s.appendMessage(ctx, conv, domain.AuthorTypeCustomer, &authorID, domain.MessageKindReply, body, nil, customerActor())
	if err != nil {
		return nil, nil, err
	}
	if err := s.customers.TouchLastSeen(ctx, customer.ID); err != nil {
		return nil, nil, err
	}
	return conv, msg, nil
}

// ChangeStatus moves a conversation along the lifecycle table.
func (s *ConversationService) ChangeStatus(ctx context.Context, principal *auth.Principal, id string, newStatus domain.ConversationStatus) (*domain.Conversation, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !validConversationStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	if !isValidTransition(conv.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": conv.Status,
			"to":   newStatus,
		})
	}

	oldStatus := conv.Status
	conv.Status = newStatus
	switch newStatus {
	case domain.ConversationStatusResolved, domain.ConversationStatusClosed:
		if conv.ClosedAt == nil {
			now := time.Now()
			conv.ClosedAt = &now
		}
	default:
		conv.ClosedAt = nil
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}

	if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeSystem, nil, domain.MessageKindEvent,
		fmt.Sprintf("status changed from %s to %s", oldStatus, newStatus), nil, agentActor(principal.Agent.ID)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventConversationStatusChanged,
		TenantID: conv.TenantID,
		Actor:    agentActor(principal.Agent.ID),
		Payload: events.ConversationStatusChangedPayload{
			ConversationID: conv.ID,
			Reference:      conv.Reference,
			OldStatus:      oldStatus,
			NewStatus:      newStatus,
		},
	})
	return conv, nil
}

// ChangePriority updates the urgency level.
func (s *ConversationService) ChangePriority(ctx context.Context, principal *auth.Principal, id string, priority domain.ConversationPriority) (*domain.Conversation, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	if conv.Priority == priority {
		return conv, nil
	}
	conv.Priority = priority
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeSystem, nil, domain.MessageKindEvent,
		"priority changed to "+string(priority), nil, agentActor(principal.Agent.ID)); err != nil {
		return nil, err
	}
	return conv, nil
}

// Assign routes a conversation to an agent. A nil target assigns to the
// caller. Reassigning someone else's conversation takes ADMIN.
func (s *ConversationService) Assign(ctx context.Context, principal *auth.Principal, id string, targetID *string) (*domain.Conversation, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	target := principal.Agent.ID
	if targetID != nil {
		target = *targetID
	}
	if conv.AssigneeID != nil && *conv.AssigneeID == target {
		return conv, nil
	}
	if conv.AssigneeID != nil && *conv.AssigneeID != principal.Agent.ID &&
		principal.Agent.Role != domain.RoleAdmin && !principal.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("conversation is assigned to another agent")
	}

	assignee, err := s.agents.GetByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if !assignee.InTenant(conv.TenantID) {
		return nil, apperrors.NewNotFound("agent", nil)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("agent is not active", nil)
	}

	previous := conv.AssigneeID
	conv.AssigneeID = &assignee.ID
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}

	if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeSystem, nil, domain.MessageKindEvent,
		"assigned to "+assignee.Name, nil, agentActor(principal.Agent.ID)); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventConversationAssigned,
		TenantID: conv.TenantID,
		Actor:    agentActor(principal.Agent.ID),
		Payload: events.ConversationAssignedPayload{
			ConversationID: conv.ID,
			Reference:      conv.Reference,
			AssigneeID:     conv.AssigneeID,
			PreviousID:     previous,
		},
	})
	return conv, nil
}

// Unassign clears the assignee. Takes ADMIN or the current assignee.
func (s *ConversationService) Unassign(ctx context.Context, principal *auth.Principal, id string) (*domain.Conversation, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if conv.AssigneeID == nil {
		return conv, nil
	}
	if *conv.AssigneeID != principal.Agent.ID &&
		principal.Agent.Role != domain.RoleAdmin && !principal.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("conversation is assigned to another agent")
	}

	conv.AssigneeID = nil
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	if _, err := s.appendMessage(ctx, conv, domain.AuthorTypeSystem, nil, domain.MessageKindEvent,
		"unassigned", nil, agentActor(principal.Agent.ID)); err != nil {
		return nil, err
	}
	return conv, nil
}

// UpdateTags applies tag additions and removals as a set operation.
func (s *ConversationService) UpdateTags(ctx context.Context, principal *auth.Principal, id string, input TagUpdateInput) (*domain.Conversation, error) {
	conv, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(conv.Tags))
	for _, tag := range conv.Tags {
		current[tag] = true
	}
	for _, tag := range input.Remove {
		delete(current, strings.TrimSpace(tag))
	}
	for _, tag := range input.Add {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > maxTagLength {
			return nil, apperrors.NewValidationError(fmt.Sprintf("tags must be 1..%d characters", maxTagLength), nil)
		}
		current[tag] = true
	}
	if len(current) > maxTagsPerThread {
		return nil, apperrors.NewValidationError("too many tags", map[string]any{"max": maxTagsPerThread})
	}

	tags := make([]string, 0, len(current))
	for tag := range current {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	conv.Tags = tags
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) appendMessage(ctx context.Context, conv *domain.Conversation, authorType domain.MessageAuthorType, authorID *string, kind domain.MessageKind, body string, attachments []domain.AttachmentRef, actor events.Actor) (*domain.ConversationMessage, error) {
	msg := &domain.ConversationMessage{
		ConversationID: conv.ID,
		AuthorType:     authorType,
		AuthorID:       authorID,
		Kind:           kind,
		Body:           body,
		Attachments:    attachments,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if kind == domain.MessageKindReply {
		conv.LastMessageAt = msg.CreatedAt
		if err := s.conversations.Update(ctx, conv); err != nil {
			return nil, err
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventConversationMessageAdded,
		TenantID: conv.TenantID,
		Actor:    actor,
		Payload: events.ConversationMessageAddedPayload{
			ConversationID: conv.ID,
			Reference:      conv.Reference,
			MessageID:      msg.ID,
			AuthorType:     msg.AuthorType,
			AuthorID:       msg.AuthorID,
			Kind:           msg.Kind,
			BodyPreview:    stringPreview(msg.Body, 120),
		},
	})
	return msg, nil
}

func (s *ConversationService) loadScoped(ctx context.Context, principal *auth.Principal, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsSuperAdmin() {
		return conv, nil
	}
	if principal.Tenant == nil || conv.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("conversation", nil)
	}
	return conv, nil
}

func (s *ConversationService) resolveTenant(ctx context.Context, input IngestInput) (*domain.Tenant, error) {
	if input.TenantID != "" {
		return s.tenants.GetByID(ctx, input.TenantID)
	}
	if input.TenantSlug != "" {
		return s.tenants.GetBySlug(ctx, input.TenantSlug)
	}
	return nil, apperrors.NewValidationError("tenant_id or tenant_slug is required", nil)
}

func (s *ConversationService) findOrCreateCustomer(ctx context.Context, tenantID string, input IngestInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(input.CustomerEmail))
	externalRef := strings.TrimSpace(input.CustomerExternalRef)
	if email == "" && externalRef == "" {
		return nil, apperrors.NewValidationError("customer_email or customer_external_ref is required", nil)
	}

	if externalRef != "" {
		customer, err := s.customers.GetByExternalRef(ctx, tenantID, externalRef)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	if email != "" {
		customer, err := s.customers.GetByEmail(ctx, tenantID, email)
		if err == nil {
			return customer, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		if email != "" {
			name = email
		} else {
			name = externalRef
		}
	}
	customer := &domain.Customer{
		TenantID:    tenantID,
		Name:        name,
		Email:       email,
		ExternalRef: externalRef,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *ConversationService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

var conversationTransitions = map[domain.ConversationStatus][]domain.ConversationStatus{
	domain.ConversationStatusOpen:     {domain.ConversationStatusPending, domain.ConversationStatusResolved},
	domain.ConversationStatusPending:  {domain.ConversationStatusOpen, domain.ConversationStatusResolved},
	domain.ConversationStatusResolved: {domain.ConversationStatusClosed, domain.ConversationStatusOpen},
	domain.ConversationStatusClosed:   {domain.ConversationStatusOpen},
}

func isValidTransition(current, next domain.ConversationStatus) bool {
	for _, candidate := range conversationTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func generateReference() string {
	return "CNV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validChannel(c domain.ConversationChannel) bool {
	switch c {
	case domain.ChannelEmail, domain.ChannelChat, domain.ChannelWidget, domain.ChannelPhone:
		return true
	}
	return false
}

func validPriority(p domain.ConversationPriority) bool {
	switch p {
	case domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh, domain.PriorityUrgent:
		return true
	}
	return false
}

func validConversationStatus(s domain.ConversationStatus) bool {
	switch s {
	case domain.ConversationStatusOpen, domain.ConversationStatusPending,
		domain.ConversationStatusResolved, domain.ConversationStatusClosed:
		return true
	}
	return false
}

func normalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > maxTagLength {
			return nil, apperrors.NewValidationError(fmt.Sprintf("tags must be 1..%d characters", maxTagLength), nil)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if len(tags) > maxTagsPerThread {
		return nil, apperrors.NewValidationError("too many tags", map[string]any{"max": maxTagsPerThread})
	}
	return tags, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func agentActor(agentID string) events.Actor {
	return events.Actor{Type: events.ActorAgent, AgentID: &agentID}
}

func customerActor() events.Actor {
	return events.Actor{Type: events.ActorCustomer}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
