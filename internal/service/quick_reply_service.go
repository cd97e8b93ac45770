package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

var shortCodePattern = regexp.MustCompile(`^[a-z0-9_]{1,24}$`)

// QuickReplyService manages canned response templates.
type QuickReplyService struct {
	replies       repository.QuickReplyRepository
	conversations repository.ConversationRepository
	customers     repository.CustomerRepository
}

// QuickReplyDependencies bundles repositories for the quick reply service.
type QuickReplyDependencies struct {
	QuickReplyRepo   repository.QuickReplyRepository
	ConversationRepo repository.ConversationRepository
	CustomerRepo     repository.CustomerRepository
}

// QuickReplyCreateInput describes template creation payload.
type QuickReplyCreateInput struct {
	Title     string
	Body      string
	Category  string
	ShortCode string
	// Shared publishes the template to the whole tenant instead of the
	// creating agent.
	Shared bool
}

// QuickReplyUpdateInput carries optional template changes.
type QuickReplyUpdateInput struct {
	Title     *string
	Body      *string
	Category  *string
	ShortCode *string
	Active    *bool
}

// QuickReplyListFilter narrows template listing.
type QuickReplyListFilter struct {
	Category   *string
	SearchTerm *string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// NewQuickReplyService constructs the service.
func NewQuickReplyService(deps QuickReplyDependencies) *QuickReplyService {
	return &QuickReplyService{
		replies:       deps.QuickReplyRepo,
		conversations: deps.ConversationRepo,
		customers:     deps.CustomerRepo,
	}
}

// Create registers a template. Shared templates take ADMIN.
func (s *QuickReplyService) Create(ctx context.Context, principal *auth.Principal, input QuickReplyCreateInput) (*domain.QuickReply, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	if input.Shared && principal.Agent.Role != domain.RoleAdmin && !principal.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("only admins can create shared quick replies")
	}
	if err := validateQuickReplyFields(input.Title, input.Body, input.Category); err != nil {
		return nil, err
	}
	shortCode := strings.TrimSpace(input.ShortCode)
	if shortCode != "" {
		if !shortCodePattern.MatchString(shortCode) {
			return nil, apperrors.NewValidationError("short_code must match [a-z0-9_]{1,24}", nil)
		}
		if err := s.checkShortCodeFree(ctx, principal.Tenant.ID, shortCode, ""); err != nil {
			return nil, err
		}
	}

	reply := &domain.QuickReply{
		TenantID:  principal.Tenant.ID,
		Category:  strings.TrimSpace(input.Category),
		Title:     strings.TrimSpace(input.Title),
		ShortCode: shortCode,
		Body:      input.Body,
		Active:    true,
	}
	if !input.Shared {
		ownerID := principal.Agent.ID
		reply.OwnerID = &ownerID
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Get returns a template visible to the caller.
func (s *QuickReplyService) Get(ctx context.Context, principal *auth.Principal, id string) (*domain.QuickReply, error) {
	return s.loadVisible(ctx, principal, id)
}

// List returns templates the caller can use: shared ones plus their own.
// Admins see every template in the tenant.
func (s *QuickReplyService) List(ctx context.Context, principal *auth.Principal, filter QuickReplyListFilter) ([]domain.QuickReply, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	repoFilter := repository.QuickReplyFilter{
		TenantID:   principal.Tenant.ID,
		Category:   filter.Category,
		SearchTerm: filter.SearchTerm,
		ActiveOnly: filter.ActiveOnly,
		Limit:      normalizeLimit(filter.Limit),
		Offset:     filter.Offset,
	}
	if principal.Agent.Role == domain.RoleAgent {
		agentID := principal.Agent.ID
		repoFilter.VisibleTo = &agentID
	}
	return s.replies.ListWithFilter(ctx, repoFilter)
}

// Update edits a template. Shared templates take ADMIN; personal ones their
// owner or an admin.
func (s *QuickReplyService) Update(ctx context.Context, principal *auth.Principal, id string, input QuickReplyUpdateInput) (*domain.QuickReply, error) {
	reply, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkManage(principal, reply); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > 80 {
			return nil, apperrors.NewValidationError("title must be 1..80 characters", nil)
		}
		reply.Title = title
	}
	if input.Body != nil {
		if *input.Body == "" || len(*input.Body) > 4000 {
			return nil, apperrors.NewValidationError("body must be 1..4000 characters", nil)
		}
		reply.Body = *input.Body
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if len(category) > 40 {
			return nil, apperrors.NewValidationError("category must be at most 40 characters", nil)
		}
		reply.Category = category
	}
	if input.ShortCode != nil {
		shortCode := strings.TrimSpace(*input.ShortCode)
		if shortCode != "" {
			if !shortCodePattern.MatchString(shortCode) {
				return nil, apperrors.NewValidationError("short_code must match [a-z0-9_]{1,24}", nil)
			}
			if err := s.checkShortCodeFree(ctx, reply.TenantID, shortCode, reply.ID); err != nil {
				return nil, err
			}
		}
		reply.ShortCode = shortCode
	}
	if input.Active != nil {
		reply.Active = *input.Active
	}

	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Delete removes a template under the same permission rules as Update.
func (s *QuickReplyService) Delete(ctx context.Context, principal *auth.Principal, id string) error {
	reply, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.checkManage(principal, reply); err != nil {
		return err
	}
	return s.replies.Delete(ctx, reply.ID)
}

// Render expands a template against a conversation. Placeholders with no
// backing value become empty strings; unknown placeholders pass through.
func (s *QuickReplyService) Render(ctx context.Context, principal *auth.Principal, id, conversationID string) (string, error) {
	reply, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return "", err
	}
	if !reply.Active {
		return "", apperrors.NewConflict("quick reply is inactive", nil)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if conv.TenantID != reply.TenantID {
		return "", apperrors.NewNotFound("conversation", nil)
	}

	var customerName, customerEmail string
	customer, err := s.customers.GetByID(ctx, conv.CustomerID)
	if err == nil {
		customerName = customer.Name
		customerEmail = customer.Email
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var tenantName string
	if principal.Tenant != nil {
		tenantName = principal.Tenant.Name
	}
	replacer := strings.NewReplacer(
		"{{customer.name}}", customerName,
		"{{customer.email}}", customerEmail,
		"{{agent.name}}", principal.Agent.Name,
		"{{conversation.reference}}", conv.Reference,
		"{{tenant.name}}", tenantName,
	)
	return replacer.Replace(reply.Body), nil
}

// RecordUsage bumps the insert counter for ranking.
func (s *QuickReplyService) RecordUsage(ctx context.Context, principal *auth.Principal, id string) error {
	reply, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return err
	}
	return s.replies.IncrementUsage(ctx, reply.ID)
}

func (s *QuickReplyService) loadVisible(ctx context.Context, principal *auth.Principal, id string) (*domain.QuickReply, error) {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsSuperAdmin() {
		return reply, nil
	}
	if principal.Tenant == nil || reply.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("quick reply", nil)
	}
	if !reply.SharedWithTenant() && *reply.OwnerID != principal.Agent.ID &&
		principal.Agent.Role != domain.RoleAdmin {
		return nil, apperrors.NewNotFound("quick reply", nil)
	}
	return reply, nil
}

func (s *QuickReplyService) checkManage(principal *auth.Principal, reply *domain.QuickReply) error {
	if principal.IsSuperAdmin() || principal.Agent.Role == domain.RoleAdmin {
		return nil
	}
	if reply.SharedWithTenant() {
		return apperrors.NewForbidden("only admins can manage shared quick replies")
	}
	if *reply.OwnerID != principal.Agent.ID {
		return apperrors.NewForbidden("quick reply belongs to another agent")
	}
	return nil
}

func (s *QuickReplyService) checkShortCodeFree(ctx context.Context, tenantID, shortCode, selfID string) error {
	existing, err := s.replies.GetByShortCode(ctx, tenantID, shortCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return apperrors.NewConflict("short_code is already in use", map[string]any{"short_code": shortCode})
}

func validateQuickReplyFields(title, body, category string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 80 {
		return apperrors.NewValidationError("title must be 1..80 characters", nil)
	}
	if body == "" || len(body) > 4000 {
		return apperrors.NewValidationError("body must be 1..4000 characters", nil)
	}
	if len(strings.TrimSpace(category)) > 40 {
		return apperrors.NewValidationError("category must be at most 40 characters", nil)
	}
	return nil
}
