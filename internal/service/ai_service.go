package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/asistanapp/panel-service/internal/ai"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

const (
	maxAIMessageLength = 8000
	transcriptPageSize = 200
)

// Completer is the provider call surface of the assistant relay. Satisfied
// by *ai.Client.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (*ai.Completion, error)
}

// AIService relays agent-facing assistant sessions to the upstream provider.
type AIService struct {
	sessions      repository.AISessionRepository
	transcripts   ai.TranscriptStore
	conversations repository.ConversationRepository
	messages      repository.ConversationMessageRepository
	customers     repository.CustomerRepository
	client        Completer

	sendDelay      time.Duration
	maxHistory     int
	suggestHistory int

	gatesMu sync.Mutex
	gates   map[string]*sessionGate
}

// sessionGate serializes sends within one session. A newer send cancels the
// in-flight one and claims the next dispatch slot.
type sessionGate struct {
	mu           sync.Mutex
	seq          uint64
	cancel       context.CancelFunc
	lastDispatch time.Time
}

// AIDependencies bundles collaborators for the AI service.
type AIDependencies struct {
	SessionRepo      repository.AISessionRepository
	Transcripts      ai.TranscriptStore
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.ConversationMessageRepository
	CustomerRepo     repository.CustomerRepository
	Client           Completer
}

// AISessionCreateInput describes session creation payload.
type AISessionCreateInput struct {
	Title          string
	ConversationID *string
}

// NewAIService constructs the service.
func NewAIService(cfg config.Config, deps AIDependencies) *AIService {
	return &AIService{
		sessions:       deps.SessionRepo,
		transcripts:    deps.Transcripts,
		conversations:  deps.ConversationRepo,
		messages:       deps.MessageRepo,
		customers:      deps.CustomerRepo,
		client:         deps.Client,
		sendDelay:      cfg.AI.SendDelay(),
		maxHistory:     cfg.AI.MaxHistory,
		suggestHistory: cfg.AI.SuggestHistory,
		gates:          make(map[string]*sessionGate),
	}
}

// CreateSession opens an assistant thread, optionally seeded with a
// conversation for context.
func (s *AIService) CreateSession(ctx context.Context, principal *auth.Principal, input AISessionCreateInput) (*domain.AISession, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	title := strings.TrimSpace(input.Title)
	if len(title) > 120 {
		return nil, apperrors.NewValidationError("title must be at most 120 characters", nil)
	}
	if input.ConversationID != nil {
		conv, err := s.conversations.GetByID(ctx, *input.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv.TenantID != principal.Tenant.ID {
			return nil, apperrors.NewNotFound("conversation", nil)
		}
	}

	session := &domain.AISession{
		TenantID:       principal.Tenant.ID,
		AgentID:        principal.Agent.ID,
		ConversationID: input.ConversationID,
		Title:          title,
		Status:         domain.AISessionActive,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the caller's sessions, newest activity first.
func (s *AIService) ListSessions(ctx context.Context, principal *auth.Principal, includeArchived bool, limit, offset int) ([]domain.AISession, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	return s.sessions.ListByAgent(ctx, principal.Tenant.ID, principal.Agent.ID, includeArchived, normalizeLimit(limit), offset)
}

// GetSession returns a session with its transcript.
func (s *AIService) GetSession(ctx context.Context, principal *auth.Principal, id string) (*domain.AISession, []domain.AITranscriptEntry, error) {
	session, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.transcripts.ListBySession(ctx, session.ID, transcriptPageSize)
	if err != nil {
		return nil, nil, err
	}
	return session, entries, nil
}

// ArchiveSession retires a session from the active list. Archiving twice is
// a no-op.
func (s *AIService) ArchiveSession(ctx context.Context, principal *auth.Principal, id string) (*domain.AISession, error) {
	session, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.AISessionArchived {
		return session, nil
	}
	session.Status = domain.AISessionArchived
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes a session and purges its transcript.
func (s *AIService) DeleteSession(ctx context.Context, principal *auth.Principal, id string) error {
	session, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.transcripts.DeleteSession(ctx, session.ID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, session.ID)
}

// SendMessage appends the user entry, relays to the provider, and appends
// the assistant reply. Sends within one session are paced by the configured
// delay; a newer send supersedes an in-flight one, whose caller receives a
// SUPERSEDED error. The superseded send keeps its user entry but gets no
// assistant entry.
func (s *AIService) SendMessage(ctx context.Context, principal *auth.Principal, sessionID, text string) (*domain.AITranscriptEntry, *domain.AIUsage, error) {
	session, err := s.loadOwned(ctx, principal, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != domain.AISessionActive {
		return nil, nil, apperrors.NewConflict("session is archived", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxAIMessageLength {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("message must be 1..%d characters", maxAIMessageLength), nil)
	}

	userEntry := &domain.AITranscriptEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		Role:      domain.AIRoleUser,
		Content:   text,
	}
	if err := s.transcripts.Append(ctx, userEntry); err != nil {
		return nil, nil, err
	}

	gate, mySeq, callCtx, cancel := s.claimGate(ctx, session.ID)
	defer cancel()
	defer s.releaseGate(session.ID, gate, mySeq)

	if err := s.awaitDispatchSlot(ctx, callCtx, gate); err != nil {
		return nil, nil, err
	}

	prompt, err := s.buildPrompt(ctx, principal, session)
	if err != nil {
		return nil, nil, err
	}

	completion, err := s.client.Complete(callCtx, prompt)
	if err != nil {
		if callCtx.Err() != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, supersededError()
		}
		return nil, nil, err
	}

	assistantEntry := &domain.AITranscriptEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		Role:      domain.AIRoleAssistant,
		Content:   completion.Reply.Content,
	}
	if completion.Usage != nil {
		assistantEntry.TokensIn = completion.Usage.PromptTokens
		assistantEntry.TokensOut = completion.Usage.CompletionTokens
	}
	if err := s.transcripts.Append(ctx, assistantEntry); err != nil {
		return nil, nil, err
	}
	if err := s.sessions.IncrementMessageCount(ctx, session.ID, 2); err != nil {
		return nil, nil, err
	}
	if session.Title == "" && session.MessageCount == 0 {
		session.Title = stringPreview(text, 60)
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, nil, err
		}
	}
	return assistantEntry, completion.Usage, nil
}

// SuggestReply drafts an answer for a conversation without touching any
// session transcript.
func (s *AIService) SuggestReply(ctx context.Context, principal *auth.Principal, conversationID string) (*ai.Completion, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("conversation", nil)
	}

	msgs, err := s.messages.ListByConversation(ctx, conv.ID, 50, 0)
	if err != nil {
		return nil, err
	}
	var customerName string
	if customer, err := s.customers.GetByID(ctx, conv.CustomerID); err == nil {
		customerName = customer.Name
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	prompt := []ai.Message{
		{Role: string(domain.AIRoleSystem), Content: ai.SuggestSystemPrompt(principal.Tenant.Name, principal.Tenant.Locale)},
		{Role: string(domain.AIRoleUser), Content: ai.ConversationContext(conv, customerName, msgs, s.suggestHistory)},
	}
	return s.client.Complete(ctx, prompt)
}

// claimGate registers a new send on the session gate, cancelling whatever
// send currently holds it.
func (s *AIService) claimGate(ctx context.Context, sessionID string) (*sessionGate, uint64, context.Context, context.CancelFunc) {
	s.gatesMu.Lock()
	gate := s.gates[sessionID]
	if gate == nil {
		gate = &sessionGate{}
		s.gates[sessionID] = gate
	}
	s.gatesMu.Unlock()

	callCtx, cancel := context.WithCancel(ctx)

	gate.mu.Lock()
	gate.seq++
	mySeq := gate.seq
	if gate.cancel != nil {
		gate.cancel()
	}
	gate.cancel = cancel
	gate.mu.Unlock()

	return gate, mySeq, callCtx, cancel
}

// awaitDispatchSlot spaces provider calls by the configured delay. Returns
// early when the send is superseded or the client goes away.
func (s *AIService) awaitDispatchSlot(ctx, callCtx context.Context, gate *sessionGate) error {
	gate.mu.Lock()
	wait := s.sendDelay - time.Since(gate.lastDispatch)
	gate.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-callCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return supersededError()
		}
	}

	gate.mu.Lock()
	gate.lastDispatch = time.Now()
	gate.mu.Unlock()
	return nil
}

// releaseGate clears this send's hold and drops the gate once the session
// has been quiet long enough that pacing no longer matters.
func (s *AIService) releaseGate(sessionID string, gate *sessionGate, mySeq uint64) {
	s.gatesMu.Lock()
	defer s.gatesMu.Unlock()

	gate.mu.Lock()
	if gate.seq == mySeq {
		gate.cancel = nil
	}
	idle := gate.seq == mySeq && time.Since(gate.lastDispatch) >= s.sendDelay
	gate.mu.Unlock()

	if idle {
		delete(s.gates, sessionID)
	}
}

func (s *AIService) buildPrompt(ctx context.Context, principal *auth.Principal, session *domain.AISession) ([]ai.Message, error) {
	prompt := []ai.Message{
		{Role: string(domain.AIRoleSystem), Content: ai.AssistantSystemPrompt(principal.Tenant.Name, principal.Tenant.Locale)},
	}

	if session.ConversationID != nil {
		conv, err := s.conversations.GetByID(ctx, *session.ConversationID)
		if err == nil {
			msgs, err := s.messages.ListByConversation(ctx, conv.ID, 50, 0)
			if err != nil {
				return nil, err
			}
			var customerName string
			if customer, err := s.customers.GetByID(ctx, conv.CustomerID); err == nil {
				customerName = customer.Name
			}
			prompt = append(prompt, ai.Message{
				Role:    string(domain.AIRoleSystem),
				Content: "Context for the current support conversation:\n" + ai.ConversationContext(conv, customerName, msgs, s.suggestHistory),
			})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	entries, err := s.transcripts.ListBySession(ctx, session.ID, transcriptPageSize)
	if err != nil {
		return nil, err
	}
	return append(prompt, ai.HistoryMessages(entries, s.maxHistory)...), nil
}

func (s *AIService) loadOwned(ctx context.Context, principal *auth.Principal, id string) (*domain.AISession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Tenant == nil || session.TenantID != principal.Tenant.ID || session.AgentID != principal.Agent.ID {
		return nil, apperrors.NewNotFound("session", nil)
	}
	return session, nil
}

func supersededError() error {
	return apperrors.NewDomainError("SUPERSEDED", "superseded by a newer message in this session", 409, nil)
}
