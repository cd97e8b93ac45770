package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/goleak"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/presence"
	"github.com/asistanapp/panel-service/internal/realtime"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wantStatus asserts err maps to the given HTTP status the same way the
// error middleware would map it.
func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want status %d", status)
	}
	domErr := apperrors.ToDomainError(err)
	if domErr.HTTPStatus != status {
		t.Fatalf("status = %d, want %d (err: %v)", domErr.HTTPStatus, status, err)
	}
}

// --- principals -----------------------------------------------------------

func testTenant(id string) *domain.Tenant {
	return &domain.Tenant{
		ID:     id,
		Name:   "Acme Support",
		Slug:   "acme",
		Plan:   domain.PlanEnterprise,
		Status: domain.TenantStatusActive,
		Locale: "en",
	}
}

func testPrincipal(tenant *domain.Tenant, agentID string, role domain.AgentRole) *auth.Principal {
	agent := &domain.Agent{
		ID:     agentID,
		Name:   "Jane Doe",
		Email:  "jane@acme.test",
		Role:   role,
		Active: true,
	}
	if tenant != nil {
		tenantID := tenant.ID
		agent.TenantID = &tenantID
	}
	return &auth.Principal{Agent: agent, Tenant: tenant}
}

// --- event and side-channel recorders -------------------------------------

type capturedEvents struct {
	published []events.Event
}

func (c *capturedEvents) Publish(_ context.Context, event events.Event) error {
	c.published = append(c.published, event)
	return nil
}

func (c *capturedEvents) Subscribe(events.EventType, events.EventHandler) {}

func (c *capturedEvents) ofType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range c.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type capturedFrames struct {
	toAgent   []realtime.Frame
	agentIDs  []string
	toTenant  []realtime.Frame
	toChannel []realtime.Frame
}

func (c *capturedFrames) SendToAgent(_, agentID string, frame realtime.Frame) {
	c.agentIDs = append(c.agentIDs, agentID)
	c.toAgent = append(c.toAgent, frame)
}

func (c *capturedFrames) BroadcastToTenant(_ string, frame realtime.Frame) {
	c.toTenant = append(c.toTenant, frame)
}

func (c *capturedFrames) BroadcastToChannel(_, _, _ string, frame realtime.Frame) {
	c.toChannel = append(c.toChannel, frame)
}

type fakeEnqueuer struct {
	webhooks []string
	reports  []string
	err      error
}

func (f *fakeEnqueuer) EnqueueWebhookDelivery(_ context.Context, notificationID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.webhooks = append(f.webhooks, notificationID)
	return nil
}

func (f *fakeEnqueuer) EnqueueReportExport(_ context.Context, exportID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, exportID)
	return nil
}

// --- repository fakes -----------------------------------------------------

type fakeTenantRepo struct {
	seq     int
	tenants map[string]*domain.Tenant
}

func newFakeTenantRepo(seed ...*domain.Tenant) *fakeTenantRepo {
	repo := &fakeTenantRepo{tenants: make(map[string]*domain.Tenant)}
	for _, t := range seed {
		repo.tenants[t.ID] = t
	}
	return repo
}

func (f *fakeTenantRepo) Create(_ context.Context, tenant *domain.Tenant) error {
	f.seq++
	if tenant.ID == "" {
		tenant.ID = fmt.Sprintf("tenant-%d", f.seq)
	}
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt
	copied := *tenant
	f.tenants[tenant.ID] = &copied
	return nil
}

func (f *fakeTenantRepo) Update(_ context.Context, tenant *domain.Tenant) error {
	if _, ok := f.tenants[tenant.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *tenant
	f.tenants[tenant.ID] = &copied
	return nil
}

func (f *fakeTenantRepo) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	tenant, ok := f.tenants[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tenant
	return &copied, nil
}

func (f *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	for _, tenant := range f.tenants {
		if tenant.Slug == slug {
			copied := *tenant
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTenantRepo) ListWithFilter(_ context.Context, _ repository.TenantFilter) ([]domain.Tenant, error) {
	out := make([]domain.Tenant, 0, len(f.tenants))
	for _, tenant := range f.tenants {
		out = append(out, *tenant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAgentRepo struct {
	seq    int
	agents map[string]*domain.Agent
}

func newFakeAgentRepo(seed ...*domain.Agent) *fakeAgentRepo {
	repo := &fakeAgentRepo{agents: make(map[string]*domain.Agent)}
	for _, a := range seed {
		repo.agents[a.ID] = a
	}
	return repo
}

func (f *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	f.seq++
	if agent.ID == "" {
		agent.ID = fmt.Sprintf("agent-%d", f.seq)
	}
	agent.CreatedAt = time.Now()
	agent.UpdatedAt = agent.CreatedAt
	copied := *agent
	f.agents[agent.ID] = &copied
	return nil
}

func (f *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	if _, ok := f.agents[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *agent
	f.agents[agent.ID] = &copied
	return nil
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *agent
	return &copied, nil
}

func (f *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	for _, agent := range f.agents {
		if agent.Email == email {
			copied := *agent
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAgentRepo) ListWithFilter(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	var out []domain.Agent
	for _, agent := range f.agents {
		if filter.TenantID != nil && (agent.TenantID == nil || *agent.TenantID != *filter.TenantID) {
			continue
		}
		if filter.ActiveOnly && !agent.Active {
			continue
		}
		out = append(out, *agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAgentRepo) CountActive(_ context.Context, tenantID string) (int, error) {
	count := 0
	for _, agent := range f.agents {
		if agent.TenantID != nil && *agent.TenantID == tenantID && agent.Active {
			count++
		}
	}
	return count, nil
}

type fakeCustomerRepo struct {
	seq       int
	customers map[string]*domain.Customer
	touched   []string
}

func newFakeCustomerRepo(seed ...*domain.Customer) *fakeCustomerRepo {
	repo := &fakeCustomerRepo{customers: make(map[string]*domain.Customer)}
	for _, c := range seed {
		repo.customers[c.ID] = c
	}
	return repo
}

func (f *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	f.seq++
	if customer.ID == "" {
		customer.ID = fmt.Sprintf("customer-%d", f.seq)
	}
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	copied := *customer
	f.customers[customer.ID] = &copied
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, customer *domain.Customer) error {
	if _, ok := f.customers[customer.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *customer
	f.customers[customer.ID] = &copied
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeCustomerRepo) GetByEmail(_ context.Context, tenantID, email string) (*domain.Customer, error) {
	for _, customer := range f.customers {
		if customer.TenantID == tenantID && customer.Email == email {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerRepo) GetByExternalRef(_ context.Context, tenantID, ref string) (*domain.Customer, error) {
	for _, customer := range f.customers {
		if customer.TenantID == tenantID && customer.ExternalRef == ref {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerRepo) ListWithFilter(_ context.Context, filter repository.CustomerFilter) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, customer := range f.customers {
		if customer.TenantID == filter.TenantID {
			out = append(out, *customer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCustomerRepo) TouchLastSeen(_ context.Context, id string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeConversationRepo struct {
	seq           int
	conversations map[string]*domain.Conversation
	lastFilter    repository.ConversationFilter
	lastCountArg  *string

	statusCounts map[domain.ConversationStatus]int64
	rangeTotal   int64
	rangeStatus  map[domain.ConversationStatus]int64
	rangePrio    map[domain.ConversationPriority]int64
	rangeChannel map[domain.ConversationChannel]int64
	resolved     int64
	avgSeconds   float64
	loads        []domain.AgentLoad
}

func newFakeConversationRepo(seed ...*domain.Conversation) *fakeConversationRepo {
	repo := &fakeConversationRepo{conversations: make(map[string]*domain.Conversation)}
	for _, c := range seed {
		repo.conversations[c.ID] = c
	}
	return repo
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	f.seq++
	if conv.ID == "" {
		conv.ID = fmt.Sprintf("conv-%d", f.seq)
	}
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	copied := *conv
	f.conversations[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) Update(_ context.Context, conv *domain.Conversation) error {
	if _, ok := f.conversations[conv.ID]; !ok {
		return pgx.ErrNoRows
	}
	conv.UpdatedAt = time.Now()
	copied := *conv
	f.conversations[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) GetByReference(_ context.Context, tenantID, reference string) (*domain.Conversation, error) {
	for _, conv := range f.conversations {
		if conv.TenantID == tenantID && conv.Reference == reference {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConversationRepo) ListWithFilter(_ context.Context, filter repository.ConversationFilter) ([]domain.Conversation, error) {
	f.lastFilter = filter
	var out []domain.Conversation
	for _, conv := range f.conversations {
		if conv.TenantID != filter.TenantID {
			continue
		}
		if filter.CreatedFrom != nil && conv.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && conv.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeConversationRepo) StatusCounts(_ context.Context, _ string, assigneeID *string) (map[domain.ConversationStatus]int64, error) {
	f.lastCountArg = assigneeID
	if f.statusCounts == nil {
		return map[domain.ConversationStatus]int64{}, nil
	}
	return f.statusCounts, nil
}

func (f *fakeConversationRepo) CountsInRange(_ context.Context, _ string, _, _ time.Time) (int64, map[domain.ConversationStatus]int64, map[domain.ConversationPriority]int64, map[domain.ConversationChannel]int64, error) {
	return f.rangeTotal, f.rangeStatus, f.rangePrio, f.rangeChannel, nil
}

func (f *fakeConversationRepo) ResolutionStats(_ context.Context, _ string, _, _ time.Time) (int64, float64, error) {
	return f.resolved, f.avgSeconds, nil
}

func (f *fakeConversationRepo) AgentLoads(_ context.Context, _ string, _, _ time.Time) ([]domain.AgentLoad, error) {
	return f.loads, nil
}

type fakeMessageRepo struct {
	seq      int
	messages []domain.ConversationMessage
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.ConversationMessage) error {
	f.seq++
	msg.ID = fmt.Sprintf("msg-%d", f.seq)
	msg.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string, limit, offset int) ([]domain.ConversationMessage, error) {
	var out []domain.ConversationMessage
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) CountByConversation(_ context.Context, conversationID string) (int64, error) {
	var count int64
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) bodies(conversationID string) []string {
	var out []string
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg.Body)
		}
	}
	return out
}

type fakeQuickReplyRepo struct {
	seq        int
	replies    map[string]*domain.QuickReply
	usage      map[string]int
	lastFilter repository.QuickReplyFilter
}

func newFakeQuickReplyRepo(seed ...*domain.QuickReply) *fakeQuickReplyRepo {
	repo := &fakeQuickReplyRepo{replies: make(map[string]*domain.QuickReply), usage: make(map[string]int)}
	for _, r := range seed {
		repo.replies[r.ID] = r
	}
	return repo
}

func (f *fakeQuickReplyRepo) Create(_ context.Context, reply *domain.QuickReply) error {
	f.seq++
	if reply.ID == "" {
		reply.ID = fmt.Sprintf("qr-%d", f.seq)
	}
	reply.CreatedAt = time.Now()
	reply.UpdatedAt = reply.CreatedAt
	copied := *reply
	f.replies[reply.ID] = &copied
	return nil
}

func (f *fakeQuickReplyRepo) Update(_ context.Context, reply *domain.QuickReply) error {
	if _, ok := f.replies[reply.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *reply
	f.replies[reply.ID] = &copied
	return nil
}

func (f *fakeQuickReplyRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.replies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.replies, id)
	return nil
}

func (f *fakeQuickReplyRepo) GetByID(_ context.Context, id string) (*domain.QuickReply, error) {
	reply, ok := f.replies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *reply
	return &copied, nil
}

func (f *fakeQuickReplyRepo) GetByShortCode(_ context.Context, tenantID, shortCode string) (*domain.QuickReply, error) {
	for _, reply := range f.replies {
		if reply.TenantID == tenantID && reply.ShortCode == shortCode {
			copied := *reply
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeQuickReplyRepo) ListWithFilter(_ context.Context, filter repository.QuickReplyFilter) ([]domain.QuickReply, error) {
	f.lastFilter = filter
	var out []domain.QuickReply
	for _, reply := range f.replies {
		if reply.TenantID != filter.TenantID {
			continue
		}
		if filter.ActiveOnly && !reply.Active {
			continue
		}
		if filter.VisibleTo != nil && !reply.SharedWithTenant() && *reply.OwnerID != *filter.VisibleTo {
			continue
		}
		out = append(out, *reply)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuickReplyRepo) IncrementUsage(_ context.Context, id string) error {
	f.usage[id]++
	return nil
}

type fakeNotificationRepo struct {
	seq     int
	created []domain.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	f.seq++
	notification.ID = fmt.Sprintf("notif-%d", f.seq)
	notification.CreatedAt = time.Now()
	f.created = append(f.created, *notification)
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	for _, n := range f.created {
		if n.ID == id {
			copied := n
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNotificationRepo) ListWithFilter(_ context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.created {
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.UnreadOnly && !n.Unread() {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.RecipientID == recipientID && n.Unread() {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	now := time.Now()
	for i := range f.created {
		if f.created[i].ID == id && f.created[i].RecipientID == recipientID {
			f.created[i].ReadAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	now := time.Now()
	var count int64
	for i := range f.created {
		if f.created[i].RecipientID == recipientID && f.created[i].Unread() {
			f.created[i].ReadAt = &now
			count++
		}
	}
	return count, nil
}

type fakeTeamChatRepo struct {
	seq      int
	channels map[string]*domain.ChatChannel
	members  map[string]map[string]bool
	messages []domain.ChatMessage
}

func newFakeTeamChatRepo() *fakeTeamChatRepo {
	return &fakeTeamChatRepo{
		channels: make(map[string]*domain.ChatChannel),
		members:  make(map[string]map[string]bool),
	}
}

func (f *fakeTeamChatRepo) CreateChannel(_ context.Context, channel *domain.ChatChannel) error {
	f.seq++
	if channel.ID == "" {
		channel.ID = fmt.Sprintf("chan-%d", f.seq)
	}
	channel.CreatedAt = time.Now()
	copied := *channel
	f.channels[channel.ID] = &copied
	return nil
}

func (f *fakeTeamChatRepo) DeleteChannel(_ context.Context, id string) error {
	if _, ok := f.channels[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.channels, id)
	delete(f.members, id)
	var kept []domain.ChatMessage
	for _, msg := range f.messages {
		if msg.ChannelID != id {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeTeamChatRepo) GetChannel(_ context.Context, id string) (*domain.ChatChannel, error) {
	channel, ok := f.channels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *channel
	return &copied, nil
}

func (f *fakeTeamChatRepo) GetChannelByName(_ context.Context, tenantID, name string) (*domain.ChatChannel, error) {
	for _, channel := range f.channels {
		if channel.TenantID == tenantID && channel.Name == name {
			copied := *channel
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeamChatRepo) ListChannels(_ context.Context, tenantID string) ([]domain.ChatChannel, error) {
	var out []domain.ChatChannel
	for _, channel := range f.channels {
		if channel.TenantID == tenantID {
			out = append(out, *channel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTeamChatRepo) AddMember(_ context.Context, channelID, agentID string) error {
	if f.members[channelID] == nil {
		f.members[channelID] = make(map[string]bool)
	}
	f.members[channelID][agentID] = true
	return nil
}

func (f *fakeTeamChatRepo) RemoveMember(_ context.Context, channelID, agentID string) error {
	if !f.members[channelID][agentID] {
		return pgx.ErrNoRows
	}
	delete(f.members[channelID], agentID)
	return nil
}

func (f *fakeTeamChatRepo) IsMember(_ context.Context, channelID, agentID string) (bool, error) {
	return f.members[channelID][agentID], nil
}

func (f *fakeTeamChatRepo) ListMemberIDs(_ context.Context, channelID string) ([]string, error) {
	var out []string
	for id := range f.members[channelID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeTeamChatRepo) CreateMessage(_ context.Context, msg *domain.ChatMessage) error {
	f.seq++
	msg.ID = fmt.Sprintf("chat-msg-%d", f.seq)
	msg.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeTeamChatRepo) ListMessages(_ context.Context, channelID string, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, msg := range f.messages {
		if msg.ChannelID != channelID {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	// Newest first, like the SQL query.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeAISessionRepo struct {
	seq      int
	sessions map[string]*domain.AISession
}

func newFakeAISessionRepo(seed ...*domain.AISession) *fakeAISessionRepo {
	repo := &fakeAISessionRepo{sessions: make(map[string]*domain.AISession)}
	for _, s := range seed {
		repo.sessions[s.ID] = s
	}
	return repo
}

func (f *fakeAISessionRepo) Create(_ context.Context, session *domain.AISession) error {
	f.seq++
	if session.ID == "" {
		session.ID = fmt.Sprintf("session-%d", f.seq)
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

// Update mirrors the SQL: only title and status are written.
func (f *fakeAISessionRepo) Update(_ context.Context, session *domain.AISession) error {
	stored, ok := f.sessions[session.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = session.Title
	stored.Status = session.Status
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAISessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeAISessionRepo) GetByID(_ context.Context, id string) (*domain.AISession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (f *fakeAISessionRepo) ListByAgent(_ context.Context, tenantID, agentID string, includeArchived bool, _, _ int) ([]domain.AISession, error) {
	var out []domain.AISession
	for _, session := range f.sessions {
		if session.TenantID != tenantID || session.AgentID != agentID {
			continue
		}
		if !includeArchived && session.Status != domain.AISessionActive {
			continue
		}
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAISessionRepo) IncrementMessageCount(_ context.Context, id string, delta int) error {
	session, ok := f.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.MessageCount += delta
	return nil
}

type fakeExportRepo struct {
	seq     int
	exports map[string]*domain.ReportExport
}

func newFakeExportRepo(seed ...*domain.ReportExport) *fakeExportRepo {
	repo := &fakeExportRepo{exports: make(map[string]*domain.ReportExport)}
	for _, e := range seed {
		repo.exports[e.ID] = e
	}
	return repo
}

func (f *fakeExportRepo) Create(_ context.Context, export *domain.ReportExport) error {
	f.seq++
	if export.ID == "" {
		export.ID = fmt.Sprintf("export-%d", f.seq)
	}
	export.CreatedAt = time.Now()
	copied := *export
	f.exports[export.ID] = &copied
	return nil
}

func (f *fakeExportRepo) GetByID(_ context.Context, id string) (*domain.ReportExport, error) {
	export, ok := f.exports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *export
	return &copied, nil
}

func (f *fakeExportRepo) ListByTenant(_ context.Context, tenantID string, _, _ int) ([]domain.ReportExport, error) {
	var out []domain.ReportExport
	for _, export := range f.exports {
		if export.TenantID == tenantID {
			out = append(out, *export)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeExportRepo) MarkRunning(_ context.Context, id string) error {
	export, ok := f.exports[id]
	if !ok {
		return pgx.ErrNoRows
	}
	export.Status = domain.ReportStatusRunning
	return nil
}

func (f *fakeExportRepo) MarkReady(_ context.Context, id, filePath string, sizeBytes int64) error {
	export, ok := f.exports[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	export.Status = domain.ReportStatusReady
	export.FilePath = filePath
	export.SizeBytes = sizeBytes
	export.CompletedAt = &now
	return nil
}

func (f *fakeExportRepo) MarkFailed(_ context.Context, id, reason string) error {
	export, ok := f.exports[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	export.Status = domain.ReportStatusFailed
	export.Error = reason
	export.CompletedAt = &now
	return nil
}

// --- presence store fake --------------------------------------------------

type fakePresenceStore struct {
	records  map[string]*presence.Record
	usage    map[string]int
	notified map[string]bool
	// touchAlive controls TouchPresence: false simulates an expired record.
	touchAlive bool
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{
		records:    make(map[string]*presence.Record),
		usage:      make(map[string]int),
		notified:   make(map[string]bool),
		touchAlive: true,
	}
}

func presenceFakeKey(parts ...string) string { return strings.Join(parts, "|") }

func (f *fakePresenceStore) SetPresence(_ context.Context, tenantID, agentID string, rec presence.Record) error {
	copied := rec
	f.records[presenceFakeKey(tenantID, agentID)] = &copied
	return nil
}

func (f *fakePresenceStore) GetPresence(_ context.Context, tenantID, agentID string) (*presence.Record, error) {
	rec, ok := f.records[presenceFakeKey(tenantID, agentID)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakePresenceStore) ListPresence(_ context.Context, tenantID string, agentIDs []string) (map[string]*presence.Record, error) {
	out := make(map[string]*presence.Record, len(agentIDs))
	for _, id := range agentIDs {
		if rec, ok := f.records[presenceFakeKey(tenantID, id)]; ok {
			copied := *rec
			out[id] = &copied
		}
	}
	return out, nil
}

func (f *fakePresenceStore) TouchPresence(_ context.Context, tenantID, agentID string) (bool, error) {
	if !f.touchAlive {
		return false, nil
	}
	_, ok := f.records[presenceFakeKey(tenantID, agentID)]
	return ok, nil
}

func (f *fakePresenceStore) ClearPresence(_ context.Context, tenantID, agentID string) error {
	delete(f.records, presenceFakeKey(tenantID, agentID))
	return nil
}

func (f *fakePresenceStore) AddBreakUsage(_ context.Context, tenantID, agentID, day string, seconds int) (int, error) {
	key := presenceFakeKey(tenantID, agentID, day)
	f.usage[key] += seconds
	return f.usage[key], nil
}

func (f *fakePresenceStore) GetBreakUsage(_ context.Context, tenantID, agentID, day string) (int, error) {
	return f.usage[presenceFakeKey(tenantID, agentID, day)], nil
}

func (f *fakePresenceStore) MarkBreakNotified(_ context.Context, tenantID, agentID, day string) (bool, error) {
	key := presenceFakeKey(tenantID, agentID, day)
	if f.notified[key] {
		return false, nil
	}
	f.notified[key] = true
	return true, nil
}
