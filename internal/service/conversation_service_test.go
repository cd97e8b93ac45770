package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
)

type conversationFixture struct {
	svc           *ConversationService
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	customers     *fakeCustomerRepo
	agents        *fakeAgentRepo
	tenants       *fakeTenantRepo
	bus           *capturedEvents
	tenant        *domain.Tenant
	principal     *auth.Principal
}

func newConversationFixture() *conversationFixture {
	tenant := testTenant("tenant-1")
	principal := testPrincipal(tenant, "agent-1", domain.RoleAgent)

	f := &conversationFixture{
		conversations: newFakeConversationRepo(),
		messages:      &fakeMessageRepo{},
		customers:     newFakeCustomerRepo(),
		agents:        newFakeAgentRepo(principal.Agent),
		tenants:       newFakeTenantRepo(tenant),
		bus:           &capturedEvents{},
		tenant:        tenant,
		principal:     principal,
	}
	f.svc = NewConversationService(ConversationDependencies{
		ConversationRepo: f.conversations,
		MessageRepo:      f.messages,
		CustomerRepo:     f.customers,
		AgentRepo:        f.agents,
		TenantRepo:       f.tenants,
		Dispatcher:       f.bus,
	})
	return f
}

func (f *conversationFixture) seedCustomer(id string) *domain.Customer {
	customer := &domain.Customer{ID: id, TenantID: f.tenant.ID, Name: "Sam Customer", Email: "sam@example.com"}
	f.customers.customers[id] = customer
	return customer
}

func (f *conversationFixture) seedConversation(id string, status domain.ConversationStatus) *domain.Conversation {
	conv := &domain.Conversation{
		ID:         id,
		TenantID:   f.tenant.ID,
		Reference:  "CNV-" + strings.ToUpper(id),
		CustomerID: "customer-1",
		Channel:    domain.ChannelEmail,
		Subject:    "Billing question",
		Status:     status,
		Priority:   domain.PriorityNormal,
	}
	f.conversations.conversations[id] = conv
	return conv
}

func TestConversationCreate(t *testing.T) {
	f := newConversationFixture()
	f.seedCustomer("customer-1")

	conv, err := f.svc.Create(context.Background(), f.principal, ConversationCreateInput{
		CustomerID:   "customer-1",
		Channel:      domain.ChannelEmail,
		Subject:      "Cannot log in",
		Tags:         []string{"login", "login", "urgent"},
		FirstMessage: "Customer says the password reset loops.",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(conv.Reference, "CNV-") || len(conv.Reference) != 12 {
		t.Errorf("reference = %q, want CNV- prefix with 8 hex chars", conv.Reference)
	}
	if conv.Status != domain.ConversationStatusOpen {
		t.Errorf("status = %s, want OPEN", conv.Status)
	}
	if conv.Priority != domain.PriorityNormal {
		t.Errorf("priority = %s, want NORMAL default", conv.Priority)
	}
	if len(conv.Tags) != 2 {
		t.Errorf("tags = %v, want deduplicated pair", conv.Tags)
	}

	if got := len(f.bus.ofType(events.EventConversationCreated)); got != 1 {
		t.Errorf("created events = %d, want 1", got)
	}
	if got := len(f.bus.ofType(events.EventConversationMessageAdded)); got != 1 {
		t.Errorf("message events = %d, want 1", got)
	}
	bodies := f.messages.bodies(conv.ID)
	if len(bodies) != 1 || bodies[0] != "Customer says the password reset loops." {
		t.Errorf("thread bodies = %v", bodies)
	}
}

func TestConversationCreateForeignCustomer(t *testing.T) {
	f := newConversationFixture()
	f.customers.customers["customer-9"] = &domain.Customer{ID: "customer-9", TenantID: "tenant-other", Name: "X"}

	_, err := f.svc.Create(context.Background(), f.principal, ConversationCreateInput{
		CustomerID: "customer-9",
		Channel:    domain.ChannelChat,
		Subject:    "hello",
	})
	wantStatus(t, err, http.StatusNotFound)
}

func TestConversationStatusTransitions(t *testing.T) {
	tests := []struct {
		from    domain.ConversationStatus
		to      domain.ConversationStatus
		allowed bool
	}{
		{domain.ConversationStatusOpen, domain.ConversationStatusPending, true},
		{domain.ConversationStatusOpen, domain.ConversationStatusResolved, true},
		{domain.ConversationStatusOpen, domain.ConversationStatusClosed, false},
		{domain.ConversationStatusPending, domain.ConversationStatusOpen, true},
		{domain.ConversationStatusPending, domain.ConversationStatusClosed, false},
		{domain.ConversationStatusResolved, domain.ConversationStatusClosed, true},
		{domain.ConversationStatusResolved, domain.ConversationStatusOpen, true},
		{domain.ConversationStatusClosed, domain.ConversationStatusOpen, true},
		{domain.ConversationStatusClosed, domain.ConversationStatusResolved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			f := newConversationFixture()
			f.seedConversation("conv-a", tt.from)

			conv, err := f.svc.ChangeStatus(context.Background(), f.principal, "conv-a", tt.to)
			if tt.allowed {
				if err != nil {
					t.Fatalf("ChangeStatus() error = %v", err)
				}
				if conv.Status != tt.to {
					t.Errorf("status = %s, want %s", conv.Status, tt.to)
				}
			} else {
				wantStatus(t, err, http.StatusConflict)
			}
		})
	}
}

func TestConversationResolveStampsClosedAt(t *testing.T) {
	f := newConversationFixture()
	f.seedConversation("conv-a", domain.ConversationStatusOpen)

	conv, err := f.svc.ChangeStatus(context.Background(), f.principal, "conv-a", domain.ConversationStatusResolved)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if conv.ClosedAt == nil {
		t.Fatal("ClosedAt = nil after resolve")
	}
	stamped := *conv.ClosedAt

	// RESOLVED -> CLOSED keeps the original resolution time.
	conv, err = f.svc.ChangeStatus(context.Background(), f.principal, "conv-a", domain.ConversationStatusClosed)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if conv.ClosedAt == nil || !conv.ClosedAt.Equal(stamped) {
		t.Errorf("ClosedAt = %v, want unchanged %v", conv.ClosedAt, stamped)
	}

	conv, err = f.svc.ChangeStatus(context.Background(), f.principal, "conv-a", domain.ConversationStatusOpen)
	if err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	if conv.ClosedAt != nil {
		t.Errorf("ClosedAt = %v after reopen, want nil", conv.ClosedAt)
	}
}

func TestConversationStatusChangeWritesEventMessage(t *testing.T) {
	f := newConversationFixture()
	f.seedConversation("conv-a", domain.ConversationStatusOpen)

	if _, err := f.svc.ChangeStatus(context.Background(), f.principal, "conv-a", domain.ConversationStatusPending); err != nil {
		t.Fatalf("ChangeStatus() error = %v", err)
	}
	bodies := f.messages.bodies("conv-a")
	if len(bodies) != 1 || bodies[0] != "status changed from OPEN to PENDING" {
		t.Errorf("event message = %v", bodies)
	}
	if got := len(f.bus.ofType(events.EventConversationStatusChanged)); got != 1 {
		t.Errorf("status events = %d, want 1", got)
	}
}

func TestConversationAddMessageClosed(t *testing.T) {
	f := newConversationFixture()
	f.seedConversation("conv-a", domain.ConversationStatusClosed)

	_, err := f.svc.AddMessage(context.Background(), f.principal, "conv-a", MessageInput{
		Kind: domain.MessageKindReply,
		Body: "late reply",
	})
	wantStatus(t, err, http.StatusConflict)
}

func TestConversationReplyBumpsLastMessageAt(t *testing.T) {
	f := newConversationFixture()
	conv := f.seedConversation("conv-a", domain.ConversationStatusOpen)
	before := conv.LastMessageAt

	if _, err := f.svc.AddMessage(context.Background(), f.principal, "conv-a", MessageInput{
		Kind: domain.MessageKindReply,
		Body: "On it.",
	}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	stored := f.conversations.conversations["conv-a"]
	if !stored.LastMessageAt.After(before) {
		t.Error("LastMessageAt not bumped by reply")
	}

	noteMark := stored.LastMessageAt
	if _, err := f.svc.AddMessage(context.Background(), f.principal, "conv-a", MessageInput{
		Kind: domain.MessageKindNote,
		Body: "internal note",
	}); err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if !f.conversations.conversations["conv-a"].LastMessageAt.Equal(noteMark) {
		t.Error("LastMessageAt changed by internal note")
	}
}

func TestConversationAssign(t *testing.T) {
	f := newConversationFixture()
	f.seedConversation("conv-a", domain.ConversationStatusOpen)
	tenantID := f.tenant.ID
	f.agents.agents["agent-2"] = &domain.Agent{ID: "agent-2", TenantID: &tenantID, Name: "Ali Veli", Active: true, Role: domain.RoleAgent}

	conv, err := f.svc.Assign(context.Background(), f.principal, "conv-a", nil)
	if err != nil {
		t.Fatalf("Assign(self) error = %v", err)
	}
	if conv.AssigneeID == nil || *conv.AssigneeID != "agent-1" {
		t.Fatalf("assignee = %v, want agent-1", conv.AssigneeID)
	}

	// A plain agent cannot take over someone else's conversation.
	other := testPrincipal(f.tenant, "agent-2", domain.RoleAgent)
	_, err = f.svc.Assign(context.Background(), other, "conv-a", strPtr("agent-2"))
	wantStatus(t, err, http.StatusForbidden)

	// An admin can.
	admin := testPrincipal(f.tenant, "agent-3", domain.RoleAdmin)
	f.agents.agents["agent-3"] = admin.Agent
	conv, err = f.svc.Assign(context.Background(), admin, "conv-a", strPtr("agent-2"))
	if err != nil {
		t.Fatalf("Assign(admin reassign) error = %v", err)
	}
	if *conv.AssigneeID != "agent-2" {
		t.Errorf("assignee = %s, want agent-2", *conv.AssigneeID)
	}

	assignedEvents := f.bus.ofType(events.EventConversationAssigned)
	if len(assignedEvents) != 2 {
		t.Fatalf("assigned events = %d, want 2", len(assignedEvents))
	}
	payload := assignedEvents[1].Payload.(events.ConversationAssignedPayload)
	if payload.PreviousID == nil || *payload.PreviousID != "agent-1" {
		t.Errorf("previous assignee = %v, want agent-1", payload.PreviousID)
	}
}

func TestConversationAssignInactiveAgent(t *testing.T) {
	f := newConversationFixture()
	f.seedConversation("conv-a", domain.ConversationStatusOpen)
	tenantID := f.tenant.ID
	f.agents.agents["agent-2"] = &domain.Agent{ID: "agent-2", TenantID: &tenantID, Name: "Gone", Active: false}

	_, err := f.svc.Assign(context.Background(), f.principal, "conv-a", strPtr("agent-2"))
	wantStatus(t, err, http.StatusConflict)
}

func TestConversationUnassign(t *testing.T) {
	f := newConversationFixture()
	conv := f.seedConversation("conv-a", domain.ConversationStatusOpen)
	assignee := "agent-1"
	conv.AssigneeID = &assignee

	got, err := f.svc.Unassign(context.Background(), f.principal, "conv-a")
	if err != nil {
		t.Fatalf("Unassign() error = %v", err)
	}
	if got.AssigneeID != nil {
		t.Errorf("assignee = %v, want nil", got.AssigneeID)
	}
	bodies := f.messages.bodies("conv-a")
	if len(bodies) != 1 || bodies[0] != "unassigned" {
		t.Errorf("event message = %v", bodies)
	}
}

func TestConversationListAssigneeFilter(t *testing.T) {
	f := newConversationFixture()

	_, _, err := f.svc.List(context.Background(), f.principal, ConversationListFilter{Assignee: "me"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if f.conversations.lastFilter.AssigneeID == nil || *f.conversations.lastFilter.AssigneeID != "agent-1" {
		t.Errorf("assignee filter = %v, want agent-1", f.conversations.lastFilter.AssigneeID)
	}
	if f.conversations.lastCountArg == nil || *f.conversations.lastCountArg != "agent-1" {
		t.Errorf("count scope = %v, want agent-1", f.conversations.lastCountArg)
	}

	_, _, err = f.svc.List(context.Background(), f.principal, ConversationListFilter{Assignee: "unassigned"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !f.conversations.lastFilter.Unassigned {
		t.Error("unassigned filter not set")
	}
	if f.conversations.lastCountArg != nil {
		t.Errorf("count scope = %v, want nil for unassigned", f.conversations.lastCountArg)
	}
}

func TestIngestCreatesConversation(t *testing.T) {
	f := newConversationFixture()

	conv, msg, err := f.svc.IngestMessage(context.Background(), IngestInput{
		TenantSlug:    "acme",
		CustomerName:  "Sam",
		CustomerEmail: "Sam@Example.com",
		Channel:       domain.ChannelWidget,
		Body:          "My widget is broken",
	})
	if err != nil {
		t.Fatalf("IngestMessage() error = %v", err)
	}
	if conv.Status != domain.ConversationStatusOpen {
		t.Errorf("status = %s, want OPEN", conv.Status)
	}
	if conv.Subject != "Conversation via widget" {
		t.Errorf("subject = %q", conv.Subject)
	}
	if msg.AuthorType != domain.AuthorTypeCustomer {
		t.Errorf("author = %s, want CUSTOMER", msg.AuthorType)
	}

	customer := f.customers.customers[conv.CustomerID]
	if customer == nil || customer.Email != "sam@example.com" {
		t.Fatalf("customer not created with normalized email: %+v", customer)
	}
	if len(f.customers.touched) != 1 {
		t.Errorf("TouchLastSeen calls = %d, want 1", len(f.customers.touched))
	}

	// Same email again reuses the record.
	conv2, _, err := f.svc.IngestMessage(context.Background(), IngestInput{
		TenantSlug:    "acme",
		CustomerEmail: "sam@example.com",
		Channel:       domain.ChannelWidget,
		Body:          "Still broken",
	})
	if err != nil {
		t.Fatalf("IngestMessage() second error = %v", err)
	}
	if conv2.CustomerID != conv.CustomerID {
		t.Errorf("customer = %s, want reuse of %s", conv2.CustomerID, conv.CustomerID)
	}
}

func TestIngestWithReferenceAppends(t *testing.T) {
	f := newConversationFixture()
	f.seedCustomer("customer-1")
	conv := f.seedConversation("conv-a", domain.ConversationStatusOpen)

	got, _, err := f.svc.IngestMessage(context.Background(), IngestInput{
		TenantID:      f.tenant.ID,
		Reference:     conv.Reference,
		CustomerEmail: "sam@example.com",
		Channel:       domain.ChannelEmail,
		Body:          "Following up",
	})
	if err != nil {
		t.Fatalf("IngestMessage() error = %v", err)
	}
	if got.ID != conv.ID {
		t.Errorf("conversation = %s, want existing %s", got.ID, conv.ID)
	}
}

func TestIngestReopensResolved(t *testing.T) {
	for _, status := range []domain.ConversationStatus{domain.ConversationStatusResolved, domain.ConversationStatusClosed} {
		t.Run(string(status), func(t *testing.T) {
			f := newConversationFixture()
			f.seedCustomer("customer-1")
			conv := f.seedConversation("conv-a", status)
			closed := time.Now().Add(-time.Hour)
			conv.ClosedAt = &closed

			got, _, err := f.svc.IngestMessage(context.Background(), IngestInput{
				TenantID:      f.tenant.ID,
				Reference:     conv.Reference,
				CustomerEmail: "sam@example.com",
				Channel:       domain.ChannelEmail,
				Body:          "It broke again",
			})
			if err != nil {
				t.Fatalf("IngestMessage() error = %v", err)
			}
			if got.Status != domain.ConversationStatusOpen {
				t.Errorf("status = %s, want OPEN", got.Status)
			}
			if got.ClosedAt != nil {
				t.Errorf("ClosedAt = %v, want nil", got.ClosedAt)
			}
			bodies := f.messages.bodies("conv-a")
			if len(bodies) != 2 || bodies[0] != "conversation reopened by customer reply" {
				t.Errorf("thread = %v", bodies)
			}
			if got := len(f.bus.ofType(events.EventConversationStatusChanged)); got != 1 {
				t.Errorf("status events = %d, want 1", got)
			}
		})
	}
}

func TestIngestInactiveTenant(t *testing.T) {
	f := newConversationFixture()
	f.tenants.tenants[f.tenant.ID].Status = domain.TenantStatusSuspended

	_, _, err := f.svc.IngestMessage(context.Background(), IngestInput{
		TenantID:      f.tenant.ID,
		CustomerEmail: "sam@example.com",
		Channel:       domain.ChannelEmail,
		Body:          "hello",
	})
	wantStatus(t, err, http.StatusForbidden)
}

func TestIngestRequiresCustomerIdentity(t *testing.T) {
	f := newConversationFixture()

	_, _, err := f.svc.IngestMessage(context.Background(), IngestInput{
		TenantID: f.tenant.ID,
		Channel:  domain.ChannelEmail,
		Body:     "hello",
	})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestConversationUpdateTags(t *testing.T) {
	f := newConversationFixture()
	conv := f.seedConversation("conv-a", domain.ConversationStatusOpen)
	conv.Tags = []string{"billing", "vip"}

	got, err := f.svc.UpdateTags(context.Background(), f.principal, "conv-a", TagUpdateInput{
		Add:    []string{"refund", "billing"},
		Remove: []string{"vip"},
	})
	if err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}
	want := []string{"billing", "refund"}
	if len(got.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", got.Tags, want)
	}
	for i := range want {
		if got.Tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", got.Tags, want)
		}
	}
}

func TestConversationCrossTenantHidden(t *testing.T) {
	f := newConversationFixture()
	f.conversations.conversations["conv-x"] = &domain.Conversation{
		ID:       "conv-x",
		TenantID: "tenant-other",
		Status:   domain.ConversationStatusOpen,
	}

	_, _, err := f.svc.Get(context.Background(), f.principal, "conv-x")
	wantStatus(t, err, http.StatusNotFound)
}

func strPtr(s string) *string { return &s }
