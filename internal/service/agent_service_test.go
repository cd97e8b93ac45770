package service

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
)

type agentFixture struct {
	svc     *AgentService
	agents  *fakeAgentRepo
	tenants *fakeTenantRepo
	tenant  *domain.Tenant
	admin   *auth.Principal
}

func newAgentFixture() *agentFixture {
	tenant := testTenant("tenant-1")
	tenant.MaxAgents = 3
	admin := testPrincipal(tenant, "agent-9", domain.RoleAdmin)

	f := &agentFixture{
		agents:  newFakeAgentRepo(admin.Agent),
		tenants: newFakeTenantRepo(tenant),
		tenant:  tenant,
		admin:   admin,
	}
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	f.svc = NewAgentService(cfg, AgentDependencies{
		AgentRepo:  f.agents,
		TenantRepo: f.tenants,
	})
	return f
}

func TestAgentCreate(t *testing.T) {
	f := newAgentFixture()

	agent, err := f.svc.Create(context.Background(), f.admin, AgentCreateInput{
		Name:     "Ali Veli",
		Email:    "Ali@Acme.Test",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if agent.Email != "ali@acme.test" {
		t.Errorf("email = %q, want normalized", agent.Email)
	}
	if agent.Role != domain.RoleAgent {
		t.Errorf("role = %s, want AGENT default", agent.Role)
	}
	if !agent.Active {
		t.Error("new agent not active")
	}
	if err := auth.ComparePassword(agent.PasswordHash, "correct-horse"); err != nil {
		t.Error("stored hash does not match password")
	}
}

func TestAgentCreateEmailTaken(t *testing.T) {
	f := newAgentFixture()

	_, err := f.svc.Create(context.Background(), f.admin, AgentCreateInput{
		Name:     "Dup",
		Email:    "jane@acme.test",
		Password: "password123",
	})
	wantStatus(t, err, http.StatusConflict)
}

func TestAgentCreateSeatLimit(t *testing.T) {
	f := newAgentFixture()
	tenantID := f.tenant.ID
	f.agents.agents["agent-2"] = &domain.Agent{ID: "agent-2", TenantID: &tenantID, Email: "a2@acme.test", Active: true}
	f.agents.agents["agent-3"] = &domain.Agent{ID: "agent-3", TenantID: &tenantID, Email: "a3@acme.test", Active: true}

	_, err := f.svc.Create(context.Background(), f.admin, AgentCreateInput{
		Name:     "One Too Many",
		Email:    "extra@acme.test",
		Password: "password123",
	})
	wantStatus(t, err, http.StatusConflict)

	// Deactivated agents free their seat.
	f.agents.agents["agent-3"].Active = false
	if _, err := f.svc.Create(context.Background(), f.admin, AgentCreateInput{
		Name:     "Fits Now",
		Email:    "extra@acme.test",
		Password: "password123",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestAgentCreateValidation(t *testing.T) {
	f := newAgentFixture()

	cases := []AgentCreateInput{
		{Name: "", Email: "x@acme.test", Password: "password123"},
		{Name: "X", Email: "not-an-email", Password: "password123"},
		{Name: "X", Email: "x@acme.test", Password: "short"},
		{Name: "X", Email: "x@acme.test", Password: "password123", Role: domain.RoleSuperAdmin},
	}
	for _, input := range cases {
		_, err := f.svc.Create(context.Background(), f.admin, input)
		wantStatus(t, err, http.StatusBadRequest)
	}
}

func TestAgentSelfDeactivation(t *testing.T) {
	f := newAgentFixture()

	inactive := false
	_, err := f.svc.Update(context.Background(), f.admin, "agent-9", AgentUpdateInput{Active: &inactive})
	wantStatus(t, err, http.StatusConflict)
}

func TestAgentDeactivateAndReactivate(t *testing.T) {
	f := newAgentFixture()
	tenantID := f.tenant.ID
	f.agents.agents["agent-2"] = &domain.Agent{ID: "agent-2", TenantID: &tenantID, Email: "a2@acme.test", Active: true, Role: domain.RoleAgent}

	inactive := false
	agent, err := f.svc.Update(context.Background(), f.admin, "agent-2", AgentUpdateInput{Active: &inactive})
	if err != nil {
		t.Fatalf("Update(deactivate) error = %v", err)
	}
	if agent.Active {
		t.Error("agent still active")
	}

	// Reactivation re-checks the seat cap.
	f.agents.agents["agent-3"] = &domain.Agent{ID: "agent-3", TenantID: &tenantID, Email: "a3@acme.test", Active: true}
	f.agents.agents["agent-4"] = &domain.Agent{ID: "agent-4", TenantID: &tenantID, Email: "a4@acme.test", Active: true}

	active := true
	_, err = f.svc.Update(context.Background(), f.admin, "agent-2", AgentUpdateInput{Active: &active})
	wantStatus(t, err, http.StatusConflict)
}

func TestAgentRoleChange(t *testing.T) {
	f := newAgentFixture()
	tenantID := f.tenant.ID
	f.agents.agents["agent-2"] = &domain.Agent{ID: "agent-2", TenantID: &tenantID, Email: "a2@acme.test", Active: true, Role: domain.RoleAgent}

	role := domain.RoleAdmin
	agent, err := f.svc.Update(context.Background(), f.admin, "agent-2", AgentUpdateInput{Role: &role})
	if err != nil {
		t.Fatalf("Update(role) error = %v", err)
	}
	if agent.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want ADMIN", agent.Role)
	}

	// Super-admin accounts are off limits.
	f.agents.agents["root-1"] = &domain.Agent{ID: "root-1", Email: "root@panel.test", Active: true, Role: domain.RoleSuperAdmin}
	super := testPrincipal(nil, "root-9", domain.RoleSuperAdmin)
	downgrade := domain.RoleAgent
	_, err = f.svc.Update(context.Background(), super, "root-1", AgentUpdateInput{Role: &downgrade})
	wantStatus(t, err, http.StatusForbidden)
}

func TestAgentCrossTenantHidden(t *testing.T) {
	f := newAgentFixture()
	otherID := "tenant-other"
	f.agents.agents["agent-x"] = &domain.Agent{ID: "agent-x", TenantID: &otherID, Email: "x@other.test", Active: true}

	_, err := f.svc.Get(context.Background(), f.admin, "agent-x")
	wantStatus(t, err, http.StatusNotFound)
}
