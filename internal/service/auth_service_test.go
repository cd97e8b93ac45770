package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
)

type authFixture struct {
	svc     *AuthService
	agents  *fakeAgentRepo
	tenants *fakeTenantRepo
	tenant  *domain.Tenant
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tenant := testTenant("tenant-1")
	hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	tenantID := tenant.ID
	agent := &domain.Agent{
		ID:           "agent-1",
		TenantID:     &tenantID,
		Name:         "Jane Doe",
		Email:        "jane@acme.test",
		PasswordHash: hash,
		Role:         domain.RoleAgent,
		Active:       true,
	}

	f := &authFixture{
		agents:  newFakeAgentRepo(agent),
		tenants: newFakeTenantRepo(tenant),
		tenant:  tenant,
	}
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            bcrypt.MinCost,
	}}
	f.svc = NewAuthService(cfg, AuthDependencies{
		AgentRepo:  f.agents,
		TenantRepo: f.tenants,
	})
	return f
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)

	agent, token, exp, err := f.svc.Login(context.Background(), "Jane@Acme.Test", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if agent.ID != "agent-1" {
		t.Errorf("agent = %s", agent.ID)
	}
	if token == "" {
		t.Error("empty token")
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v not in the future", exp)
	}

	claims, err := f.svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "agent-1" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.TenantID == nil || *claims.TenantID != "tenant-1" {
		t.Errorf("tenant claim = %v", claims.TenantID)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, _, _, err := f.svc.Login(context.Background(), "jane@acme.test", "wrong-password")
	wantStatus(t, err, http.StatusUnauthorized)

	// Unknown emails get the same answer as wrong passwords.
	_, _, _, err = f.svc.Login(context.Background(), "nobody@acme.test", "correct-horse")
	wantStatus(t, err, http.StatusUnauthorized)

	_, _, _, err = f.svc.Login(context.Background(), "", "")
	wantStatus(t, err, http.StatusBadRequest)
}

func TestLoginDeactivatedAgent(t *testing.T) {
	f := newAuthFixture(t)
	f.agents.agents["agent-1"].Active = false

	_, _, _, err := f.svc.Login(context.Background(), "jane@acme.test", "correct-horse")
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestLoginSuspendedTenant(t *testing.T) {
	f := newAuthFixture(t)
	f.tenant.Status = domain.TenantStatusSuspended

	_, _, _, err := f.svc.Login(context.Background(), "jane@acme.test", "correct-horse")
	wantStatus(t, err, http.StatusForbidden)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.ChangePassword(context.Background(), "agent-1", "correct-horse", "battery-staple"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, _, _, err := f.svc.Login(context.Background(), "jane@acme.test", "battery-staple"); err != nil {
		t.Fatalf("Login() with new password error = %v", err)
	}
	_, _, _, err := f.svc.Login(context.Background(), "jane@acme.test", "correct-horse")
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ChangePassword(context.Background(), "agent-1", "wrong", "battery-staple")
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestChangePasswordTooShort(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ChangePassword(context.Background(), "agent-1", "correct-horse", "short")
	wantStatus(t, err, http.StatusBadRequest)
}
