package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
)

func newTenantService(repo *fakeTenantRepo) *TenantService {
	cfg := config.Config{App: config.AppConfig{DefaultLocale: "en"}}
	return NewTenantService(cfg, TenantDependencies{TenantRepo: repo})
}

func TestTenantCreate(t *testing.T) {
	repo := newFakeTenantRepo()
	svc := newTenantService(repo)

	tenant, err := svc.Create(context.Background(), TenantCreateInput{
		Name: "Acme Support",
		Slug: "Acme-Corp",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tenant.Slug != "acme-corp" {
		t.Errorf("slug = %q, want lowercased", tenant.Slug)
	}
	if tenant.Plan != domain.PlanTrial {
		t.Errorf("plan = %s, want TRIAL default", tenant.Plan)
	}
	if tenant.Status != domain.TenantStatusActive {
		t.Errorf("status = %s, want ACTIVE", tenant.Status)
	}
	if tenant.Locale != "en" {
		t.Errorf("locale = %q, want configured default", tenant.Locale)
	}
	if tenant.MaxAgents != 10 {
		t.Errorf("max agents = %d, want 10 default", tenant.MaxAgents)
	}
}

func TestTenantCreateSlugTaken(t *testing.T) {
	repo := newFakeTenantRepo(testTenant("tenant-1"))
	svc := newTenantService(repo)

	_, err := svc.Create(context.Background(), TenantCreateInput{Name: "Other", Slug: "acme"})
	wantStatus(t, err, http.StatusConflict)
}

func TestTenantCreateValidation(t *testing.T) {
	svc := newTenantService(newFakeTenantRepo())

	cases := []TenantCreateInput{
		{Name: "", Slug: "acme"},
		{Name: "Acme", Slug: "ab"},
		{Name: "Acme", Slug: "Has Space"},
		{Name: "Acme", Slug: "acme", Plan: domain.TenantPlan("PLATINUM")},
		{Name: "Acme", Slug: "acme", Locale: "de"},
	}
	for _, input := range cases {
		_, err := svc.Create(context.Background(), input)
		wantStatus(t, err, http.StatusBadRequest)
	}
}

func TestTenantPlanChangeRecomputesModules(t *testing.T) {
	repo := newFakeTenantRepo(testTenant("tenant-1"))
	svc := newTenantService(repo)

	tenant, err := svc.ChangePlan(context.Background(), "tenant-1", domain.PlanStarter)
	if err != nil {
		t.Fatalf("ChangePlan() error = %v", err)
	}
	if tenant.ModuleEnabled(domain.ModuleTeamChat) {
		t.Error("team chat enabled on STARTER")
	}
	if !tenant.ModuleEnabled(domain.ModuleConversations) {
		t.Error("conversations disabled")
	}

	tenant, err = svc.ChangePlan(context.Background(), "tenant-1", domain.PlanGrowth)
	if err != nil {
		t.Fatalf("ChangePlan() error = %v", err)
	}
	if !tenant.ModuleEnabled(domain.ModuleAIAssistant) || !tenant.ModuleEnabled(domain.ModuleReports) {
		t.Error("GROWTH modules missing")
	}
	if tenant.ModuleEnabled(domain.ModuleTeamChat) {
		t.Error("team chat enabled on GROWTH")
	}
}

func TestTenantModuleOverride(t *testing.T) {
	repo := newFakeTenantRepo(testTenant("tenant-1"))
	svc := newTenantService(repo)
	if _, err := svc.ChangePlan(context.Background(), "tenant-1", domain.PlanStarter); err != nil {
		t.Fatalf("ChangePlan() error = %v", err)
	}

	tenant, err := svc.SetModuleOverride(context.Background(), "tenant-1", domain.ModuleTeamChat, true)
	if err != nil {
		t.Fatalf("SetModuleOverride() error = %v", err)
	}
	if !tenant.ModuleEnabled(domain.ModuleTeamChat) {
		t.Error("override did not enable team chat")
	}

	// Core modules cannot be switched off.
	_, err = svc.SetModuleOverride(context.Background(), "tenant-1", domain.ModuleConversations, false)
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.SetModuleOverride(context.Background(), "tenant-1", domain.ModuleKey("billing"), true)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestTenantLifecycle(t *testing.T) {
	repo := newFakeTenantRepo(testTenant("tenant-1"))
	svc := newTenantService(repo)

	tenant, err := svc.Suspend(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if tenant.Status != domain.TenantStatusSuspended {
		t.Errorf("status = %s, want SUSPENDED", tenant.Status)
	}

	// Suspending twice conflicts.
	_, err = svc.Suspend(context.Background(), "tenant-1")
	wantStatus(t, err, http.StatusConflict)

	if _, err := svc.Reactivate(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}

	tenant, err = svc.Cancel(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if tenant.Status != domain.TenantStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", tenant.Status)
	}

	// Cancellation is terminal.
	_, err = svc.Reactivate(context.Background(), "tenant-1")
	wantStatus(t, err, http.StatusConflict)
	_, err = svc.Cancel(context.Background(), "tenant-1")
	wantStatus(t, err, http.StatusConflict)
}

func TestTenantUpdateProfile(t *testing.T) {
	repo := newFakeTenantRepo(testTenant("tenant-1"))
	svc := newTenantService(repo)

	name := "Acme Incorporated"
	locale := "tr"
	allowance := 1200
	tenant, err := svc.UpdateProfile(context.Background(), "tenant-1", TenantUpdateInput{
		Name:                  &name,
		Locale:                &locale,
		BreakAllowanceSeconds: &allowance,
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if tenant.Name != "Acme Incorporated" || tenant.Locale != "tr" || tenant.BreakAllowanceSeconds != 1200 {
		t.Errorf("tenant = %+v", tenant)
	}
	// The slug never changes through updates.
	if tenant.Slug != "acme" {
		t.Errorf("slug = %q, want unchanged", tenant.Slug)
	}

	bad := "de"
	_, err = svc.UpdateProfile(context.Background(), "tenant-1", TenantUpdateInput{Locale: &bad})
	wantStatus(t, err, http.StatusBadRequest)

	zero := 0
	_, err = svc.UpdateProfile(context.Background(), "tenant-1", TenantUpdateInput{MaxAgents: &zero})
	wantStatus(t, err, http.StatusBadRequest)
}
