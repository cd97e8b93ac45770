package domain

import (
	"reflect"
	"testing"
)

func TestEffectiveModulesByPlan(t *testing.T) {
	tests := []struct {
		plan Tenant
		want []ModuleKey
	}{
		{
			plan: Tenant{Plan: PlanTrial},
			want: []ModuleKey{ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleTeamChat, ModuleReports},
		},
		{
			plan: Tenant{Plan: PlanStarter},
			want: []ModuleKey{ModuleConversations, ModuleQuickReplies},
		},
		{
			plan: Tenant{Plan: PlanGrowth},
			want: []ModuleKey{ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleReports},
		},
		{
			plan: Tenant{Plan: PlanEnterprise},
			want: []ModuleKey{ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleTeamChat, ModuleReports},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan.Plan), func(t *testing.T) {
			if got := tt.plan.EffectiveModules(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EffectiveModules() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveModulesOverrides(t *testing.T) {
	tenant := Tenant{
		Plan: PlanStarter,
		ModuleOverrides: map[ModuleKey]bool{
			ModuleAIAssistant: true,
			// Core modules cannot be switched off.
			ModuleConversations: false,
		},
	}

	want := []ModuleKey{ModuleConversations, ModuleQuickReplies, ModuleAIAssistant}
	if got := tenant.EffectiveModules(); !reflect.DeepEqual(got, want) {
		t.Errorf("EffectiveModules() = %v, want %v", got, want)
	}
}

func TestModuleEnabled(t *testing.T) {
	tenant := Tenant{
		Plan:            PlanGrowth,
		ModuleOverrides: map[ModuleKey]bool{ModuleReports: false},
	}

	if !tenant.ModuleEnabled(ModuleAIAssistant) {
		t.Error("expected ai_assistant enabled on GROWTH")
	}
	if tenant.ModuleEnabled(ModuleTeamChat) {
		t.Error("expected team_chat disabled on GROWTH")
	}
	if tenant.ModuleEnabled(ModuleReports) {
		t.Error("expected reports disabled by override")
	}
	if !tenant.ModuleEnabled(ModuleQuickReplies) {
		t.Error("expected core module to stay enabled")
	}
}

func TestUnknownPlanFallsBackToCore(t *testing.T) {
	tenant := Tenant{Plan: TenantPlan("LEGACY")}
	want := []ModuleKey{ModuleConversations, ModuleQuickReplies}
	if got := tenant.EffectiveModules(); !reflect.DeepEqual(got, want) {
		t.Errorf("EffectiveModules() = %v, want %v", got, want)
	}
}
