package domain

import "time"

// TenantPlan enumerates subscription tiers.
type TenantPlan string

const (
	PlanTrial      TenantPlan = "TRIAL"
	PlanStarter    TenantPlan = "STARTER"
	PlanGrowth     TenantPlan = "GROWTH"
	PlanEnterprise TenantPlan = "ENTERPRISE"
)

// TenantStatus enumerates tenant lifecycle states.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusCancelled TenantStatus = "CANCELLED"
)

// ModuleKey identifies a gated panel feature.
type ModuleKey string

const (
	ModuleConversations ModuleKey = "conversations"
	ModuleQuickReplies  ModuleKey = "quick_replies"
	ModuleAIAssistant   ModuleKey = "ai_assistant"
	ModuleTeamChat      ModuleKey = "team_chat"
	ModuleReports       ModuleKey = "reports"
)

// CoreModules are always on regardless of plan or overrides.
var CoreModules = []ModuleKey{ModuleConversations, ModuleQuickReplies}

// Tenant is a customer organization managed by super-admins.
type Tenant struct {
	ID                    string
	Name                  string
	Slug                  string
	Plan                  TenantPlan
	Status                TenantStatus
	Locale                string
	WebhookURL            string
	ModuleOverrides       map[ModuleKey]bool
	MaxAgents             int
	BreakAllowanceSeconds int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

var planModules = map[TenantPlan][]ModuleKey{
	PlanTrial:      {ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleTeamChat, ModuleReports},
	PlanStarter:    {ModuleConversations, ModuleQuickReplies},
	PlanGrowth:     {ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleReports},
	PlanEnterprise: {ModuleConversations, ModuleQuickReplies, ModuleAIAssistant, ModuleTeamChat, ModuleReports},
}

// EffectiveModules resolves the module set for the tenant: plan defaults with
// per-tenant overrides applied. Core modules cannot be switched off.
func (t *Tenant) EffectiveModules() []ModuleKey {
	enabled := make(map[ModuleKey]bool)
	for _, key := range planModules[t.Plan] {
		enabled[key] = true
	}
	for key, on := range t.ModuleOverrides {
		enabled[key] = on
	}
	for _, key := range CoreModules {
		enabled[key] = true
	}

	result := make([]ModuleKey, 0, len(enabled))
	for _, key := range allModules {
		if enabled[key] {
			result = append(result, key)
		}
	}
	return result
}

// ModuleEnabled reports whether the tenant may use the given module.
func (t *Tenant) ModuleEnabled(key ModuleKey) bool {
	for _, k := range t.EffectiveModules() {
		if k == key {
			return true
		}
	}
	return false
}

// allModules fixes the presentation order of module lists.
var allModules = []ModuleKey{
	ModuleConversations,
	ModuleQuickReplies,
	ModuleAIAssistant,
	ModuleTeamChat,
	ModuleReports,
}

// ValidModuleKey reports whether key names a known module.
func ValidModuleKey(key ModuleKey) bool {
	for _, k := range allModules {
		if k == key {
			return true
		}
	}
	return false
}

// AllModules returns every known module key in presentation order.
func AllModules() []ModuleKey {
	out := make([]ModuleKey, len(allModules))
	copy(out, allModules)
	return out
}
