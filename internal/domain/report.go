package domain

import "time"

// ReportKind enumerates export flavors.
type ReportKind string

const (
	ReportConversations    ReportKind = "conversations"
	ReportAgentPerformance ReportKind = "agent_performance"
)

// ReportStatus enumerates export lifecycle states.
type ReportStatus string

const (
	ReportStatusPending ReportStatus = "PENDING"
	ReportStatusRunning ReportStatus = "RUNNING"
	ReportStatusReady   ReportStatus = "READY"
	ReportStatusFailed  ReportStatus = "FAILED"
)

// ReportExport tracks one asynchronous CSV export job.
type ReportExport struct {
	ID          string
	TenantID    string
	RequestedBy string
	Kind        ReportKind
	PeriodFrom  time.Time
	PeriodTo    time.Time
	Status      ReportStatus
	FilePath    string
	SizeBytes   int64
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// AgentLoad is one row of the per-agent summary breakdown.
type AgentLoad struct {
	AgentID  string `json:"agent_id"`
	Name     string `json:"name"`
	Assigned int64  `json:"assigned"`
	Resolved int64  `json:"resolved"`
}

// ConversationSummary aggregates conversation metrics over a period.
type ConversationSummary struct {
	PeriodFrom           time.Time                      `json:"period_from"`
	PeriodTo             time.Time                      `json:"period_to"`
	Total                int64                          `json:"total"`
	ByStatus             map[ConversationStatus]int64   `json:"by_status"`
	ByPriority           map[ConversationPriority]int64 `json:"by_priority"`
	ByChannel            map[ConversationChannel]int64  `json:"by_channel"`
	ResolvedCount        int64                          `json:"resolved_count"`
	AvgResolutionSeconds float64                        `json:"avg_resolution_seconds"`
	PerAgent             []AgentLoad                    `json:"per_agent"`
}
