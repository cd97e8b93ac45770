package service

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
)

type reportFixture struct {
	svc           *ReportService
	exports       *fakeExportRepo
	conversations *fakeConversationRepo
	tenants       *fakeTenantRepo
	enqueuer      *fakeEnqueuer
	bus           *capturedEvents
	tenant        *domain.Tenant
	principal     *auth.Principal
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	tenant := testTenant("tenant-1")
	f := &reportFixture{
		exports:       newFakeExportRepo(),
		conversations: newFakeConversationRepo(),
		tenants:       newFakeTenantRepo(tenant),
		enqueuer:      &fakeEnqueuer{},
		bus:           &capturedEvents{},
		tenant:        tenant,
		principal:     testPrincipal(tenant, "agent-1", domain.RoleAgent),
	}
	cfg := config.Config{Reports: config.ReportsConfig{ExportDir: t.TempDir(), MaxRangeDays: 92}}
	f.svc = NewReportService(cfg, ReportDependencies{
		ExportRepo:       f.exports,
		ConversationRepo: f.conversations,
		TenantRepo:       f.tenants,
		Enqueuer:         f.enqueuer,
		Dispatcher:       f.bus,
	})
	return f
}

func TestReportSummary(t *testing.T) {
	f := newReportFixture(t)
	f.conversations.rangeTotal = 42
	f.conversations.rangeStatus = map[domain.ConversationStatus]int64{domain.ConversationStatusOpen: 30, domain.ConversationStatusResolved: 12}
	f.conversations.rangePrio = map[domain.ConversationPriority]int64{domain.PriorityNormal: 40, domain.PriorityUrgent: 2}
	f.conversations.rangeChannel = map[domain.ConversationChannel]int64{domain.ChannelEmail: 42}
	f.conversations.resolved = 12
	f.conversations.avgSeconds = 5400
	f.conversations.loads = []domain.AgentLoad{{AgentID: "agent-1", Name: "Jane Doe", Assigned: 20, Resolved: 12}}

	summary, err := f.svc.Summary(context.Background(), f.principal, nil, nil)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Total != 42 {
		t.Errorf("total = %d, want 42", summary.Total)
	}
	if summary.ByStatus[domain.ConversationStatusOpen] != 30 {
		t.Errorf("open = %d, want 30", summary.ByStatus[domain.ConversationStatusOpen])
	}
	if summary.ResolvedCount != 12 || summary.AvgResolutionSeconds != 5400 {
		t.Errorf("resolution stats = %d/%f", summary.ResolvedCount, summary.AvgResolutionSeconds)
	}
	if len(summary.PerAgent) != 1 || summary.PerAgent[0].Assigned != 20 {
		t.Errorf("per agent = %+v", summary.PerAgent)
	}
	// Default period is the trailing week.
	if got := summary.PeriodTo.Sub(summary.PeriodFrom); got != 7*24*time.Hour {
		t.Errorf("period = %v, want 168h", got)
	}
}

func TestReportSummaryRangeLimits(t *testing.T) {
	f := newReportFixture(t)
	now := time.Now().UTC()

	// Inverted period.
	from := now
	to := now.Add(-time.Hour)
	_, err := f.svc.Summary(context.Background(), f.principal, &from, &to)
	wantStatus(t, err, http.StatusBadRequest)

	// Period over the cap.
	from = now.AddDate(0, 0, -200)
	to = now
	_, err = f.svc.Summary(context.Background(), f.principal, &from, &to)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestRequestExport(t *testing.T) {
	f := newReportFixture(t)

	export, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportConversations, nil, nil)
	if err != nil {
		t.Fatalf("RequestExport() error = %v", err)
	}
	if export.Status != domain.ReportStatusPending {
		t.Errorf("status = %s, want PENDING", export.Status)
	}
	if len(f.enqueuer.reports) != 1 || f.enqueuer.reports[0] != export.ID {
		t.Errorf("enqueued = %v", f.enqueuer.reports)
	}
}

func TestRequestExportUnknownKind(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportKind("everything"), nil, nil)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestRequestExportEnqueueFailure(t *testing.T) {
	f := newReportFixture(t)
	f.enqueuer.err = errors.New("redis down")

	_, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportConversations, nil, nil)
	wantStatus(t, err, http.StatusBadGateway)

	// The tracking row is marked failed so it does not hang in PENDING.
	if len(f.exports.exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(f.exports.exports))
	}
	for _, export := range f.exports.exports {
		if export.Status != domain.ReportStatusFailed {
			t.Errorf("status = %s, want FAILED", export.Status)
		}
	}
}

func TestRunExportConversationsCSV(t *testing.T) {
	f := newReportFixture(t)

	now := time.Now().UTC()
	closed := now.Add(-time.Hour)
	assignee := "agent-1"
	f.conversations.conversations["conv-1"] = &domain.Conversation{
		ID:         "conv-1",
		TenantID:   "tenant-1",
		Reference:  "CNV-AAAA1111",
		CustomerID: "customer-1",
		Channel:    domain.ChannelEmail,
		Subject:    "Billing question",
		Status:     domain.ConversationStatusResolved,
		Priority:   domain.PriorityHigh,
		AssigneeID: &assignee,
		Tags:       []string{"billing", "vip"},
		CreatedAt:  now.Add(-48 * time.Hour),
		ClosedAt:   &closed,
	}
	f.conversations.conversations["conv-2"] = &domain.Conversation{
		ID:         "conv-2",
		TenantID:   "tenant-1",
		Reference:  "CNV-BBBB2222",
		CustomerID: "customer-2",
		Channel:    domain.ChannelChat,
		Subject:    "Login loop",
		Status:     domain.ConversationStatusOpen,
		Priority:   domain.PriorityNormal,
		CreatedAt:  now.Add(-24 * time.Hour),
	}

	export, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportConversations, nil, nil)
	if err != nil {
		t.Fatalf("RequestExport() error = %v", err)
	}
	if err := f.svc.RunExport(context.Background(), export.ID); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	stored := f.exports.exports[export.ID]
	if stored.Status != domain.ReportStatusReady {
		t.Fatalf("status = %s, want READY", stored.Status)
	}
	if stored.SizeBytes == 0 {
		t.Error("size not recorded")
	}

	file, err := os.Open(stored.FilePath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "reference" || rows[0][9] != "closed_at" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "CNV-AAAA1111" || rows[1][6] != "agent-1" || rows[1][7] != "billing;vip" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "CNV-BBBB2222" || rows[2][9] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}

	completed := f.bus.ofType(events.EventReportCompleted)
	if len(completed) != 1 {
		t.Fatalf("completed events = %d, want 1", len(completed))
	}
	payload := completed[0].Payload.(events.ReportCompletedPayload)
	if payload.ExportID != export.ID || payload.Status != domain.ReportStatusReady {
		t.Errorf("payload = %+v", payload)
	}

	// Re-running a READY export does nothing.
	if err := f.svc.RunExport(context.Background(), export.ID); err != nil {
		t.Fatalf("RunExport(again) error = %v", err)
	}
	if got := len(f.bus.ofType(events.EventReportCompleted)); got != 1 {
		t.Errorf("completed events = %d after rerun, want 1", got)
	}
}

func TestRunExportAgentPerformanceCSV(t *testing.T) {
	f := newReportFixture(t)
	f.conversations.loads = []domain.AgentLoad{
		{AgentID: "agent-1", Name: "Jane Doe", Assigned: 20, Resolved: 12},
		{AgentID: "agent-2", Name: "Ali Veli", Assigned: 8, Resolved: 7},
	}

	export, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportAgentPerformance, nil, nil)
	if err != nil {
		t.Fatalf("RequestExport() error = %v", err)
	}
	if err := f.svc.RunExport(context.Background(), export.ID); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	file, err := os.Open(f.exports.exports[export.ID].FilePath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][1] != "Jane Doe" || rows[1][2] != "20" || rows[2][3] != "7" {
		t.Errorf("rows = %v", rows[1:])
	}
}

func TestRunExportLocalizedHeaders(t *testing.T) {
	f := newReportFixture(t)
	f.tenant.Locale = "tr"

	export, err := f.svc.RequestExport(context.Background(), f.principal, domain.ReportConversations, nil, nil)
	if err != nil {
		t.Fatalf("RequestExport() error = %v", err)
	}
	if err := f.svc.RunExport(context.Background(), export.ID); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	file, err := os.Open(f.exports.exports[export.ID].FilePath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if rows[0][0] != "referans" || rows[0][9] != "kapanma" {
		t.Errorf("header = %v", rows[0])
	}
}

func TestDownloadPathRequiresReady(t *testing.T) {
	f := newReportFixture(t)
	f.exports.exports["export-1"] = &domain.ReportExport{
		ID:       "export-1",
		TenantID: "tenant-1",
		Status:   domain.ReportStatusPending,
	}

	_, err := f.svc.DownloadPath(context.Background(), f.principal, "export-1")
	wantStatus(t, err, http.StatusConflict)

	f.exports.exports["export-1"].Status = domain.ReportStatusReady
	f.exports.exports["export-1"].FilePath = "/tmp/export-1.csv"
	path, err := f.svc.DownloadPath(context.Background(), f.principal, "export-1")
	if err != nil {
		t.Fatalf("DownloadPath() error = %v", err)
	}
	if path != "/tmp/export-1.csv" {
		t.Errorf("path = %q", path)
	}
}

func TestExportCrossTenantHidden(t *testing.T) {
	f := newReportFixture(t)
	f.exports.exports["export-x"] = &domain.ReportExport{
		ID:       "export-x",
		TenantID: "tenant-other",
		Status:   domain.ReportStatusReady,
	}

	_, err := f.svc.GetExport(context.Background(), f.principal, "export-x")
	wantStatus(t, err, http.StatusNotFound)
}
