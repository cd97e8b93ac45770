package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/config"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/events"
	"github.com/asistanapp/panel-service/internal/i18n"
	"github.com/asistanapp/panel-service/internal/jobs"
	"github.com/asistanapp/panel-service/internal/repository"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

const exportPageSize = 500

// ReportService serves dashboard aggregates and runs CSV exports.
type ReportService struct {
	exports       repository.ReportExportRepository
	conversations repository.ConversationRepository
	tenants       repository.TenantRepository
	enqueuer      jobs.Enqueuer
	dispatcher    events.Dispatcher
	exportDir     string
	maxRangeDays  int
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ExportRepo       repository.ReportExportRepository
	ConversationRepo repository.ConversationRepository
	TenantRepo       repository.TenantRepository
	Enqueuer         jobs.Enqueuer
	Dispatcher       events.Dispatcher
}

// NewReportService constructs the service.
func NewReportService(cfg config.Config, deps ReportDependencies) *ReportService {
	return &ReportService{
		exports:       deps.ExportRepo,
		conversations: deps.ConversationRepo,
		tenants:       deps.TenantRepo,
		enqueuer:      deps.Enqueuer,
		dispatcher:    deps.Dispatcher,
		exportDir:     cfg.Reports.ExportDir,
		maxRangeDays:  cfg.Reports.MaxRangeDays,
	}
}

// Summary aggregates conversation metrics over a period, defaulting to the
// trailing seven days. The three aggregate queries run concurrently.
func (s *ReportService) Summary(ctx context.Context, principal *auth.Principal, from, to *time.Time) (*domain.ConversationSummary, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	periodFrom, periodTo, err := s.resolvePeriod(from, to)
	if err != nil {
		return nil, err
	}

	tenantID := principal.Tenant.ID
	summary := &domain.ConversationSummary{PeriodFrom: periodFrom, PeriodTo: periodTo}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, byStatus, byPriority, byChannel, err := s.conversations.CountsInRange(gctx, tenantID, periodFrom, periodTo)
		if err != nil {
			return err
		}
		summary.Total = total
		summary.ByStatus = byStatus
		summary.ByPriority = byPriority
		summary.ByChannel = byChannel
		return nil
	})
	g.Go(func() error {
		resolved, avgSeconds, err := s.conversations.ResolutionStats(gctx, tenantID, periodFrom, periodTo)
		if err != nil {
			return err
		}
		summary.ResolvedCount = resolved
		summary.AvgResolutionSeconds = avgSeconds
		return nil
	})
	g.Go(func() error {
		loads, err := s.conversations.AgentLoads(gctx, tenantID, periodFrom, periodTo)
		if err != nil {
			return err
		}
		summary.PerAgent = loads
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

// RequestExport queues a CSV export job and returns the tracking row.
func (s *ReportService) RequestExport(ctx context.Context, principal *auth.Principal, kind domain.ReportKind, from, to *time.Time) (*domain.ReportExport, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	if kind != domain.ReportConversations && kind != domain.ReportAgentPerformance {
		return nil, apperrors.NewValidationError("unknown report kind", map[string]any{"kind": kind})
	}
	periodFrom, periodTo, err := s.resolvePeriod(from, to)
	if err != nil {
		return nil, err
	}

	export := &domain.ReportExport{
		TenantID:    principal.Tenant.ID,
		RequestedBy: principal.Agent.ID,
		Kind:        kind,
		PeriodFrom:  periodFrom,
		PeriodTo:    periodTo,
		Status:      domain.ReportStatusPending,
	}
	if err := s.exports.Create(ctx, export); err != nil {
		return nil, err
	}

	if err := s.enqueuer.EnqueueReportExport(ctx, export.ID, export.TenantID); err != nil {
		_ = s.exports.MarkFailed(ctx, export.ID, "enqueue failed")
		return nil, apperrors.NewUpstreamError("could not queue export", err)
	}
	return export, nil
}

// GetExport returns one export row.
func (s *ReportService) GetExport(ctx context.Context, principal *auth.Principal, id string) (*domain.ReportExport, error) {
	return s.loadScoped(ctx, principal, id)
}

// ListExports returns the tenant's export history, newest first.
func (s *ReportService) ListExports(ctx context.Context, principal *auth.Principal, limit, offset int) ([]domain.ReportExport, error) {
	if principal.Tenant == nil {
		return nil, apperrors.NewForbidden("tenant context required")
	}
	return s.exports.ListByTenant(ctx, principal.Tenant.ID, normalizeLimit(limit), offset)
}

// DownloadPath resolves the file behind a READY export.
func (s *ReportService) DownloadPath(ctx context.Context, principal *auth.Principal, id string) (string, error) {
	export, err := s.loadScoped(ctx, principal, id)
	if err != nil {
		return "", err
	}
	if export.Status != domain.ReportStatusReady {
		return "", apperrors.NewConflict("export is not ready", map[string]any{"status": export.Status})
	}
	return export.FilePath, nil
}

// RunExport generates the CSV for one export job. Called from the worker;
// re-running a READY export is a no-op.
func (s *ReportService) RunExport(ctx context.Context, exportID string) error {
	export, err := s.exports.GetByID(ctx, exportID)
	if err != nil {
		return err
	}
	if export.Status == domain.ReportStatusReady {
		return nil
	}
	if err := s.exports.MarkRunning(ctx, export.ID); err != nil {
		return err
	}

	path, size, err := s.generate(ctx, export)
	if err != nil {
		_ = s.exports.MarkFailed(ctx, export.ID, err.Error())
		return err
	}
	if err := s.exports.MarkReady(ctx, export.ID, path, size); err != nil {
		return err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventReportCompleted,
		TenantID: export.TenantID,
		Actor:    events.Actor{Type: events.ActorSystem},
		Payload: events.ReportCompletedPayload{
			ExportID:    export.ID,
			RequestedBy: export.RequestedBy,
			Kind:        export.Kind,
			Status:      domain.ReportStatusReady,
			FilePath:    path,
		},
	})
	return nil
}

func (s *ReportService) generate(ctx context.Context, export *domain.ReportExport) (string, int64, error) {
	tenant, err := s.tenants.GetByID(ctx, export.TenantID)
	if err != nil {
		return "", 0, fmt.Errorf("load tenant: %w", err)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.exportDir, export.ID+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	switch export.Kind {
	case domain.ReportConversations:
		err = s.writeConversationRows(ctx, writer, export, tenant.Locale)
	case domain.ReportAgentPerformance:
		err = s.writeAgentRows(ctx, writer, export, tenant.Locale)
	default:
		err = fmt.Errorf("unknown report kind %q", export.Kind)
	}
	if err != nil {
		return "", 0, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", 0, fmt.Errorf("write export: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return "", 0, err
	}
	return path, info.Size(), nil
}

func (s *ReportService) writeConversationRows(ctx context.Context, writer *csv.Writer, export *domain.ReportExport, locale string) error {
	header := exportHeader(locale, "export.conversations.",
		"reference", "status", "priority", "channel", "subject",
		"customer_id", "assignee_id", "tags", "created_at", "closed_at")
	if err := writer.Write(header); err != nil {
		return err
	}

	from := export.PeriodFrom
	to := export.PeriodTo
	for offset := 0; ; offset += exportPageSize {
		page, err := s.conversations.ListWithFilter(ctx, repository.ConversationFilter{
			TenantID:    export.TenantID,
			CreatedFrom: &from,
			CreatedTo:   &to,
			Limit:       exportPageSize,
			Offset:      offset,
		})
		if err != nil {
			return err
		}
		for _, conv := range page {
			assignee := ""
			if conv.AssigneeID != nil {
				assignee = *conv.AssigneeID
			}
			closedAt := ""
			if conv.ClosedAt != nil {
				closedAt = conv.ClosedAt.UTC().Format(time.RFC3339)
			}
			row := []string{
				conv.Reference,
				string(conv.Status),
				string(conv.Priority),
				string(conv.Channel),
				conv.Subject,
				conv.CustomerID,
				assignee,
				strings.Join(conv.Tags, ";"),
				conv.CreatedAt.UTC().Format(time.RFC3339),
				closedAt,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		if len(page) < exportPageSize {
			return nil
		}
	}
}

func (s *ReportService) writeAgentRows(ctx context.Context, writer *csv.Writer, export *domain.ReportExport, locale string) error {
	if err := writer.Write(exportHeader(locale, "export.agents.", "agent_id", "name", "assigned", "resolved")); err != nil {
		return err
	}
	loads, err := s.conversations.AgentLoads(ctx, export.TenantID, export.PeriodFrom, export.PeriodTo)
	if err != nil {
		return err
	}
	for _, load := range loads {
		row := []string{
			load.AgentID,
			load.Name,
			strconv.FormatInt(load.Assigned, 10),
			strconv.FormatInt(load.Resolved, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// exportHeader localizes CSV column names for the tenant locale.
func exportHeader(locale, prefix string, columns ...string) []string {
	header := make([]string, len(columns))
	for i, column := range columns {
		header[i] = i18n.T(locale, prefix+column, nil)
	}
	return header
}

func (s *ReportService) resolvePeriod(from, to *time.Time) (time.Time, time.Time, error) {
	periodTo := time.Now().UTC()
	if to != nil {
		periodTo = to.UTC()
	}
	periodFrom := periodTo.AddDate(0, 0, -7)
	if from != nil {
		periodFrom = from.UTC()
	}
	if !periodFrom.Before(periodTo) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("from must be before to", nil)
	}
	if periodTo.Sub(periodFrom) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("period too large", map[string]any{"max_days": s.maxRangeDays})
	}
	return periodFrom, periodTo, nil
}

func (s *ReportService) loadScoped(ctx context.Context, principal *auth.Principal, id string) (*domain.ReportExport, error) {
	export, err := s.exports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.IsSuperAdmin() {
		return export, nil
	}
	if principal.Tenant == nil || export.TenantID != principal.Tenant.ID {
		return nil, apperrors.NewNotFound("export", nil)
	}
	return export, nil
}
