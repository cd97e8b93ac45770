package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asistanapp/panel-service/internal/domain"
)

// ReportExportRepository encapsulates export job persistence.
type ReportExportRepository interface {
	Create(ctx context.Context, export *domain.ReportExport) error
	GetByID(ctx context.Context, id string) (*domain.ReportExport, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]domain.ReportExport, error)
	MarkRunning(ctx context.Context, id string) error
	MarkReady(ctx context.Context, id, filePath string, sizeBytes int64) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type reportExportRepository struct {
	pool *pgxpool.Pool
}

// NewReportExportRepository instantiates repository.
func NewReportExportRepository(pool *pgxpool.Pool) ReportExportRepository {
	return &reportExportRepository{pool: pool}
}

func (r *reportExportRepository) Create(ctx context.Context, export *domain.ReportExport) error {
	const query = `
        INSERT INTO report_exports (tenant_id, requested_by, kind, period_from, period_to, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		export.TenantID,
		export.RequestedBy,
		export.Kind,
		export.PeriodFrom,
		export.PeriodTo,
		export.Status,
	).Scan(&export.ID, &export.CreatedAt)
}

func (r *reportExportRepository) GetByID(ctx context.Context, id string) (*domain.ReportExport, error) {
	const query = `
        SELECT id, tenant_id, requested_by, kind, period_from, period_to, status,
               file_path, size_bytes, error, created_at, completed_at
        FROM report_exports WHERE id=$1`
	var export domain.ReportExport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&export.ID,
		&export.TenantID,
		&export.RequestedBy,
		&export.Kind,
		&export.PeriodFrom,
		&export.PeriodTo,
		&export.Status,
		&export.FilePath,
		&export.SizeBytes,
		&export.Error,
		&export.CreatedAt,
		&export.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &export, nil
}

func (r *reportExportRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]domain.ReportExport, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, tenant_id, requested_by, kind, period_from, period_to, status,
               file_path, size_bytes, error, created_at, completed_at
        FROM report_exports WHERE tenant_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReportExport
	for rows.Next() {
		var export domain.ReportExport
		if err := rows.Scan(
			&export.ID,
			&export.TenantID,
			&export.RequestedBy,
			&export.Kind,
			&export.PeriodFrom,
			&export.PeriodTo,
			&export.Status,
			&export.FilePath,
			&export.SizeBytes,
			&export.Error,
			&export.CreatedAt,
			&export.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, export)
	}
	return result, rows.Err()
}

func (r *reportExportRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE report_exports SET status=$1 WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.ReportStatusRunning, id, domain.ReportStatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportExportRepository) MarkReady(ctx context.Context, id, filePath string, sizeBytes int64) error {
	const query = `
        UPDATE report_exports SET status=$1, file_path=$2, size_bytes=$3, completed_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, domain.ReportStatusReady, filePath, sizeBytes, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportExportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `
        UPDATE report_exports SET status=$1, error=$2, completed_at=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, domain.ReportStatusFailed, reason, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
