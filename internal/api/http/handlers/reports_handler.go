package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// ReportsHandler exposes summary metrics and CSV exports.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Summary GET /api/reports/conversations/summary.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	from := parseTime(c.Query("from"))
	to := parseTime(c.Query("to"))
	summary, err := h.service.Summary(c.Context(), principal, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// RequestExport POST /api/reports/exports.
func (h *ReportsHandler) RequestExport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	export, err := h.service.RequestExport(c.Context(), principal, req.Kind, req.From, req.To)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": exportResponse(export)})
}

// ListExports GET /api/reports/exports.
func (h *ReportsHandler) ListExports(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize
	exports, err := h.service.ListExports(c.Context(), principal, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ExportResponse, 0, len(exports))
	for i := range exports {
		items = append(items, exportResponse(&exports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetExport GET /api/reports/exports/:id.
func (h *ReportsHandler) GetExport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	export, err := h.service.GetExport(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": exportResponse(export)})
}

// Download GET /api/reports/exports/:id/download.
func (h *ReportsHandler) Download(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	path, err := h.service.DownloadPath(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Download(path, filepath.Base(path))
}

func exportResponse(export *domain.ReportExport) dto.ExportResponse {
	return dto.ExportResponse{
		ID:          export.ID,
		Kind:        export.Kind,
		PeriodFrom:  export.PeriodFrom,
		PeriodTo:    export.PeriodTo,
		Status:      export.Status,
		SizeBytes:   export.SizeBytes,
		Error:       export.Error,
		CreatedAt:   export.CreatedAt,
		CompletedAt: export.CompletedAt,
	}
}
