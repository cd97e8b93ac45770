package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// TenantsHandler manages platform-level tenant administration. Every route
// is registered behind SUPER_ADMIN.
type TenantsHandler struct {
	service *service.TenantService
}

// NewTenantsHandler constructs handler.
func NewTenantsHandler(tenantService *service.TenantService) *TenantsHandler {
	return &TenantsHandler{service: tenantService}
}

// Create POST /api/tenants.
func (h *TenantsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.service.Create(c.Context(), service.TenantCreateInput{
		Name:                  req.Name,
		Slug:                  req.Slug,
		Plan:                  req.Plan,
		Locale:                req.Locale,
		WebhookURL:            req.WebhookURL,
		MaxAgents:             req.MaxAgents,
		BreakAllowanceSeconds: req.BreakAllowanceSeconds,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// List GET /api/tenants.
func (h *TenantsHandler) List(c *fiber.Ctx) error {
	filter := service.TenantListFilter{
		Limit: parseInt(c.Query("page_size"), 20),
	}
	filter.Offset = (parseInt(c.Query("page"), 1) - 1) * filter.Limit
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TenantStatus(strings.TrimSpace(part)))
		}
	}
	if planStr := c.Query("plan"); planStr != "" {
		for _, part := range strings.Split(planStr, ",") {
			filter.Plans = append(filter.Plans, domain.TenantPlan(strings.TrimSpace(part)))
		}
	}
	if term := c.Query("search"); term != "" {
		filter.SearchTerm = &term
	}

	tenants, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TenantResponse, 0, len(tenants))
	for i := range tenants {
		items = append(items, tenantResponse(&tenants[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/tenants/:id.
func (h *TenantsHandler) Get(c *fiber.Ctx) error {
	tenant, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Update PATCH /api/tenants/:id.
func (h *TenantsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.service.UpdateProfile(c.Context(), c.Params("id"), service.TenantUpdateInput{
		Name:                  req.Name,
		Locale:                req.Locale,
		WebhookURL:            req.WebhookURL,
		MaxAgents:             req.MaxAgents,
		BreakAllowanceSeconds: req.BreakAllowanceSeconds,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// ChangePlan POST /api/tenants/:id/plan.
func (h *TenantsHandler) ChangePlan(c *fiber.Ctx) error {
	var req dto.PlanChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.service.ChangePlan(c.Context(), c.Params("id"), req.Plan)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// SetModule POST /api/tenants/:id/modules.
func (h *TenantsHandler) SetModule(c *fiber.Ctx) error {
	var req dto.ModuleOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.service.SetModuleOverride(c.Context(), c.Params("id"), req.Module, req.Enabled)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Suspend POST /api/tenants/:id/suspend.
func (h *TenantsHandler) Suspend(c *fiber.Ctx) error {
	tenant, err := h.service.Suspend(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Reactivate POST /api/tenants/:id/reactivate.
func (h *TenantsHandler) Reactivate(c *fiber.Ctx) error {
	tenant, err := h.service.Reactivate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Cancel POST /api/tenants/:id/cancel.
func (h *TenantsHandler) Cancel(c *fiber.Ctx) error {
	tenant, err := h.service.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

func tenantResponse(tenant *domain.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:                    tenant.ID,
		Name:                  tenant.Name,
		Slug:                  tenant.Slug,
		Plan:                  tenant.Plan,
		Status:                tenant.Status,
		Locale:                tenant.Locale,
		WebhookURL:            tenant.WebhookURL,
		Modules:               tenant.EffectiveModules(),
		MaxAgents:             tenant.MaxAgents,
		BreakAllowanceSeconds: tenant.BreakAllowanceSeconds,
		CreatedAt:             tenant.CreatedAt,
		UpdatedAt:             tenant.UpdatedAt,
	}
}
