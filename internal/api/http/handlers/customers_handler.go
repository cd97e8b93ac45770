package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/asistanapp/panel-service/internal/api/dto"
	"github.com/asistanapp/panel-service/internal/auth"
	"github.com/asistanapp/panel-service/internal/domain"
	"github.com/asistanapp/panel-service/internal/service"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

// CustomersHandler manages CRM record endpoints.
type CustomersHandler struct {
	service *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{service: customerService}
}

// Create POST /api/customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.service.Create(c.Context(), principal, service.CustomerCreateInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ExternalRef: req.ExternalRef,
		Note:        req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": customerResponse(customer)})
}

// List GET /api/customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.CustomerListFilter{
		Limit: parseInt(c.Query("page_size"), 20),
	}
	filter.Offset = (parseInt(c.Query("page"), 1) - 1) * filter.Limit
	if term := c.Query("search"); term != "" {
		filter.SearchTerm = &term
	}
	customers, err := h.service.List(c.Context(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, customerResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	customer, err := h.service.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

// Update PATCH /api/customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.service.Update(c.Context(), principal, c.Params("id"), service.CustomerUpdateInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Note:  req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

func customerResponse(customer *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:          customer.ID,
		Name:        customer.Name,
		Email:       customer.Email,
		Phone:       customer.Phone,
		ExternalRef: customer.ExternalRef,
		Note:        customer.Note,
		LastSeenAt:  customer.LastSeenAt,
		CreatedAt:   customer.CreatedAt,
		UpdatedAt:   customer.UpdatedAt,
	}
}
