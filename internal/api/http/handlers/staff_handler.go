package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cleaning-dispatch/internal/api/dto"
	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/service"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

// StaffHandler exposes roster endpoints.
type StaffHandler struct {
	service *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{service: staffService}
}

// Register handles POST /staff.
func (h *StaffHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	staff, err := h.service.RegisterStaff(c.UserContext(), service.StaffInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Specialties: req.Specialties,
		Region:      req.Region,
		Location:    req.Location.ToDomain(),
		Rating:      req.Rating,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	filters := service.StaffListFilters{
		Specialty: optionalQuery(c, "specialty"),
		Region:    optionalQuery(c, "region"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStaffStatus(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		filters.Status = &status
	}
	filters.Limit, filters.Offset = pagination(c, 50)

	staff, err := h.service.ListStaff(c.UserContext(), filters)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		items = append(items, dto.NewStaffResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	staff, err := h.service.GetStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// Update handles PUT /staff/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update := service.StaffUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Specialties: req.Specialties,
		Region:      req.Region,
		Rating:      req.Rating,
	}
	if req.Location != nil {
		loc := req.Location.ToDomain()
		update.Location = &loc
	}
	staff, err := h.service.UpdateStaff(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}

// SetStatus handles PATCH /staff/:id/status.
func (h *StaffHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.StaffStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseStaffStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	staff, err := h.service.SetStaffStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(staff)})
}
