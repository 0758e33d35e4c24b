package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cleaning-dispatch/internal/api/dto"
	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/service"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

// AssignmentsHandler exposes matching and assignment endpoints.
type AssignmentsHandler struct {
	service *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{service: assignmentService}
}

// Candidates GET /requests/:id/candidates.
func (h *AssignmentsHandler) Candidates(c *fiber.Ctx) error {
	candidates, err := h.service.ListCandidates(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCandidateResponses(candidates)})
}

// AutoAssign POST /requests/:id/assignment/auto.
func (h *AssignmentsHandler) AutoAssign(c *fiber.Ctx) error {
	a, err := h.service.AutoAssign(c.UserContext(), c.Params("id"), operatorID(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAssignmentResponse(a)})
}

// ManualAssign POST /requests/:id/assignment.
func (h *AssignmentsHandler) ManualAssign(c *fiber.Ctx) error {
	var req dto.ManualAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	staffID := strings.TrimSpace(req.StaffID)
	if staffID == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	a, err := h.service.ManualAssign(c.UserContext(), c.Params("id"), staffID, operatorID(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAssignmentResponse(a)})
}

// Get GET /requests/:id/assignment.
func (h *AssignmentsHandler) Get(c *fiber.Ctx) error {
	a, err := h.service.GetAssignment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssignmentResponse(a)})
}

// Release DELETE /requests/:id/assignment.
func (h *AssignmentsHandler) Release(c *fiber.Ctx) error {
	var req dto.ReleaseAssignmentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	a, err := h.service.ReleaseAssignment(c.UserContext(), c.Params("id"), operatorID(c), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssignmentResponse(a)})
}

// List GET /assignments?staff_id=&request_id=&status=.
func (h *AssignmentsHandler) List(c *fiber.Ctx) error {
	filters := service.AssignmentListFilters{
		StaffID:          optionalQuery(c, "staff_id"),
		ServiceRequestID: optionalQuery(c, "request_id"),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.AssignmentStatus(raw)
		switch status {
		case domain.AssignmentStatusAssigned, domain.AssignmentStatusReleased, domain.AssignmentStatusCompleted:
			filters.Status = &status
		default:
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
	}
	filters.Limit, filters.Offset = pagination(c, 50)

	items, err := h.service.ListAssignments(c.UserContext(), filters)
	if err != nil {
		return err
	}
	resp := make([]dto.AssignmentResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewAssignmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
