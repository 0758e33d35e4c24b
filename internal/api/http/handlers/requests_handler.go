package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cleaning-dispatch/internal/api/dto"
	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/service"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

// RequestsHandler manages service request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.CreateRequest(c.UserContext(), service.CreateRequestInput{
		ServiceType:   req.ServiceType,
		Address:       req.Address,
		Location:      req.Location.ToDomain(),
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Client:        domain.ClientContact{Name: req.Client.Name, Email: req.Client.Email, Phone: req.Client.Phone},
		Observations:  req.Observations,
		ValueCents:    req.ValueCents,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceRequestResponse(created)})
}

// List GET /requests?status=pending,confirmed&service_type=&date=.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filters := service.RequestListFilters{
		ServiceType:   optionalQuery(c, "service_type"),
		ScheduledDate: optionalQuery(c, "date"),
	}
	for _, raw := range splitCSV(c.Query("status")) {
		filters.Statuses = append(filters.Statuses, domain.RequestStatus(raw))
	}
	filters.Limit, filters.Offset = pagination(c, 20)

	items, err := h.service.ListRequests(c.UserContext(), filters)
	if err != nil {
		return err
	}
	resp := make([]dto.ServiceRequestResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewServiceRequestResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	req, err := h.service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(req)})
}

// UpdateStatus PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateRequestStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	updated, err := h.service.UpdateRequestStatus(c.UserContext(), c.Params("id"), req.Status, operatorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(updated)})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, dto.NewHistoryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
