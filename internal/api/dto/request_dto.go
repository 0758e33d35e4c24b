package dto

import (
	"time"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// ClientContact payload.
type ClientContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CreateServiceRequest payload.
type CreateServiceRequest struct {
	ServiceType   string        `json:"service_type"`
	Address       string        `json:"address"`
	Location      *Location     `json:"location"`
	ScheduledDate string        `json:"scheduled_date"`
	ScheduledTime string        `json:"scheduled_time"`
	Client        ClientContact `json:"client"`
	Observations  string        `json:"observations"`
	ValueCents    int64         `json:"value_cents"`
}

// UpdateRequestStatusRequest payload.
type UpdateRequestStatusRequest struct {
	Status domain.RequestStatus `json:"status"`
}

// ServiceRequestResponse represents a booking.
type ServiceRequestResponse struct {
	ID            string               `json:"id"`
	ServiceType   string               `json:"service_type"`
	Address       string               `json:"address"`
	Location      *Location            `json:"location,omitempty"`
	ScheduledDate string               `json:"scheduled_date"`
	ScheduledTime string               `json:"scheduled_time"`
	Client        ClientContact        `json:"client"`
	Observations  string               `json:"observations,omitempty"`
	ValueCents    int64                `json:"value_cents"`
	Status        domain.RequestStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewServiceRequestResponse maps a request.
func NewServiceRequestResponse(r *domain.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:            r.ID,
		ServiceType:   r.ServiceType,
		Address:       r.Address,
		Location:      LocationFrom(r.Location),
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		Client:        ClientContact{Name: r.Client.Name, Email: r.Client.Email, Phone: r.Client.Phone},
		Observations:  r.Observations,
		ValueCents:    r.ValueCents,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                   `json:"id"`
	ChangedBy  *string                  `json:"changed_by"`
	ChangeType domain.RequestChangeType `json:"change_type"`
	OldValue   map[string]any           `json:"old_value"`
	NewValue   map[string]any           `json:"new_value"`
	CreatedAt  time.Time                `json:"created_at"`
}

// NewHistoryResponse maps an audit entry.
func NewHistoryResponse(h *domain.RequestHistory) HistoryResponse {
	return HistoryResponse{
		ID:         h.ID,
		ChangedBy:  h.ChangedBy,
		ChangeType: h.ChangeType,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		CreatedAt:  h.CreatedAt,
	}
}
