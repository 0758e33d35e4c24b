package events

import (
	"time"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventAssignmentCreated    EventType = "assignment_created"
	EventAssignmentReleased   EventType = "assignment_released"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     *string     `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	ServiceType   string `json:"service_type"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// AssignmentPayload carries the assignment together with the request it serves,
// so handlers can reach both the client and the staff member.
type AssignmentPayload struct {
	Assignment domain.Assignment     `json:"assignment"`
	Request    domain.ServiceRequest `json:"request"`
	Reason     string                `json:"reason,omitempty"`
}
