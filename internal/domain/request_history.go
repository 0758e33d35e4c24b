package domain

import "time"

// RequestChangeType captures what changed in a history entry.
type RequestChangeType string

const (
	ChangeTypeStatus     RequestChangeType = "STATUS_CHANGE"
	ChangeTypeAssignment RequestChangeType = "ASSIGNMENT_CHANGE"
)

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID               string
	ServiceRequestID string
	ChangedBy        *string
	ChangeType       RequestChangeType
	OldValue         map[string]any
	NewValue         map[string]any
	CreatedAt        time.Time
}
