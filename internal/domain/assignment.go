package domain

import "time"

// AssignmentStatus tracks whether the link between request and staff is live.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusReleased  AssignmentStatus = "released"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// AssignmentStrategy records how the staff member was chosen.
type AssignmentStrategy string

const (
	AssignmentStrategyAuto   AssignmentStrategy = "auto"
	AssignmentStrategyManual AssignmentStrategy = "manual"
)

// Assignment links one service request to the staff member fulfilling it.
// Staff contact fields are copied at assignment time.
type Assignment struct {
	ID               string
	ServiceRequestID string
	StaffID          string
	StaffName        string
	StaffEmail       string
	StaffPhone       string
	Strategy         AssignmentStrategy
	AssignedBy       *string
	AssignedAt       time.Time
	Status           AssignmentStatus
	EndedAt          *time.Time
}

// NewAssignment builds an active assignment for staff on req.
func NewAssignment(req *ServiceRequest, staff *StaffMember, strategy AssignmentStrategy, assignedBy *string, at time.Time) *Assignment {
	return &Assignment{
		ServiceRequestID: req.ID,
		StaffID:          staff.ID,
		StaffName:        staff.Name,
		StaffEmail:       staff.Email,
		StaffPhone:       staff.Phone,
		Strategy:         strategy,
		AssignedBy:       assignedBy,
		AssignedAt:       at,
		Status:           AssignmentStatusAssigned,
	}
}

// Active reports whether the assignment still holds the request. Released and
// completed assignments are kept for history but no longer count as load.
func (a *Assignment) Active() bool {
	return a.Status == AssignmentStatusAssigned
}
