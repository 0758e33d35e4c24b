package dto

import (
	"time"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
)

// ManualAssignRequest payload.
type ManualAssignRequest struct {
	StaffID string `json:"staff_id"`
}

// ReleaseAssignmentRequest payload; the body is optional.
type ReleaseAssignmentRequest struct {
	Reason string `json:"reason"`
}

// AssignmentResponse represents an assignment.
type AssignmentResponse struct {
	ID               string                    `json:"id"`
	ServiceRequestID string                    `json:"service_request_id"`
	StaffID          string                    `json:"staff_id"`
	StaffName        string                    `json:"staff_name"`
	StaffEmail       string                    `json:"staff_email"`
	StaffPhone       string                    `json:"staff_phone,omitempty"`
	Strategy         domain.AssignmentStrategy `json:"strategy"`
	AssignedBy       *string                   `json:"assigned_by,omitempty"`
	AssignedAt       time.Time                 `json:"assigned_at"`
	Status           domain.AssignmentStatus   `json:"status"`
	EndedAt          *time.Time                `json:"ended_at,omitempty"`
}

// NewAssignmentResponse maps an assignment.
func NewAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:               a.ID,
		ServiceRequestID: a.ServiceRequestID,
		StaffID:          a.StaffID,
		StaffName:        a.StaffName,
		StaffEmail:       a.StaffEmail,
		StaffPhone:       a.StaffPhone,
		Strategy:         a.Strategy,
		AssignedBy:       a.AssignedBy,
		AssignedAt:       a.AssignedAt,
		Status:           a.Status,
		EndedAt:          a.EndedAt,
	}
}

// CandidateResponse is one ranked eligible staff member.
type CandidateResponse struct {
	Rank       int           `json:"rank"`
	Staff      StaffResponse `json:"staff"`
	DistanceKm *float64      `json:"distance_km,omitempty"`
	ActiveLoad int           `json:"active_load"`
}

// NewCandidateResponses maps ranked candidates, keeping their order.
func NewCandidateResponses(candidates []matching.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(candidates))
	for i := range candidates {
		out = append(out, CandidateResponse{
			Rank:       i + 1,
			Staff:      NewStaffResponse(&candidates[i].Staff),
			DistanceKm: candidates[i].DistanceKm,
			ActiveLoad: candidates[i].ActiveLoad,
		})
	}
	return out
}
