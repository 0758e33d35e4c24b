package dto

import (
	"time"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// Location is a lat/lng pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ToDomain converts the payload, treating nil as unknown.
func (l *Location) ToDomain() domain.GeoPoint {
	if l == nil {
		return domain.GeoPoint{}
	}
	return domain.GeoPoint{Lat: l.Lat, Lng: l.Lng}
}

// LocationFrom renders a point, or nil when unknown.
func LocationFrom(p domain.GeoPoint) *Location {
	if p.IsZero() {
		return nil
	}
	return &Location{Lat: p.Lat, Lng: p.Lng}
}

// RegisterStaffRequest payload.
type RegisterStaffRequest struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Specialties []string  `json:"specialties"`
	Region      string    `json:"region"`
	Location    *Location `json:"location"`
	Rating      float64   `json:"rating"`
}

// UpdateStaffRequest payload; omitted fields are unchanged.
type UpdateStaffRequest struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Specialties []string  `json:"specialties"`
	Region      *string   `json:"region"`
	Location    *Location `json:"location"`
	Rating      *float64  `json:"rating"`
}

// StaffStatusRequest payload. Accepts active/inactive and ativo/inativo.
type StaffStatusRequest struct {
	Status string `json:"status"`
}

// StaffResponse represents a roster entry.
type StaffResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone,omitempty"`
	Specialties       []string           `json:"specialties"`
	Region            string             `json:"region,omitempty"`
	Location          *Location          `json:"location,omitempty"`
	Status            domain.StaffStatus `json:"status"`
	Rating            float64            `json:"rating"`
	CompletedServices int                `json:"completed_services"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewStaffResponse maps a staff member.
func NewStaffResponse(s *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:                s.ID,
		Name:              s.Name,
		Email:             s.Email,
		Phone:             s.Phone,
		Specialties:       s.Specialties,
		Region:            s.Region,
		Location:          LocationFrom(s.Location),
		Status:            s.Status,
		Rating:            s.Rating,
		CompletedServices: s.CompletedServices,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
