package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StaffStatus enumerates roster states. Staff are never deleted, only deactivated.
type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

// ParseStaffStatus accepts the canonical values and the Portuguese labels used by the dashboards.
func ParseStaffStatus(raw string) (StaffStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "ativo":
		return StaffStatusActive, nil
	case "inactive", "inativo":
		return StaffStatusInactive, nil
	default:
		return "", fmt.Errorf("unknown staff status %q", raw)
	}
}

// StaffMember models a cleaning professional on the roster.
type StaffMember struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	Specialties       []string
	Region            string
	Location          GeoPoint
	Status            StaffStatus
	Rating            float64
	CompletedServices int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewStaffMember validates input and returns an active staff member.
func NewStaffMember(name, email, phone string, specialties []string, region string, location GeoPoint, rating float64) (*StaffMember, error) {
	staff := &StaffMember{
		Name:        name,
		Email:       email,
		Phone:       phone,
		Specialties: specialties,
		Region:      region,
		Location:    location,
		Status:      StaffStatusActive,
		Rating:      rating,
	}
	staff.Normalize()
	if err := staff.Validate(); err != nil {
		return nil, err
	}
	return staff, nil
}

// Normalize trims contact fields, lowercases the email and de-duplicates specialties.
func (s *StaffMember) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = NormalizeEmail(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Specialties = NormalizeSpecialties(s.Specialties)
	s.Region = strings.TrimSpace(s.Region)
}

// NormalizeEmail is the canonical stored form of a staff email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks field invariants.
func (s *StaffMember) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name required"))
	}
	if email := strings.TrimSpace(s.Email); email == "" || !strings.Contains(email, "@") {
		errs = append(errs, errors.New("valid email required"))
	}
	if len(s.Specialties) == 0 {
		errs = append(errs, errors.New("at least one specialty required"))
	}
	if s.Rating < 0 || s.Rating > 5 {
		errs = append(errs, errors.New("rating must be between 0 and 5"))
	}
	if s.CompletedServices < 0 {
		errs = append(errs, errors.New("completed services must not be negative"))
	}
	if s.Status != StaffStatusActive && s.Status != StaffStatusInactive {
		errs = append(errs, fmt.Errorf("invalid status %q", s.Status))
	}
	if err := s.Location.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// IsActive reports whether the staff member can take work.
func (s *StaffMember) IsActive() bool {
	return s.Status == StaffStatusActive
}

// HasSpecialty reports an exact match against the specialty list.
func (s *StaffMember) HasSpecialty(serviceType string) bool {
	for _, sp := range s.Specialties {
		if sp == serviceType {
			return true
		}
	}
	return false
}

// EligibleFor reports whether the staff member may serve the given service type.
func (s *StaffMember) EligibleFor(serviceType string) bool {
	return s.IsActive() && s.HasSpecialty(serviceType)
}

// NormalizeSpecialties trims entries and drops blanks and duplicates, keeping first-seen order.
func NormalizeSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, sp := range in {
		sp = strings.TrimSpace(sp)
		if sp == "" {
			continue
		}
		if _, ok := seen[sp]; ok {
			continue
		}
		seen[sp] = struct{}{}
		out = append(out, sp)
	}
	return out
}
