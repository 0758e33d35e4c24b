package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

// StaffService manages the cleaning staff roster.
type StaffService struct {
	staff  repository.StaffRepository
	logger *zap.Logger
}

// StaffInput carries registration fields.
type StaffInput struct {
	Name        string
	Email       string
	Phone       string
	Specialties []string
	Region      string
	Location    domain.GeoPoint
	Rating      float64
}

// StaffUpdate carries optional changes; nil fields are left untouched.
type StaffUpdate struct {
	Name        *string
	Email       *string
	Phone       *string
	Specialties []string
	Region      *string
	Location    *domain.GeoPoint
	Rating      *float64
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Status    *domain.StaffStatus
	Specialty *string
	Region    *string
	Limit     int
	Offset    int
}

// NewStaffService constructs the service.
func NewStaffService(staff repository.StaffRepository, logger *zap.Logger) *StaffService {
	return &StaffService{staff: staff, logger: logger}
}

// RegisterStaff adds a new active staff member.
func (s *StaffService) RegisterStaff(ctx context.Context, in StaffInput) (*domain.StaffMember, error) {
	staff, err := domain.NewStaffMember(in.Name, in.Email, in.Phone, in.Specialties, in.Region, in.Location, in.Rating)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.ensureEmailFree(ctx, staff.Email, ""); err != nil {
		return nil, err
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": staff.Email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff registered", zap.String("staff_id", staff.ID), zap.Strings("specialties", staff.Specialties))
	return staff, nil
}

// GetStaff fetches a staff member.
func (s *StaffService) GetStaff(ctx context.Context, id string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaff lists staff with filters.
func (s *StaffService) ListStaff(ctx context.Context, filters StaffListFilters) ([]domain.StaffMember, error) {
	staff, err := s.staff.List(ctx, repository.StaffFilter{
		Status:    filters.Status,
		Specialty: filters.Specialty,
		Region:    filters.Region,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// UpdateStaff applies partial changes to contact details, specialties, region, location and rating.
func (s *StaffService) UpdateStaff(ctx context.Context, id string, in StaffUpdate) (*domain.StaffMember, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		staff.Name = *in.Name
	}
	if in.Email != nil {
		staff.Email = *in.Email
		if err := s.ensureEmailFree(ctx, staff.Email, staff.ID); err != nil {
			return nil, err
		}
	}
	if in.Phone != nil {
		staff.Phone = *in.Phone
	}
	if in.Specialties != nil {
		staff.Specialties = domain.NormalizeSpecialties(in.Specialties)
	}
	if in.Region != nil {
		staff.Region = *in.Region
	}
	if in.Location != nil {
		staff.Location = *in.Location
	}
	if in.Rating != nil {
		staff.Rating = *in.Rating
	}
	return s.save(ctx, staff)
}

// SetStaffStatus activates or deactivates a staff member. Staff are never deleted.
func (s *StaffService) SetStaffStatus(ctx context.Context, id string, status domain.StaffStatus) (*domain.StaffMember, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	if staff.Status == status {
		return staff, nil
	}
	staff.Status = status
	updated, err := s.save(ctx, staff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff status changed", zap.String("staff_id", id), zap.String("status", string(status)))
	return updated, nil
}

// RecordCompletedService increments the completed-service counter in place.
func (s *StaffService) RecordCompletedService(ctx context.Context, id string) error {
	completed, err := s.staff.IncrementCompletedServices(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return apperrors.MapError(err)
	}
	s.logger.Debug("staff completed service", zap.String("staff_id", id), zap.Int("completed_services", completed))
	return nil
}

// ensureEmailFree rejects an email already held by a staff member other than selfID.
func (s *StaffService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return apperrors.MapError(err)
	case existing.ID != selfID:
		return apperrors.NewConflict("staff email already exists", map[string]any{"email": domain.NormalizeEmail(email)})
	}
	return nil
}

func (s *StaffService) save(ctx context.Context, staff *domain.StaffMember) (*domain.StaffMember, error) {
	staff.Normalize()
	if err := staff.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"staff_id": staff.ID})
	}
	if err := s.staff.Update(ctx, staff); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("staff email already exists", map[string]any{"email": staff.Email})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staff.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}
