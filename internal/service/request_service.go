package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

// RequestService manages client service requests and their lifecycle.
type RequestService struct {
	requests    repository.ServiceRequestRepository
	history     repository.RequestHistoryRepository
	assignments *AssignmentService
	staff       *StaffService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// RequestDependencies bundles collaborators.
type RequestDependencies struct {
	Requests    repository.ServiceRequestRepository
	History     repository.RequestHistoryRepository
	Assignments *AssignmentService
	Staff       *StaffService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// CreateRequestInput carries booking fields.
type CreateRequestInput struct {
	ServiceType   string
	Address       string
	Location      domain.GeoPoint
	ScheduledDate string
	ScheduledTime string
	Client        domain.ClientContact
	Observations  string
	ValueCents    int64
}

// RequestListFilters define listing parameters.
type RequestListFilters struct {
	Statuses      []domain.RequestStatus
	ServiceType   *string
	ScheduledDate *string
	Limit         int
	Offset        int
}

// NewRequestService creates the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:    deps.Requests,
		history:     deps.History,
		assignments: deps.Assignments,
		staff:       deps.Staff,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateRequest books a new pending service request.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.ServiceRequest, error) {
	req, err := domain.NewServiceRequest(in.ServiceType, in.Address, in.Location, in.ScheduledDate, in.ScheduledTime,
		in.Client, in.Observations, in.ValueCents)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("service request created",
		zap.String("request_id", req.ID),
		zap.String("service_type", req.ServiceType),
		zap.String("scheduled_date", req.ScheduledDate))
	publish(ctx, s.dispatcher, s.logger, events.EventRequestCreated, req.ID, nil, events.RequestCreatedPayload{
		ServiceType:   req.ServiceType,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
	})
	return req, nil
}

// GetRequest fetches a service request.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return loadRequest(ctx, s.requests, id)
}

// ListRequests lists requests, newest first.
func (s *RequestService) ListRequests(ctx context.Context, filters RequestListFilters) ([]domain.ServiceRequest, error) {
	for _, st := range filters.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": st})
		}
	}
	items, err := s.requests.List(ctx, repository.ServiceRequestFilter{
		Statuses:      filters.Statuses,
		ServiceType:   filters.ServiceType,
		ScheduledDate: filters.ScheduledDate,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// ListHistory returns the audit trail of a request, oldest first.
func (s *RequestService) ListHistory(ctx context.Context, id string) ([]domain.RequestHistory, error) {
	if _, err := loadRequest(ctx, s.requests, id); err != nil {
		return nil, err
	}
	items, err := s.history.ListByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// UpdateRequestStatus moves a request along its lifecycle. Confirmation happens only through
// assignment and confirmed → pending only through ReleaseAssignment. Cancelling a confirmed
// request releases its assignment; completing it closes the assignment and credits the staff member.
func (s *RequestService) UpdateRequestStatus(ctx context.Context, id string, next domain.RequestStatus, operatorID *string) (*domain.ServiceRequest, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
	}

	unlock, err := s.assignments.guard.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	req, err := loadRequest(ctx, s.requests, id)
	if err != nil {
		return nil, err
	}
	current := req.Status
	if current == next {
		return req, nil
	}
	if err := checkManualTransition(current, next); err != nil {
		return nil, err
	}

	updated, err := s.requests.UpdateStatus(ctx, id, current, next)
	if err != nil {
		return nil, s.assignments.mapStatusError(err, id)
	}
	recordHistory(ctx, s.history, s.logger, statusChange(id, operatorID, current, next))
	s.logger.Info("request status changed",
		zap.String("request_id", id),
		zap.String("from", string(current)),
		zap.String("to", string(next)))

	switch next {
	case domain.RequestStatusCancelled:
		s.releaseOnCancel(ctx, updated, operatorID)
	case domain.RequestStatusCompleted:
		s.completeAssignment(ctx, updated, operatorID)
	}

	publish(ctx, s.dispatcher, s.logger, events.EventRequestStatusChanged, id, operatorID, events.RequestStatusChangedPayload{
		OldStatus: current,
		NewStatus: next,
	})
	return updated, nil
}

func checkManualTransition(from, to domain.RequestStatus) error {
	invalid := apperrors.NewInvalidTransition(string(from), string(to))
	switch {
	case to == domain.RequestStatusConfirmed:
		return invalid
	case from == domain.RequestStatusConfirmed && to == domain.RequestStatusPending:
		return invalid
	case !from.CanTransitionTo(to):
		return invalid
	}
	return nil
}

func (s *RequestService) releaseOnCancel(ctx context.Context, req *domain.ServiceRequest, operatorID *string) {
	active, ended, err := s.assignments.closeActive(ctx, req.ID, domain.AssignmentStatusReleased)
	if err != nil {
		s.logger.Error("release assignment of cancelled request", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	if ended == nil {
		return
	}
	recordHistory(ctx, s.history, s.logger, assignmentChange(req.ID, operatorID, active, ended))
	publish(ctx, s.dispatcher, s.logger, events.EventAssignmentReleased, req.ID, operatorID, events.AssignmentPayload{
		Assignment: *ended,
		Request:    *req,
		Reason:     "request cancelled",
	})
}

func (s *RequestService) completeAssignment(ctx context.Context, req *domain.ServiceRequest, operatorID *string) {
	active, ended, err := s.assignments.closeActive(ctx, req.ID, domain.AssignmentStatusCompleted)
	if err != nil {
		s.logger.Error("complete assignment", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	if ended == nil {
		s.logger.Warn("completed request had no active assignment", zap.String("request_id", req.ID))
		return
	}
	recordHistory(ctx, s.history, s.logger, assignmentChange(req.ID, operatorID, active, ended))
	if s.staff == nil {
		return
	}
	if err := s.staff.RecordCompletedService(ctx, ended.StaffID); err != nil {
		s.logger.Error("record completed service",
			zap.String("request_id", req.ID),
			zap.String("staff_id", ended.StaffID),
			zap.Error(err))
	}
}
