package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
	"github.com/spec-kit/cleaning-dispatch/internal/observability"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

const outcomeAssigned = "assigned"

// AssignmentService links service requests to staff members.
type AssignmentService struct {
	requests    repository.ServiceRequestRepository
	staff       repository.StaffRepository
	assignments repository.AssignmentRepository
	history     repository.RequestHistoryRepository
	matcher     *matching.Matcher
	guard       requestGuard
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Requests    repository.ServiceRequestRepository
	Staff       repository.StaffRepository
	Assignments repository.AssignmentRepository
	History     repository.RequestHistoryRepository
	Matcher     *matching.Matcher
	Locker      persistence.Locker
	LockTTL     time.Duration
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// AssignmentListFilters define listing parameters.
type AssignmentListFilters struct {
	StaffID          *string
	ServiceRequestID *string
	Status           *domain.AssignmentStatus
	Limit            int
	Offset           int
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = matching.NewMatcher(deps.Staff, deps.Assignments, nil, 0)
	}
	return &AssignmentService{
		requests:    deps.Requests,
		staff:       deps.Staff,
		assignments: deps.Assignments,
		history:     deps.History,
		matcher:     matcher,
		guard:       newRequestGuard(deps.Locker, deps.LockTTL, logger),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListCandidates returns the ranked eligible staff for a request. An empty list is not an error.
func (s *AssignmentService) ListCandidates(ctx context.Context, requestID string) ([]matching.Candidate, error) {
	req, err := loadRequest(ctx, s.requests, requestID)
	if err != nil {
		return nil, err
	}
	return s.candidates(ctx, req)
}

// AutoAssign assigns the best-ranked eligible staff member to a pending request.
func (s *AssignmentService) AutoAssign(ctx context.Context, requestID string, operatorID *string) (*domain.Assignment, error) {
	strategy := s.matcher.Strategy()
	a, err := s.assign(ctx, requestID, operatorID, func(req *domain.ServiceRequest) (*domain.StaffMember, error) {
		candidates, err := s.candidates(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, apperrors.NewNoAvailableStaff(req.ServiceType)
		}
		best := candidates[0].Staff
		return &best, nil
	}, domain.AssignmentStrategyAuto)
	s.recordOutcome(strategy, err)
	return a, err
}

// ManualAssign assigns the operator's chosen staff member, who must be eligible for the request.
func (s *AssignmentService) ManualAssign(ctx context.Context, requestID, staffID string, operatorID *string) (*domain.Assignment, error) {
	a, err := s.assign(ctx, requestID, operatorID, func(req *domain.ServiceRequest) (*domain.StaffMember, error) {
		roster, err := s.staff.Roster(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		staff, ok := matching.ContainsStaff(matching.FindEligibleStaff(req.ServiceType, roster), staffID)
		if !ok {
			return nil, apperrors.NewIneligibleStaff(staffID, req.ServiceType)
		}
		return staff, nil
	}, domain.AssignmentStrategyManual)
	s.recordOutcome(string(domain.AssignmentStrategyManual), err)
	return a, err
}

// ReleaseAssignment withdraws the active assignment of a confirmed request and returns it to pending.
func (s *AssignmentService) ReleaseAssignment(ctx context.Context, requestID string, operatorID *string, reason string) (*domain.Assignment, error) {
	unlock, err := s.guard.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	req, err := loadRequest(ctx, s.requests, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestStatusConfirmed {
		return nil, apperrors.NewInvalidState("only confirmed requests can be released",
			map[string]any{"request_id": requestID, "status": req.Status})
	}
	active, err := activeAssignment(ctx, s.assignments, requestID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, apperrors.NewNotFound("assignment", map[string]any{"request_id": requestID})
	}

	updated, err := s.requests.UpdateStatus(ctx, requestID, domain.RequestStatusConfirmed, domain.RequestStatusPending)
	if err != nil {
		return nil, s.mapStatusError(err, requestID)
	}
	ended, err := s.endAssignment(ctx, active, domain.AssignmentStatusReleased)
	if err != nil {
		s.restoreConfirmed(ctx, requestID)
		return nil, err
	}

	recordHistory(ctx, s.history, s.logger, assignmentChange(requestID, operatorID, active, ended))
	recordHistory(ctx, s.history, s.logger, statusChange(requestID, operatorID, domain.RequestStatusConfirmed, domain.RequestStatusPending))
	s.logger.Info("assignment released",
		zap.String("request_id", requestID),
		zap.String("staff_id", ended.StaffID),
		zap.String("reason", reason))
	publish(ctx, s.dispatcher, s.logger, events.EventAssignmentReleased, requestID, operatorID, events.AssignmentPayload{
		Assignment: *ended,
		Request:    *updated,
		Reason:     reason,
	})
	return ended, nil
}

// GetAssignment returns the active assignment of a request, or its most recent one when none is active.
func (s *AssignmentService) GetAssignment(ctx context.Context, requestID string) (*domain.Assignment, error) {
	if _, err := loadRequest(ctx, s.requests, requestID); err != nil {
		return nil, err
	}
	active, err := activeAssignment(ctx, s.assignments, requestID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}
	latest, err := s.assignments.List(ctx, repository.AssignmentFilter{ServiceRequestID: &requestID, Limit: 1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(latest) == 0 {
		return nil, apperrors.NewNotFound("assignment", map[string]any{"request_id": requestID})
	}
	return &latest[0], nil
}

// ListAssignments lists assignments, newest first.
func (s *AssignmentService) ListAssignments(ctx context.Context, filters AssignmentListFilters) ([]domain.Assignment, error) {
	items, err := s.assignments.List(ctx, repository.AssignmentFilter{
		StaffID:          filters.StaffID,
		ServiceRequestID: filters.ServiceRequestID,
		Status:           filters.Status,
		Limit:            filters.Limit,
		Offset:           filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

type staffPicker func(req *domain.ServiceRequest) (*domain.StaffMember, error)

func (s *AssignmentService) assign(ctx context.Context, requestID string, operatorID *string, pick staffPicker, strategy domain.AssignmentStrategy) (*domain.Assignment, error) {
	// Fail fast before contending for the lock.
	req, err := s.assignableRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.guard.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock: a concurrent attempt may have finished in between.
	if req, err = s.assignableRequest(ctx, req.ID); err != nil {
		return nil, err
	}

	staff, err := pick(req)
	if err != nil {
		return nil, err
	}

	assignment := domain.NewAssignment(req, staff, strategy, operatorID, s.now())
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrActiveAssignmentExists) {
			return nil, apperrors.NewAlreadyAssigned(requestID)
		}
		return nil, apperrors.MapError(err)
	}

	confirmed, err := s.requests.UpdateStatus(ctx, req.ID, domain.RequestStatusPending, domain.RequestStatusConfirmed)
	if err != nil {
		s.compensate(ctx, assignment)
		return nil, s.mapStatusError(err, requestID)
	}

	recordHistory(ctx, s.history, s.logger, assignmentChange(req.ID, operatorID, nil, assignment))
	recordHistory(ctx, s.history, s.logger, statusChange(req.ID, operatorID, domain.RequestStatusPending, domain.RequestStatusConfirmed))
	s.logger.Info("request assigned",
		zap.String("request_id", req.ID),
		zap.String("staff_id", assignment.StaffID),
		zap.String("strategy", string(strategy)),
		zap.String("ranking", s.matcher.Strategy()))
	publish(ctx, s.dispatcher, s.logger, events.EventAssignmentCreated, req.ID, operatorID, events.AssignmentPayload{
		Assignment: *assignment,
		Request:    *confirmed,
	})
	return assignment, nil
}

func (s *AssignmentService) assignableRequest(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	req, err := loadRequest(ctx, s.requests, requestID)
	if err != nil {
		return nil, err
	}
	active, err := activeAssignment(ctx, s.assignments, requestID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperrors.NewAlreadyAssigned(requestID)
	}
	if req.Status != domain.RequestStatusPending {
		return nil, apperrors.NewInvalidState("only pending requests can be assigned",
			map[string]any{"request_id": requestID, "status": req.Status})
	}
	return req, nil
}

func (s *AssignmentService) candidates(ctx context.Context, req *domain.ServiceRequest) ([]matching.Candidate, error) {
	start := time.Now()
	candidates, err := s.matcher.Candidates(ctx, req)
	s.metrics.ObserveCandidateLookup(time.Since(start))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return candidates, nil
}

// compensate ends an assignment whose request could not be confirmed.
func (s *AssignmentService) compensate(ctx context.Context, a *domain.Assignment) {
	if _, err := s.assignments.End(context.WithoutCancel(ctx), a.ID, domain.AssignmentStatusReleased, s.now()); err != nil {
		s.logger.Error("compensate orphaned assignment",
			zap.String("assignment_id", a.ID),
			zap.String("request_id", a.ServiceRequestID),
			zap.Error(err))
	}
}

// restoreConfirmed undoes the confirmed -> pending move of a release whose assignment could not be ended.
func (s *AssignmentService) restoreConfirmed(ctx context.Context, requestID string) {
	if _, err := s.requests.UpdateStatus(context.WithoutCancel(ctx), requestID, domain.RequestStatusPending, domain.RequestStatusConfirmed); err != nil {
		s.logger.Error("restore confirmed status after failed release",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// closeActive ends the request's active assignment, if any, with the given status.
func (s *AssignmentService) closeActive(ctx context.Context, requestID string, status domain.AssignmentStatus) (*domain.Assignment, *domain.Assignment, error) {
	active, err := activeAssignment(ctx, s.assignments, requestID)
	if err != nil || active == nil {
		return nil, nil, err
	}
	ended, err := s.endAssignment(ctx, active, status)
	if err != nil {
		return nil, nil, err
	}
	return active, ended, nil
}

func (s *AssignmentService) endAssignment(ctx context.Context, a *domain.Assignment, status domain.AssignmentStatus) (*domain.Assignment, error) {
	ended, err := s.assignments.End(ctx, a.ID, status, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewConflict("assignment already ended", map[string]any{"assignment_id": a.ID})
		}
		return nil, apperrors.MapError(err)
	}
	return ended, nil
}

func (s *AssignmentService) mapStatusError(err error, requestID string) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.NewInvalidState("request status changed concurrently", map[string]any{"request_id": requestID})
	}
	return apperrors.MapError(err)
}

func (s *AssignmentService) recordOutcome(strategy string, err error) {
	if err == nil {
		s.metrics.RecordAssignment(strategy, outcomeAssigned)
		return
	}
	s.metrics.RecordAssignment(strategy, apperrors.ToDomainError(err).Code)
}
