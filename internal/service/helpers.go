package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

const defaultLockTTL = 15 * time.Second

// requestGuard serializes assignment and lifecycle changes on a single request.
type requestGuard struct {
	locker persistence.Locker
	ttl    time.Duration
	logger *zap.Logger
}

func newRequestGuard(locker persistence.Locker, ttl time.Duration, logger *zap.Logger) requestGuard {
	if locker == nil {
		locker = persistence.NewLocalLocker()
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return requestGuard{locker: locker, ttl: ttl, logger: logger}
}

// lock returns ASSIGNMENT_IN_PROGRESS when another attempt holds the request.
func (g requestGuard) lock(ctx context.Context, requestID string) (func(), error) {
	release, err := g.locker.Acquire(ctx, requestID, g.ttl)
	if err != nil {
		if errors.Is(err, persistence.ErrLockHeld) {
			return nil, apperrors.NewAssignmentInProgress(requestID)
		}
		return nil, apperrors.MapError(err)
	}
	return func() {
		// The caller's context may already be cancelled; the claim must still go.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("release request lock", zap.String("request_id", requestID), zap.Error(err))
		}
	}, nil
}

func loadRequest(ctx context.Context, requests repository.ServiceRequestRepository, id string) (*domain.ServiceRequest, error) {
	req, err := requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service_request", map[string]any{"request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

func activeAssignment(ctx context.Context, assignments repository.AssignmentRepository, requestID string) (*domain.Assignment, error) {
	a, err := assignments.GetActiveByRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return a, nil
}

// recordHistory appends an audit entry. Failures are logged: by the time history is
// written the state change it describes has already been committed.
func recordHistory(ctx context.Context, repo repository.RequestHistoryRepository, logger *zap.Logger, entry *domain.RequestHistory) {
	if repo == nil {
		return
	}
	if err := repo.Create(ctx, entry); err != nil {
		logger.Error("record request history",
			zap.String("request_id", entry.ServiceRequestID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.Error(err))
	}
}

func statusChange(requestID string, actor *string, from, to domain.RequestStatus) *domain.RequestHistory {
	return &domain.RequestHistory{
		ServiceRequestID: requestID,
		ChangedBy:        actor,
		ChangeType:       domain.ChangeTypeStatus,
		OldValue:         map[string]any{"status": from},
		NewValue:         map[string]any{"status": to},
	}
}

func assignmentChange(requestID string, actor *string, old, updated *domain.Assignment) *domain.RequestHistory {
	return &domain.RequestHistory{
		ServiceRequestID: requestID,
		ChangedBy:        actor,
		ChangeType:       domain.ChangeTypeAssignment,
		OldValue:         assignmentSnapshot(old),
		NewValue:         assignmentSnapshot(updated),
	}
}

func assignmentSnapshot(a *domain.Assignment) map[string]any {
	if a == nil {
		return map[string]any{"staff_id": nil}
	}
	return map[string]any{
		"assignment_id": a.ID,
		"staff_id":      a.StaffID,
		"strategy":      a.Strategy,
		"status":        a.Status,
	}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, eventType events.EventType, requestID string, actor *string, payload any) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
