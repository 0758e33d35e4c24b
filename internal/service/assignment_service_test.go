package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	apperrors "github.com/spec-kit/cleaning-dispatch/pkg/util/errorutil"
)

func TestAutoAssign_PicksOnlyEligibleStaff(t *testing.T) {
	f := newFixture(t, matching.StrategyRosterOrder)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Residencial")

	a, err := f.assignments.AutoAssign(context.Background(), req.ID, ptr("op-1"))
	require.NoError(t, err)
	assert.Equal(t, "1", a.StaffID)
	assert.Equal(t, "ana@example.com", a.StaffEmail)
	assert.Equal(t, domain.AssignmentStrategyAuto, a.Strategy)
	assert.Equal(t, domain.AssignmentStatusAssigned, a.Status)
	require.NotNil(t, a.AssignedBy)
	assert.Equal(t, "op-1", *a.AssignedBy)

	got, err := f.requests.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusConfirmed, got.Status)
}

func TestAutoAssign_NoAvailableStaffCreatesNothing(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.addStaff(t, "1", "ana@example.com", domain.StaffStatusInactive, 4.5, "Residencial")
	req := f.addRequest(t, "Residencial")

	_, err := f.assignments.AutoAssign(context.Background(), req.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoAvailableStaff)
	assert.Zero(t, f.assignmentCount(t, req.ID))

	got, err := f.requests.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, got.Status)
}

func TestAutoAssign_UsesConfiguredRanking(t *testing.T) {
	f := newFixture(t, matching.StrategyRating)
	f.addStaff(t, "1", "ana@example.com", domain.StaffStatusActive, 3.9, "Residencial")
	f.addStaff(t, "2", "bruno@example.com", domain.StaffStatusActive, 4.9, "Residencial")
	req := f.addRequest(t, "Residencial")

	a, err := f.assignments.AutoAssign(context.Background(), req.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", a.StaffID)
}

func TestManualAssign_RejectsIneligibleStaff(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Residencial")

	_, err := f.assignments.ManualAssign(context.Background(), req.ID, "2", ptr("op-1"))
	assert.ErrorIs(t, err, apperrors.ErrIneligibleStaff)

	_, err = f.assignments.ManualAssign(context.Background(), req.ID, "does-not-exist", ptr("op-1"))
	assert.ErrorIs(t, err, apperrors.ErrIneligibleStaff)
	assert.Zero(t, f.assignmentCount(t, req.ID))
}

func TestManualAssign_Succeeds(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Comercial")

	a, err := f.assignments.ManualAssign(context.Background(), req.ID, "2", ptr("op-7"))
	require.NoError(t, err)
	assert.Equal(t, "2", a.StaffID)
	assert.Equal(t, domain.AssignmentStrategyManual, a.Strategy)

	_, err = f.assignments.ManualAssign(context.Background(), req.ID, "2", ptr("op-7"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)
	assert.Equal(t, 1, f.assignmentCount(t, req.ID))
}

func TestAssign_UnknownRequest(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	_, err := f.assignments.AutoAssign(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAutoAssign_ConcurrentAttemptsYieldOneAssignment(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	f.addStaff(t, "3", "carla@example.com", domain.StaffStatusActive, 4.1, "Residencial")
	req := f.addRequest(t, "Residencial")

	const attempts = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.assignments.AutoAssign(context.Background(), req.ID, nil)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			code := apperrors.ToDomainError(err).Code
			assert.Contains(t, []string{apperrors.CodeAlreadyAssigned, apperrors.CodeAssignmentInProgress, apperrors.CodeInvalidState}, code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, f.assignmentCount(t, req.ID))
}

func TestReleaseAssignment_AllowsReassignment(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.addStaff(t, "1", "ana@example.com", domain.StaffStatusActive, 4.5, "Residencial")
	f.addStaff(t, "2", "bruno@example.com", domain.StaffStatusActive, 4.0, "Residencial")
	req := f.addRequest(t, "Residencial")
	ctx := context.Background()

	first, err := f.assignments.AutoAssign(ctx, req.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", first.StaffID)

	released, err := f.assignments.ReleaseAssignment(ctx, req.ID, ptr("op-1"), "client asked for another professional")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusReleased, released.Status)
	require.NotNil(t, released.EndedAt)

	got, err := f.requests.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, got.Status)

	second, err := f.assignments.ManualAssign(ctx, req.ID, "2", ptr("op-1"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, err := f.assignments.GetAssignment(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, 2, f.assignmentCount(t, req.ID))
}

func TestReleaseAssignment_RequiresConfirmedRequest(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Residencial")

	_, err := f.assignments.ReleaseAssignment(context.Background(), req.ID, nil, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestGetAssignment_NotFoundBeforeAssigning(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	req := f.addRequest(t, "Residencial")

	_, err := f.assignments.GetAssignment(context.Background(), req.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListCandidates_EmptyIsNotAnError(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Pós-obra")

	candidates, err := f.assignments.ListCandidates(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAssignment_SendsClientAndStaffMessages(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Residencial")

	_, err := f.assignments.AutoAssign(context.Background(), req.ID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"maria@example.com", "ana@example.com"}, f.sender.sentTo())
}

func TestAssignment_NotificationFailureKeepsAssignment(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	f.sender.failTo["maria@example.com"] = true
	f.sender.failTo["ana@example.com"] = true
	req := f.addRequest(t, "Residencial")

	a, err := f.assignments.AutoAssign(context.Background(), req.ID, nil)
	require.NoError(t, err)

	current, err := f.assignments.GetAssignment(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, current.ID)
	assert.True(t, current.Active())
}

func TestListAssignments_FiltersByStaff(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	ctx := context.Background()
	r1 := f.addRequest(t, "Residencial")
	r2 := f.addRequest(t, "Comercial")
	_, err := f.assignments.AutoAssign(ctx, r1.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.AutoAssign(ctx, r2.ID, nil)
	require.NoError(t, err)

	items, err := f.assignments.ListAssignments(ctx, AssignmentListFilters{StaffID: ptr("2")})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, r2.ID, items[0].ServiceRequestID)
}

type endFailingAssignments struct {
	repository.AssignmentRepository
	err error
}

func (r endFailingAssignments) End(context.Context, string, domain.AssignmentStatus, time.Time) (*domain.Assignment, error) {
	return nil, r.err
}

func TestReleaseAssignment_FailedEndKeepsRequestConfirmed(t *testing.T) {
	f := newFixture(t, matching.StrategyRatingDistance)
	f.seedScenarioRoster(t)
	req := f.addRequest(t, "Residencial")
	ctx := context.Background()

	assigned, err := f.assignments.AutoAssign(ctx, req.ID, nil)
	require.NoError(t, err)

	broken := NewAssignmentService(AssignmentDependencies{
		Requests:    f.repos.Requests,
		Staff:       f.repos.Staff,
		Assignments: endFailingAssignments{AssignmentRepository: f.repos.Assignments, err: errors.New("connection reset")},
		History:     f.repos.History,
		Matcher:     matching.NewMatcher(f.repos.Staff, f.repos.Assignments, matching.MustStrategy(matching.StrategyRatingDistance), 0),
		Locker:      persistence.NewLocalLocker(),
		Logger:      zap.NewNop(),
	})
	_, err = broken.ReleaseAssignment(ctx, req.ID, nil, "reschedule")
	require.Error(t, err)

	got, err := f.requests.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusConfirmed, got.Status)

	current, err := f.assignments.GetAssignment(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, current.ID)
	assert.True(t, current.Active())

	released, err := f.assignments.ReleaseAssignment(ctx, req.ID, nil, "reschedule")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentStatusReleased, released.Status)
}
