package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
	"github.com/spec-kit/cleaning-dispatch/internal/notify"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
)

type recordingSender struct {
	mu       sync.Mutex
	emails   []notify.Message
	webhooks []any
	failTo   map[string]bool
}

func (s *recordingSender) SendEmail(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTo[msg.To] {
		return errors.New("provider unavailable")
	}
	s.emails = append(s.emails, msg)
	return nil
}

func (s *recordingSender) PostWebhook(_ context.Context, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, payload)
	return nil
}

func (s *recordingSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.emails))
	for _, m := range s.emails {
		out = append(out, m.To)
	}
	return out
}

type fixture struct {
	repos       repository.Repositories
	staff       *StaffService
	requests    *RequestService
	assignments *AssignmentService
	sender      *recordingSender
}

func newFixture(t *testing.T, strategy string) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	sender := &recordingSender{failTo: map[string]bool{}}

	ranker, err := matching.ParseStrategy(strategy)
	require.NoError(t, err)

	staff := NewStaffService(repos.Staff, logger)
	assignments := NewAssignmentService(AssignmentDependencies{
		Requests:    repos.Requests,
		Staff:       repos.Staff,
		Assignments: repos.Assignments,
		History:     repos.History,
		Matcher:     matching.NewMatcher(repos.Staff, repos.Assignments, ranker, 0),
		Locker:      persistence.NewLocalLocker(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	requests := NewRequestService(RequestDependencies{
		Requests:    repos.Requests,
		History:     repos.History,
		Assignments: assignments,
		Staff:       staff,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	NewNotificationService(dispatcher, sender, nil, logger, nil).RegisterHandlers()

	return &fixture{repos: repos, staff: staff, requests: requests, assignments: assignments, sender: sender}
}

func (f *fixture) addStaff(t *testing.T, id, email string, status domain.StaffStatus, rating float64, specialties ...string) *domain.StaffMember {
	t.Helper()
	staff, err := domain.NewStaffMember("Staff "+id, email, "+55 11 9000-000"+id, specialties, "Zona Sul", domain.GeoPoint{}, rating)
	require.NoError(t, err)
	staff.ID = id
	staff.Status = status
	require.NoError(t, f.repos.Staff.Create(context.Background(), staff))
	return staff
}

func (f *fixture) addRequest(t *testing.T, serviceType string) *domain.ServiceRequest {
	t.Helper()
	req, err := f.requests.CreateRequest(context.Background(), CreateRequestInput{
		ServiceType:   serviceType,
		Address:       "Rua das Flores, 100",
		ScheduledDate: "2026-11-03",
		ScheduledTime: "09:30",
		Client:        domain.ClientContact{Name: "Maria Souza", Email: "maria@example.com", Phone: "+55 11 98888-0000"},
		ValueCents:    18000,
	})
	require.NoError(t, err)
	return req
}

// seedScenarioRoster registers the two-member roster used across the scenarios.
func (f *fixture) seedScenarioRoster(t *testing.T) {
	t.Helper()
	f.addStaff(t, "1", "ana@example.com", domain.StaffStatusActive, 4.5, "Residencial")
	f.addStaff(t, "2", "bruno@example.com", domain.StaffStatusActive, 4.8, "Comercial")
}

func (f *fixture) assignmentCount(t *testing.T, requestID string) int {
	t.Helper()
	items, err := f.repos.Assignments.List(context.Background(), repository.AssignmentFilter{ServiceRequestID: &requestID})
	require.NoError(t, err)
	return len(items)
}

func ptr[T any](v T) *T { return &v }
