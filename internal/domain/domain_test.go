package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaffStatus(t *testing.T) {
	cases := map[string]StaffStatus{
		"active":   StaffStatusActive,
		"ativo":    StaffStatusActive,
		" ATIVO ":  StaffStatusActive,
		"inactive": StaffStatusInactive,
		"inativo":  StaffStatusInactive,
	}
	for raw, want := range cases {
		got, err := ParseStaffStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseStaffStatus("ferias")
	assert.Error(t, err)
}

func TestNewStaffMember(t *testing.T) {
	s, err := NewStaffMember(" Ana ", "ANA@example.com", "", []string{"Residencial", " ", "Residencial"}, "Centro", GeoPoint{Lat: -23.5, Lng: -46.6}, 4.5)
	require.NoError(t, err)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, "ana@example.com", s.Email)
	assert.Equal(t, []string{"Residencial"}, s.Specialties)
	assert.True(t, s.EligibleFor("Residencial"))
	assert.False(t, s.EligibleFor("residencial"))

	_, err = NewStaffMember("Ana", "ana@example.com", "", nil, "", GeoPoint{}, 4)
	assert.ErrorContains(t, err, "specialty")

	_, err = NewStaffMember("Ana", "ana@example.com", "", []string{"Residencial"}, "", GeoPoint{Lat: 91}, 5.5)
	assert.ErrorContains(t, err, "rating")
	assert.ErrorContains(t, err, "latitude")
}

func TestRequestTransitions(t *testing.T) {
	allowed := []struct{ from, to RequestStatus }{
		{RequestStatusPending, RequestStatusConfirmed},
		{RequestStatusPending, RequestStatusCancelled},
		{RequestStatusConfirmed, RequestStatusInProgress},
		{RequestStatusConfirmed, RequestStatusCancelled},
		{RequestStatusConfirmed, RequestStatusPending},
		{RequestStatusInProgress, RequestStatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusCompleted))
	assert.False(t, RequestStatusInProgress.CanTransitionTo(RequestStatusCancelled))
	assert.False(t, RequestStatusCompleted.CanTransitionTo(RequestStatusPending))
	assert.True(t, RequestStatusCompleted.Terminal())
	assert.True(t, RequestStatusCancelled.Terminal())
	assert.False(t, RequestStatus("archived").Valid())
}

func TestNewServiceRequest(t *testing.T) {
	req, err := NewServiceRequest("Residencial", "Rua A, 1", GeoPoint{}, "2026-11-03", "09:30",
		ClientContact{Name: "Maria", Email: "Maria@Example.com"}, "", 15000)
	require.NoError(t, err)
	assert.Equal(t, RequestStatusPending, req.Status)
	assert.Equal(t, "maria@example.com", req.Client.Email)

	_, err = NewServiceRequest("Residencial", "Rua A, 1", GeoPoint{}, "2026-13-40", "25:00",
		ClientContact{Name: "Maria", Email: "maria@example.com"}, "", -1)
	assert.ErrorContains(t, err, "scheduled date")
	assert.ErrorContains(t, err, "scheduled time")
	assert.ErrorContains(t, err, "value")
}

func TestDistanceKm(t *testing.T) {
	saoPaulo := GeoPoint{Lat: -23.5505, Lng: -46.6333}
	rio := GeoPoint{Lat: -22.9068, Lng: -43.1729}

	assert.InDelta(t, 361, DistanceKm(saoPaulo, rio), 5)
	assert.InDelta(t, DistanceKm(saoPaulo, rio), DistanceKm(rio, saoPaulo), 1e-9)
	assert.Zero(t, DistanceKm(saoPaulo, saoPaulo))
}

func TestNewAssignment(t *testing.T) {
	req := &ServiceRequest{ID: "r1"}
	staff := &StaffMember{ID: "s1", Name: "Ana", Email: "ana@example.com", Phone: "123"}
	a := NewAssignment(req, staff, AssignmentStrategyAuto, nil, req.CreatedAt)
	assert.True(t, a.Active())
	assert.Equal(t, "ana@example.com", a.StaffEmail)
	assert.Nil(t, a.EndedAt)
}
