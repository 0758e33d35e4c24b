package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

func km(v float64) *float64 { return &v }

func candidateIDs(c []Candidate) []string {
	out := make([]string, 0, len(c))
	for _, x := range c {
		out = append(out, x.Staff.ID)
	}
	return out
}

func TestParseStrategy(t *testing.T) {
	r, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyRatingDistance, r.Name())

	r, err = ParseStrategy(" Balanced ")
	require.NoError(t, err)
	assert.Equal(t, StrategyBalanced, r.Name())
	assert.True(t, r.NeedsLoad())

	_, err = ParseStrategy("random")
	assert.Error(t, err)
	assert.Panics(t, func() { MustStrategy("random") })
}

func TestRankers(t *testing.T) {
	base := func() []Candidate {
		return []Candidate{
			{Staff: member("1", domain.StaffStatusActive, 4.0), DistanceKm: km(2), ActiveLoad: 3},
			{Staff: member("2", domain.StaffStatusActive, 4.8), DistanceKm: nil, ActiveLoad: 1},
			{Staff: member("3", domain.StaffStatusActive, 4.8), DistanceKm: km(9), ActiveLoad: 1},
			{Staff: member("4", domain.StaffStatusActive, 4.0), DistanceKm: km(1), ActiveLoad: 0},
		}
	}

	cases := []struct {
		strategy string
		want     []string
	}{
		{StrategyRosterOrder, []string{"1", "2", "3", "4"}},
		{StrategyRating, []string{"2", "3", "1", "4"}},
		{StrategyRatingDistance, []string{"3", "2", "4", "1"}},
		{StrategyBalanced, []string{"4", "3", "2", "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.strategy, func(t *testing.T) {
			c := base()
			MustStrategy(tc.strategy).Rank(c)
			assert.Equal(t, tc.want, candidateIDs(c))
		})
	}
}

type fakeDirectory struct {
	roster []domain.StaffMember
	err    error
}

func (d fakeDirectory) Roster(ctx context.Context) ([]domain.StaffMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.roster, d.err
}

type fakeLoads map[string]int

func (l fakeLoads) CountActiveByStaff(_ context.Context, staffIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(staffIDs))
	for _, id := range staffIDs {
		out[id] = l[id]
	}
	return out, nil
}

func TestMatcher_Candidates(t *testing.T) {
	roster := []domain.StaffMember{
		member("1", domain.StaffStatusActive, 4.5, "Residencial"),
		member("2", domain.StaffStatusActive, 4.5, "Residencial"),
		member("3", domain.StaffStatusInactive, 5, "Residencial"),
	}
	roster[0].Location = domain.GeoPoint{Lat: -23.60, Lng: -46.70}
	roster[1].Location = domain.GeoPoint{Lat: -23.56, Lng: -46.65}
	req := &domain.ServiceRequest{ServiceType: "Residencial", Location: domain.GeoPoint{Lat: -23.55, Lng: -46.64}}

	m := NewMatcher(fakeDirectory{roster: roster}, fakeLoads{"2": 4}, MustStrategy(StrategyRatingDistance), time.Second)
	got, err := m.Candidates(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, candidateIDs(got))
	require.NotNil(t, got[0].DistanceKm)
	assert.Less(t, *got[0].DistanceKm, *got[1].DistanceKm)
	assert.Zero(t, got[0].ActiveLoad, "load is only fetched for strategies that use it")

	balanced := NewMatcher(fakeDirectory{roster: roster}, fakeLoads{"2": 4}, MustStrategy(StrategyBalanced), 0)
	best, ok, err := balanced.Best(context.Background(), req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", best.Staff.ID)
}

func TestMatcher_NoCandidates(t *testing.T) {
	m := NewMatcher(fakeDirectory{}, nil, nil, 0)
	assert.Equal(t, StrategyRatingDistance, m.Strategy())

	_, ok, err := m.Best(context.Background(), &domain.ServiceRequest{ServiceType: "Residencial"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatcher_Errors(t *testing.T) {
	boom := errors.New("db down")
	m := NewMatcher(fakeDirectory{err: boom}, nil, nil, 0)
	_, err := m.Candidates(context.Background(), &domain.ServiceRequest{ServiceType: "Residencial"})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMatcher(fakeDirectory{}, nil, nil, time.Second).Candidates(ctx, &domain.ServiceRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
