package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// StaffDirectory provides read access to the full roster in registration order.
type StaffDirectory interface {
	Roster(ctx context.Context) ([]domain.StaffMember, error)
}

// LoadCounter reports how many active assignments each staff member holds.
type LoadCounter interface {
	CountActiveByStaff(ctx context.Context, staffIDs []string) (map[string]int, error)
}

// Matcher finds and ranks eligible staff for a service request.
type Matcher struct {
	directory StaffDirectory
	loads     LoadCounter
	ranker    Ranker
	timeout   time.Duration
}

// NewMatcher builds a matcher. loads may be nil when the ranker does not need it.
func NewMatcher(directory StaffDirectory, loads LoadCounter, ranker Ranker, timeout time.Duration) *Matcher {
	if ranker == nil {
		ranker = MustStrategy(StrategyRatingDistance)
	}
	return &Matcher{directory: directory, loads: loads, ranker: ranker, timeout: timeout}
}

// Strategy returns the configured ranking strategy name.
func (m *Matcher) Strategy() string {
	return m.ranker.Name()
}

// Candidates returns ranked eligible staff for req. An empty slice means nobody qualifies.
func (m *Matcher) Candidates(ctx context.Context, req *domain.ServiceRequest) ([]Candidate, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	roster, err := m.directory.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	eligible := FindEligibleStaff(req.ServiceType, roster)
	if len(eligible) == 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, len(eligible))
	for i := range eligible {
		candidates[i] = Candidate{Staff: eligible[i]}
		if !req.Location.IsZero() && !eligible[i].Location.IsZero() {
			d := domain.DistanceKm(eligible[i].Location, req.Location)
			candidates[i].DistanceKm = &d
		}
	}

	if m.ranker.NeedsLoad() && m.loads != nil {
		ids := make([]string, len(eligible))
		for i := range eligible {
			ids[i] = eligible[i].ID
		}
		counts, err := m.loads.CountActiveByStaff(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load active assignments: %w", err)
		}
		for i := range candidates {
			candidates[i].ActiveLoad = counts[candidates[i].Staff.ID]
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.ranker.Rank(candidates)
	return candidates, nil
}

// Best returns the top-ranked candidate, or false when nobody qualifies.
func (m *Matcher) Best(ctx context.Context, req *domain.ServiceRequest) (*Candidate, bool, error) {
	candidates, err := m.Candidates(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	return &candidates[0], true, nil
}
