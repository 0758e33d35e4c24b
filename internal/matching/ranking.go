package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyRosterOrder    = "roster_order"
	StrategyRating         = "rating"
	StrategyRatingDistance = "rating_distance"
	StrategyBalanced       = "balanced"
)

// Candidate is an eligible staff member annotated with ranking inputs.
type Candidate struct {
	Staff      domain.StaffMember
	DistanceKm *float64
	ActiveLoad int
}

// Ranker orders candidates in place, best first.
type Ranker interface {
	Name() string
	NeedsLoad() bool
	Rank(candidates []Candidate)
}

type lessFunc func(a, b *Candidate) int

type ranker struct {
	name      string
	needsLoad bool
	keys      []lessFunc
}

func (r ranker) Name() string   { return r.name }
func (r ranker) NeedsLoad() bool { return r.needsLoad }

// Rank is stable, so roster order breaks every remaining tie.
func (r ranker) Rank(candidates []Candidate) {
	if len(r.keys) == 0 {
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		for _, key := range r.keys {
			if c := key(&candidates[i], &candidates[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func byRatingDesc(a, b *Candidate) int {
	switch {
	case a.Staff.Rating > b.Staff.Rating:
		return -1
	case a.Staff.Rating < b.Staff.Rating:
		return 1
	}
	return 0
}

// Unknown distances sort after known ones.
func byDistanceAsc(a, b *Candidate) int {
	switch {
	case a.DistanceKm == nil && b.DistanceKm == nil:
		return 0
	case a.DistanceKm == nil:
		return 1
	case b.DistanceKm == nil:
		return -1
	case *a.DistanceKm < *b.DistanceKm:
		return -1
	case *a.DistanceKm > *b.DistanceKm:
		return 1
	}
	return 0
}

func byLoadAsc(a, b *Candidate) int {
	return a.ActiveLoad - b.ActiveLoad
}

// ParseStrategy resolves a configured strategy name.
func ParseStrategy(name string) (Ranker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyRosterOrder:
		return ranker{name: StrategyRosterOrder}, nil
	case StrategyRating:
		return ranker{name: StrategyRating, keys: []lessFunc{byRatingDesc}}, nil
	case "", StrategyRatingDistance:
		return ranker{name: StrategyRatingDistance, keys: []lessFunc{byRatingDesc, byDistanceAsc}}, nil
	case StrategyBalanced:
		return ranker{name: StrategyBalanced, needsLoad: true, keys: []lessFunc{byLoadAsc, byRatingDesc, byDistanceAsc}}, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", name)
	}
}

// MustStrategy is ParseStrategy for static names.
func MustStrategy(name string) Ranker {
	r, err := ParseStrategy(name)
	if err != nil {
		panic(err)
	}
	return r
}
