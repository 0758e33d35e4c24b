package matching

import "github.com/spec-kit/cleaning-dispatch/internal/domain"

// FindEligibleStaff keeps active roster entries that list serviceType among their
// specialties. Roster order is preserved and the input slice is not modified.
func FindEligibleStaff(serviceType string, roster []domain.StaffMember) []domain.StaffMember {
	eligible := make([]domain.StaffMember, 0, len(roster))
	for i := range roster {
		if roster[i].EligibleFor(serviceType) {
			eligible = append(eligible, roster[i])
		}
	}
	return eligible
}

// ContainsStaff reports whether staffID is present in candidates.
func ContainsStaff(candidates []domain.StaffMember, staffID string) (*domain.StaffMember, bool) {
	for i := range candidates {
		if candidates[i].ID == staffID {
			return &candidates[i], true
		}
	}
	return nil, false
}
