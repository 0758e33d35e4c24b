package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every store the service needs.
type Repositories struct {
	Staff       StaffRepository
	Requests    ServiceRequestRepository
	Assignments AssignmentRepository
	History     RequestHistoryRepository
}

// NewRepositories returns Postgres-backed stores, or in-memory ones when pool is nil.
func NewRepositories(pool *pgxpool.Pool) Repositories {
	if pool == nil {
		return NewMemoryRepositories()
	}
	return Repositories{
		Staff:       NewStaffRepository(pool),
		Requests:    NewServiceRequestRepository(pool),
		Assignments: NewAssignmentRepository(pool),
		History:     NewRequestHistoryRepository(pool),
	}
}

// NewMemoryRepositories returns empty in-memory stores.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Staff:       NewMemoryStaffRepository(),
		Requests:    NewMemoryServiceRequestRepository(),
		Assignments: NewMemoryAssignmentRepository(),
		History:     NewMemoryRequestHistoryRepository(),
	}
}
