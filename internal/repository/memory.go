package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// In-memory implementations back the service when no POSTGRES_DSN is configured,
// and are used by tests. They return copies so callers cannot mutate stored state.

type memoryStaffRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.StaffMember
}

// NewMemoryStaffRepository returns an empty in-memory roster.
func NewMemoryStaffRepository() StaffRepository {
	return &memoryStaffRepository{byID: make(map[string]*domain.StaffMember)}
}

func (r *memoryStaffRepository) Create(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, staff.Email) {
			return ErrDuplicateEmail
		}
	}
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt, staff.UpdatedAt = now, now
	r.byID[staff.ID] = cloneStaff(staff)
	r.order = append(r.order, staff.ID)
	return nil
}

func (r *memoryStaffRepository) Update(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[staff.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.byID {
		if id != staff.ID && strings.EqualFold(existing.Email, staff.Email) {
			return ErrDuplicateEmail
		}
	}
	staff.CreatedAt = current.CreatedAt
	staff.CompletedServices = current.CompletedServices
	staff.UpdatedAt = time.Now().UTC()
	r.byID[staff.ID] = cloneStaff(staff)
	return nil
}

func (r *memoryStaffRepository) IncrementCompletedServices(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	current.CompletedServices++
	current.UpdatedAt = time.Now().UTC()
	return current.CompletedServices, nil
}

func (r *memoryStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	staff, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneStaff(staff), nil
}

func (r *memoryStaffRepository) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, staff := range r.byID {
		if strings.EqualFold(staff.Email, domain.NormalizeEmail(email)) {
			return cloneStaff(staff), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryStaffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	roster, err := r.Roster(ctx)
	if err != nil {
		return nil, err
	}
	result := []domain.StaffMember{}
	for i := range roster {
		s := &roster[i]
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Specialty != nil && !s.HasSpecialty(*filter.Specialty) {
			continue
		}
		if filter.Region != nil && s.Region != *filter.Region {
			continue
		}
		result = append(result, *s)
	}
	return paginate(result, filter.Limit, filter.Offset, 50), nil
}

func (r *memoryStaffRepository) Roster(_ context.Context) ([]domain.StaffMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.StaffMember, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *cloneStaff(r.byID[id]))
	}
	return result, nil
}

func cloneStaff(s *domain.StaffMember) *domain.StaffMember {
	cp := *s
	cp.Specialties = append([]string(nil), s.Specialties...)
	return &cp
}

type memoryServiceRequestRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.ServiceRequest
}

// NewMemoryServiceRequestRepository returns an empty in-memory request store.
func NewMemoryServiceRequestRepository() ServiceRequestRepository {
	return &memoryServiceRequestRepository{byID: make(map[string]domain.ServiceRequest)}
}

func (r *memoryServiceRequestRepository) Create(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	r.byID[req.ID] = *req
	r.order = append(r.order, req.ID)
	return nil
}

func (r *memoryServiceRequestRepository) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (r *memoryServiceRequestRepository) UpdateStatus(_ context.Context, id string, from, to domain.RequestStatus) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.Status != from {
		return nil, ErrStaleStatus
	}
	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	r.byID[id] = req
	return &req, nil
}

func (r *memoryServiceRequestRepository) List(_ context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.ServiceRequest{}
	for i := len(r.order) - 1; i >= 0; i-- {
		req := r.byID[r.order[i]]
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, req.Status) {
			continue
		}
		if filter.ServiceType != nil && req.ServiceType != *filter.ServiceType {
			continue
		}
		if filter.ScheduledDate != nil && req.ScheduledDate != *filter.ScheduledDate {
			continue
		}
		result = append(result, req)
	}
	return paginate(result, filter.Limit, filter.Offset, 20), nil
}

func containsStatus(statuses []domain.RequestStatus, s domain.RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type memoryAssignmentRepository struct {
	mu    sync.RWMutex
	items []domain.Assignment
}

// NewMemoryAssignmentRepository returns an empty in-memory assignment log.
func NewMemoryAssignmentRepository() AssignmentRepository {
	return &memoryAssignmentRepository{}
}

func (r *memoryAssignmentRepository) Create(_ context.Context, a *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.Active() {
		for i := range r.items {
			if r.items[i].ServiceRequestID == a.ServiceRequestID && r.items[i].Active() {
				return ErrActiveAssignmentExists
			}
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.items = append(r.items, *a)
	return nil
}

func (r *memoryAssignmentRepository) GetActiveByRequest(_ context.Context, requestID string) (*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.items {
		if r.items[i].ServiceRequestID == requestID && r.items[i].Active() {
			a := r.items[i]
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryAssignmentRepository) End(_ context.Context, id string, status domain.AssignmentStatus, at time.Time) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		if !r.items[i].Active() {
			return nil, ErrStaleStatus
		}
		r.items[i].Status = status
		r.items[i].EndedAt = &at
		a := r.items[i]
		return &a, nil
	}
	return nil, ErrStaleStatus
}

func (r *memoryAssignmentRepository) List(_ context.Context, filter AssignmentFilter) ([]domain.Assignment, error) {
	r.mu.RLock()
	result := []domain.Assignment{}
	for i := len(r.items) - 1; i >= 0; i-- {
		a := r.items[i]
		if filter.StaffID != nil && a.StaffID != *filter.StaffID {
			continue
		}
		if filter.ServiceRequestID != nil && a.ServiceRequestID != *filter.ServiceRequestID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		result = append(result, a)
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AssignedAt.After(result[j].AssignedAt)
	})
	return paginate(result, filter.Limit, filter.Offset, 50), nil
}

func (r *memoryAssignmentRepository) CountActiveByStaff(_ context.Context, staffIDs []string) (map[string]int, error) {
	wanted := make(map[string]struct{}, len(staffIDs))
	for _, id := range staffIDs {
		wanted[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int, len(staffIDs))
	for i := range r.items {
		if _, ok := wanted[r.items[i].StaffID]; ok && r.items[i].Active() {
			counts[r.items[i].StaffID]++
		}
	}
	return counts, nil
}

type memoryRequestHistoryRepository struct {
	mu    sync.RWMutex
	items []domain.RequestHistory
}

// NewMemoryRequestHistoryRepository returns an empty in-memory audit log.
func NewMemoryRequestHistoryRepository() RequestHistoryRepository {
	return &memoryRequestHistoryRepository{}
}

func (r *memoryRequestHistoryRepository) Create(_ context.Context, history *domain.RequestHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now().UTC()
	r.items = append(r.items, *history)
	return nil
}

func (r *memoryRequestHistoryRepository) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.RequestHistory{}
	for _, h := range r.items {
		if h.ServiceRequestID == requestID {
			result = append(result, h)
		}
	}
	return result, nil
}

func paginate[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
