package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// AssignmentFilter captures listing parameters.
type AssignmentFilter struct {
	StaffID          *string
	ServiceRequestID *string
	Status           *domain.AssignmentStatus
	Limit            int
	Offset           int
}

// AssignmentRepository stores assignments. Records are never deleted; End is the only mutation.
type AssignmentRepository interface {
	// Create fails with ErrActiveAssignmentExists if the request already holds an active assignment.
	Create(ctx context.Context, assignment *domain.Assignment) error
	GetActiveByRequest(ctx context.Context, requestID string) (*domain.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error)
	// End moves an active assignment to released or completed.
	End(ctx context.Context, id string, status domain.AssignmentStatus, at time.Time) (*domain.Assignment, error)
	CountActiveByStaff(ctx context.Context, staffIDs []string) (map[string]int, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, service_request_id, staff_id, staff_name, staff_email, staff_phone,
               strategy, assigned_by, assigned_at, status, ended_at`

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (service_request_id, staff_id, staff_name, staff_email, staff_phone,
            strategy, assigned_by, assigned_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		a.ServiceRequestID,
		a.StaffID,
		a.StaffName,
		a.StaffEmail,
		a.StaffPhone,
		a.Strategy,
		a.AssignedBy,
		a.AssignedAt,
		a.Status,
	).Scan(&a.ID)
	if isUniqueViolation(err, "assignments_active_request_idx") {
		return ErrActiveAssignmentExists
	}
	return err
}

func (r *assignmentRepository) GetActiveByRequest(ctx context.Context, requestID string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE service_request_id=$1 AND status='assigned'`
	return scanAssignment(r.pool.QueryRow(ctx, query, requestID))
}

func (r *assignmentRepository) End(ctx context.Context, id string, status domain.AssignmentStatus, at time.Time) (*domain.Assignment, error) {
	query := `UPDATE assignments SET status=$1, ended_at=$2
        WHERE id=$3 AND status='assigned'
        RETURNING ` + assignmentColumns
	a, err := scanAssignment(r.pool.QueryRow(ctx, query, status, at, id))
	if err == pgx.ErrNoRows {
		return nil, ErrStaleStatus
	}
	return a, err
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error) {
	base := `SELECT ` + assignmentColumns + ` FROM assignments`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("staff_id=$%d", len(args)))
	}
	if filter.ServiceRequestID != nil {
		args = append(args, *filter.ServiceRequestID)
		clauses = append(clauses, fmt.Sprintf("service_request_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`%s WHERE %s ORDER BY assigned_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) CountActiveByStaff(ctx context.Context, staffIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(staffIDs))
	if len(staffIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT staff_id, COUNT(*) FROM assignments
        WHERE status='assigned' AND staff_id = ANY($1)
        GROUP BY staff_id`
	rows, err := r.pool.Query(ctx, query, staffIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(
		&a.ID,
		&a.ServiceRequestID,
		&a.StaffID,
		&a.StaffName,
		&a.StaffEmail,
		&a.StaffPhone,
		&a.Strategy,
		&a.AssignedBy,
		&a.AssignedAt,
		&a.Status,
		&a.EndedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
