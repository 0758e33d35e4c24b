package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	// Update writes profile and status fields; the completed-services counter is
	// only changed through IncrementCompletedServices.
	Update(ctx context.Context, staff *domain.StaffMember) error
	IncrementCompletedServices(ctx context.Context, id string) (int, error)
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	Roster(ctx context.Context) ([]domain.StaffMember, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Status    *domain.StaffStatus
	Specialty *string
	Region    *string
	Limit     int
	Offset    int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, name, email, phone, specialties, region, lat, lng, status, rating, completed_services, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, phone, specialties, region, lat, lng, status, rating, completed_services)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.Phone,
		staff.Specialties,
		staff.Region,
		staff.Location.Lat,
		staff.Location.Lng,
		staff.Status,
		staff.Rating,
		staff.CompletedServices,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	if isUniqueViolation(err, "staff_members_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=$2, phone=$3, specialties=$4, region=$5, lat=$6, lng=$7, status=$8,
            rating=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING completed_services, updated_at`

	err := r.pool.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.Phone,
		staff.Specialties,
		staff.Region,
		staff.Location.Lat,
		staff.Location.Lng,
		staff.Status,
		staff.Rating,
		staff.ID,
	).Scan(&staff.CompletedServices, &staff.UpdatedAt)
	if isUniqueViolation(err, "staff_members_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *staffRepository) IncrementCompletedServices(ctx context.Context, id string) (int, error) {
	const query = `
        UPDATE staff_members
        SET completed_services = completed_services + 1, updated_at=NOW()
        WHERE id=$1
        RETURNING completed_services`

	var completed int
	err := r.pool.QueryRow(ctx, query, id).Scan(&completed)
	return completed, err
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id=$1`
	return scanStaff(r.pool.QueryRow(ctx, query, id))
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE email=$1`
	return scanStaff(r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Specialty != nil {
		args = append(args, *filter.Specialty)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(specialties)", len(args)))
	}
	if filter.Region != nil {
		args = append(args, *filter.Region)
		clauses = append(clauses, fmt.Sprintf("region=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY seq ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStaffRows(rows)
}

// Roster returns every staff member in registration order.
func (r *staffRepository) Roster(ctx context.Context) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStaffRows(rows)
}

func scanStaff(row pgx.Row) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Phone,
		&staff.Specialties,
		&staff.Region,
		&staff.Location.Lat,
		&staff.Location.Lng,
		&staff.Status,
		&staff.Rating,
		&staff.CompletedServices,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func scanStaffRows(rows pgx.Rows) ([]domain.StaffMember, error) {
	result := []domain.StaffMember{}
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}
