package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

// ServiceRequestFilter captures listing parameters.
type ServiceRequestFilter struct {
	Statuses      []domain.RequestStatus
	ServiceType   *string
	ScheduledDate *string
	Limit         int
	Offset        int
}

// ServiceRequestRepository encapsulates service request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error)
	// UpdateStatus moves the request from one status to another only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (*domain.ServiceRequest, error)
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const requestColumns = `id, service_type, address, lat, lng, scheduled_date, scheduled_time,
               client_name, client_email, client_phone, observations, value_cents, status, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (service_type, address, lat, lng, scheduled_date, scheduled_time,
            client_name, client_email, client_phone, observations, value_cents, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.ServiceType,
		req.Address,
		req.Location.Lat,
		req.Location.Lng,
		req.ScheduledDate,
		req.ScheduledTime,
		req.Client.Name,
		req.Client.Email,
		req.Client.Phone,
		req.Observations,
		req.ValueCents,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id=$1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *serviceRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (*domain.ServiceRequest, error) {
	query := `UPDATE service_requests SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING ` + requestColumns
	req, err := scanRequest(r.pool.QueryRow(ctx, query, to, id, from))
	if err == nil {
		return req, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}
	// Distinguish a missing row from a lost compare-and-swap.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStaleStatus
}

func (r *serviceRequestRepository) List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	base := `SELECT ` + requestColumns + ` FROM service_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ServiceType != nil {
		args = append(args, *filter.ServiceType)
		clauses = append(clauses, fmt.Sprintf("service_type=$%d", len(args)))
	}
	if filter.ScheduledDate != nil {
		args = append(args, *filter.ScheduledDate)
		clauses = append(clauses, fmt.Sprintf("scheduled_date=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := row.Scan(
		&req.ID,
		&req.ServiceType,
		&req.Address,
		&req.Location.Lat,
		&req.Location.Lng,
		&req.ScheduledDate,
		&req.ScheduledTime,
		&req.Client.Name,
		&req.Client.Email,
		&req.Client.Phone,
		&req.Observations,
		&req.ValueCents,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
