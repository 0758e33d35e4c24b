package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrActiveAssignmentExists is returned when a request already holds an active assignment.
	ErrActiveAssignmentExists = errors.New("active assignment already exists for request")
	// ErrStaleStatus is returned when a compare-and-swap status update lost the race.
	ErrStaleStatus = errors.New("status changed concurrently")
	// ErrDuplicateEmail is returned when a staff email is already registered.
	ErrDuplicateEmail = errors.New("staff email already registered")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
