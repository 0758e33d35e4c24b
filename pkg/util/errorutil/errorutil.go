package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const invalidTextRepresentation = "22P02"

// Error codes surfaced to API callers.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeNoAvailableStaff     = "NO_AVAILABLE_STAFF"
	CodeIneligibleStaff      = "INELIGIBLE_STAFF"
	CodeAlreadyAssigned      = "ALREADY_ASSIGNED"
	CodeAssignmentInProgress = "ASSIGNMENT_IN_PROGRESS"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeInvalidState         = "INVALID_STATE"
	CodeTimeout              = "TIMEOUT"
	CodeInternal             = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks; matching is by Code.
var (
	ErrNotFound             = &DomainError{Code: CodeNotFound}
	ErrNoAvailableStaff     = &DomainError{Code: CodeNoAvailableStaff}
	ErrIneligibleStaff      = &DomainError{Code: CodeIneligibleStaff}
	ErrAlreadyAssigned      = &DomainError{Code: CodeAlreadyAssigned}
	ErrAssignmentInProgress = &DomainError{Code: CodeAssignmentInProgress}
	ErrInvalidTransition    = &DomainError{Code: CodeInvalidTransition}
	ErrInvalidState         = &DomainError{Code: CodeInvalidState}
	ErrValidation           = &DomainError{Code: CodeValidationFailed}
	ErrConflict             = &DomainError{Code: CodeConflict}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewNoAvailableStaff(serviceType string) error {
	return NewDomainError(CodeNoAvailableStaff, "no staff available for service type", http.StatusConflict,
		map[string]any{"service_type": serviceType})
}

func NewIneligibleStaff(staffID, serviceType string) error {
	return NewDomainError(CodeIneligibleStaff, "staff member is not eligible for this request", http.StatusUnprocessableEntity,
		map[string]any{"staff_id": staffID, "service_type": serviceType})
}

func NewAlreadyAssigned(requestID string) error {
	return NewDomainError(CodeAlreadyAssigned, "service request already assigned", http.StatusConflict,
		map[string]any{"request_id": requestID})
}

func NewAssignmentInProgress(requestID string) error {
	return NewDomainError(CodeAssignmentInProgress, "another assignment attempt is in progress", http.StatusConflict,
		map[string]any{"request_id": requestID})
}

func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition, "status transition not allowed", http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidState, message, http.StatusConflict, details)
}

func NewTimeout(err error) error {
	return &DomainError{
		Code:       CodeTimeout,
		Message:    "operation timed out",
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			cp := *domainErr
			cp.HTTPStatus = http.StatusInternalServerError
			return &cp
		}
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeout(err).(*DomainError)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return NewValidationError("invalid identifier", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
