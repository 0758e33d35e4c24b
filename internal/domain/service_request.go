package domain

import (
	"errors"
	"strings"
	"time"
)

// RequestStatus enumerates lifecycle states for a booked cleaning service.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusConfirmed  RequestStatus = "confirmed"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusConfirmed, RequestStatusCancelled},
	RequestStatusConfirmed:  {RequestStatusInProgress, RequestStatusCancelled, RequestStatusPending},
	RequestStatusInProgress: {RequestStatusCompleted},
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusConfirmed, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

// ClientContact holds the booking client's details.
type ClientContact struct {
	Name  string
	Email string
	Phone string
}

// ServiceRequest is a client booking awaiting or holding an assignment.
type ServiceRequest struct {
	ID            string
	ServiceType   string
	Address       string
	Location      GeoPoint
	ScheduledDate string
	ScheduledTime string
	Client        ClientContact
	Observations  string
	ValueCents    int64
	Status        RequestStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewServiceRequest validates input and returns a pending request.
func NewServiceRequest(serviceType, address string, location GeoPoint, date, at string, client ClientContact, observations string, valueCents int64) (*ServiceRequest, error) {
	req := &ServiceRequest{
		ServiceType:   strings.TrimSpace(serviceType),
		Address:       strings.TrimSpace(address),
		Location:      location,
		ScheduledDate: strings.TrimSpace(date),
		ScheduledTime: strings.TrimSpace(at),
		Client: ClientContact{
			Name:  strings.TrimSpace(client.Name),
			Email: strings.ToLower(strings.TrimSpace(client.Email)),
			Phone: strings.TrimSpace(client.Phone),
		},
		Observations: strings.TrimSpace(observations),
		ValueCents:   valueCents,
		Status:       RequestStatusPending,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks field invariants.
func (r *ServiceRequest) Validate() error {
	var errs []error
	if r.ServiceType == "" {
		errs = append(errs, errors.New("service type required"))
	}
	if r.Address == "" {
		errs = append(errs, errors.New("address required"))
	}
	if _, err := time.Parse(DateLayout, r.ScheduledDate); err != nil {
		errs = append(errs, errors.New("scheduled date must be YYYY-MM-DD"))
	}
	if _, err := time.Parse(TimeLayout, r.ScheduledTime); err != nil {
		errs = append(errs, errors.New("scheduled time must be HH:MM"))
	}
	if r.Client.Name == "" {
		errs = append(errs, errors.New("client name required"))
	}
	if r.Client.Email == "" || !strings.Contains(r.Client.Email, "@") {
		errs = append(errs, errors.New("valid client email required"))
	}
	if r.ValueCents < 0 {
		errs = append(errs, errors.New("value must not be negative"))
	}
	if !r.Status.Valid() {
		errs = append(errs, errors.New("invalid status"))
	}
	if err := r.Location.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
