package core

import "time"

type Employee struct {
	ID              string    `json:"id"`
	Matricule       string    `json:"matricule"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Position        string    `json:"position,omitempty"`
	Status          string    `json:"status"`
	AgencyID        string    `json:"agencyId,omitempty"`
	PendingAgencyID string    `json:"pendingAgencyId,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Agency struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
