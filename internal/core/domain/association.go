package domain

import "time"

// RegistrationRequest is what the registration form submits once its documents are uploaded.
type RegistrationRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

// Association is the stored registration together with its verification outcome.
type Association struct {
	ID           AssociationID
	Name         string
	ContactEmail string
	Verification VerificationRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
