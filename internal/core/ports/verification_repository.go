package ports

import (
	"AssocVerify/internal/core/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrAssociationNotFound = errors.New("association not found")
	ErrAlreadyResolved     = errors.New("association verification already resolved")
)

// VerificationRepository defines the persistence operations behind the status API.
type VerificationRepository interface {
	// Create saves a new association in 'pending' status.
	Create(ctx context.Context, assoc *domain.Association) error

	// GetByID returns (nil, nil) when the association does not exist.
	GetByID(ctx context.Context, id domain.AssociationID) (*domain.Association, error)

	// Resolve moves a pending association to a terminal status.
	// Unknown IDs return ErrAssociationNotFound. An association that is already
	// terminal returns its current state together with ErrAlreadyResolved.
	Resolve(ctx context.Context, id domain.AssociationID, status domain.VerificationStatus, notes *string, at time.Time) (*domain.Association, error)
}
