package ports

import (
	"AssocVerify/internal/core/domain"
	"context"
)

// StatusQueryClient looks up the current verification outcome of one association.
type StatusQueryClient interface {
	// Query issues a single status lookup.
	// A non-nil error is always a transport failure (network, non-2xx, malformed body);
	// a legitimate "failed" outcome comes back as a record, never as an error.
	Query(ctx context.Context, id domain.AssociationID) (*domain.VerificationRecord, error)
}

// RegistrationSubmitter creates an association and returns its initial verification record.
type RegistrationSubmitter interface {
	Submit(ctx context.Context, req domain.RegistrationRequest) (*domain.VerificationRecord, error)
}
