package postgres

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound        = ports.ErrAssociationNotFound
	ErrAlreadyResolved = ports.ErrAlreadyResolved
)

type verificationRepository struct {
	db     *DB
	secSvc ports.SecurityPort // notes can quote personal data from the documents
	log    zerolog.Logger
}

var _ ports.VerificationRepository = (*verificationRepository)(nil) // Ensure compliance

// NewVerificationRepository creates a new repository for association verification records.
func NewVerificationRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.VerificationRepository {
	return &verificationRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "verification_repo").Logger(),
	}
}

const associationCols = `
	id, name, contact_email, verification_status, verification_notes,
	verification_date, created_at, updated_at
`

// Create saves a new association in 'pending' status. A missing ID gets a fresh UUID.
func (r *verificationRepository) Create(ctx context.Context, assoc *domain.Association) error {
	if assoc.ID == "" {
		assoc.ID = domain.AssociationID(uuid.NewString())
	}
	assoc.Verification = domain.VerificationRecord{ID: assoc.ID, Status: domain.VerificationPending}

	query := `
		INSERT INTO associations (id, name, contact_email, verification_status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.pool.QueryRow(ctx, query,
		assoc.ID.String(),
		assoc.Name,
		assoc.ContactEmail,
		string(domain.VerificationPending),
	).Scan(&assoc.CreatedAt, &assoc.UpdatedAt)
	if err != nil {
		r.log.Error().Err(err).Str("association_id", assoc.ID.String()).Msg("Failed to insert association")
		return err
	}
	return nil
}

// GetByID returns (nil, nil) when the association does not exist.
func (r *verificationRepository) GetByID(ctx context.Context, id domain.AssociationID) (*domain.Association, error) {
	query := `SELECT ` + associationCols + ` FROM associations WHERE id = $1`

	assoc, err := r.scanAssociation(r.db.pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Debug().Str("association_id", id.String()).Msg("Association not found")
			return nil, nil
		}
		return nil, err
	}
	return assoc, nil
}

// Resolve moves a pending association to verified or failed. The WHERE clause is
// what keeps a terminal status from ever being overwritten.
func (r *verificationRepository) Resolve(
	ctx context.Context,
	id domain.AssociationID,
	status domain.VerificationStatus,
	notes *string,
	at time.Time,
) (*domain.Association, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve to non-terminal status %q", status)
	}

	var encNotes *string
	if notes != nil && *notes != "" {
		enc, err := r.secSvc.EncryptString(*notes)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to encrypt verification notes")
			return nil, err
		}
		encNotes = &enc
	}

	query := `
		UPDATE associations
		SET verification_status = $2, verification_notes = $3, verification_date = $4, updated_at = now()
		WHERE id = $1 AND verification_status = 'pending'
		RETURNING ` + associationCols

	assoc, err := r.scanAssociation(r.db.pool.QueryRow(ctx, query, id.String(), string(status), encNotes, at.UTC()))
	if err == nil {
		r.log.Info().Str("association_id", id.String()).Str("status", string(status)).Msg("Association verification resolved")
		return assoc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Nothing updated: either unknown or already terminal.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return existing, ErrAlreadyResolved
}

// scanAssociation is a helper to scan a row into an Association.
// It handles decryption internally.
func (r *verificationRepository) scanAssociation(row pgx.Row) (*domain.Association, error) {
	var (
		assoc    domain.Association
		id       string
		status   string
		encNotes *string
		date     *time.Time
	)
	err := row.Scan(
		&id,
		&assoc.Name,
		&assoc.ContactEmail,
		&status,
		&encNotes,
		&date,
		&assoc.CreatedAt,
		&assoc.UpdatedAt,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error().Err(err).Msg("Failed to scan association row")
		}
		return nil, err
	}

	assoc.ID = domain.AssociationID(id)
	parsed, err := domain.ParseVerificationStatus(status)
	if err != nil {
		r.log.Error().Err(err).Str("association_id", id).Msg("Corrupt verification status in database")
		return nil, err
	}
	assoc.Verification = domain.VerificationRecord{ID: assoc.ID, Status: parsed, ResolvedAt: date}

	if encNotes != nil {
		notes, err := r.secSvc.DecryptString(*encNotes)
		if err != nil {
			r.log.Error().Err(err).Str("association_id", id).Msg("Failed to decrypt verification notes (tampered?)")
			return nil, err
		}
		assoc.Verification.Notes = &notes
	}
	return &assoc, nil
}
