package postgres

import (
	"AssocVerify/internal/core/domain"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestVerificationRepository_Create_GetByID(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewVerificationRepository(testDB, testSecSvc, &nopLogger)

	assoc := createTestAssociation(t, repo)

	found, err := repo.GetByID(t.Context(), assoc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found == nil {
		t.Fatal("GetByID returned nil for a created association")
	}
	if found.Name != assoc.Name || found.ContactEmail != assoc.ContactEmail {
		t.Errorf("Data mismatch: got %+v", found)
	}
	if found.Verification.Status != domain.VerificationPending {
		t.Errorf("New association should be pending, got %s", found.Verification.Status)
	}
	if found.Verification.ResolvedAt != nil {
		t.Error("Pending association must not have a verification date")
	}
}

func TestVerificationRepository_GetByID_NotFound(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewVerificationRepository(testDB, testSecSvc, &nopLogger)

	found, err := repo.GetByID(t.Context(), "does-not-exist")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found != nil {
		t.Fatalf("Expected nil, got %+v", found)
	}
}

func TestVerificationRepository_Resolve_EncryptsNotes(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewVerificationRepository(testDB, testSecSvc, &nopLogger)
	assoc := createTestAssociation(t, repo)

	notes := "treasurer name does not match the ID card"
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	resolved, err := repo.Resolve(t.Context(), assoc.ID, domain.VerificationFailed, &notes, at)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Verification.NotesOrEmpty() != notes {
		t.Errorf("Notes mismatch: got %q", resolved.Verification.NotesOrEmpty())
	}
	if resolved.Verification.ResolvedAt == nil || !resolved.Verification.ResolvedAt.Equal(at) {
		t.Errorf("Verification date mismatch: got %v", resolved.Verification.ResolvedAt)
	}

	// The stored column must not contain the plaintext.
	var raw string
	err = testDB.pool.QueryRow(t.Context(), "SELECT verification_notes FROM associations WHERE id = $1", assoc.ID.String()).Scan(&raw)
	if err != nil {
		t.Fatalf("Raw select failed: %v", err)
	}
	if raw == notes {
		t.Fatal("Verification notes were stored in plaintext")
	}
}

func TestVerificationRepository_Resolve_TerminalIsFinal(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewVerificationRepository(testDB, testSecSvc, &nopLogger)
	assoc := createTestAssociation(t, repo)

	if _, err := repo.Resolve(t.Context(), assoc.ID, domain.VerificationVerified, nil, time.Now()); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	existing, err := repo.Resolve(t.Context(), assoc.ID, domain.VerificationFailed, nil, time.Now())
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("Expected ErrAlreadyResolved, got %v", err)
	}
	if existing == nil || existing.Verification.Status != domain.VerificationVerified {
		t.Fatalf("Second resolve must leave the first outcome intact, got %+v", existing)
	}

	_, err = repo.Resolve(t.Context(), assoc.ID, domain.VerificationPending, nil, time.Now())
	if err == nil {
		t.Fatal("Resolving back to pending must fail")
	}
}

func TestVerificationRepository_Resolve_Unknown(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewVerificationRepository(testDB, testSecSvc, &nopLogger)

	_, err := repo.Resolve(t.Context(), "does-not-exist", domain.VerificationVerified, nil, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
