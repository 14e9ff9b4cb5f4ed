package postgres

import (
	"AssocVerify/internal/adapters/security"
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

var (
	testDB     *DB
	testSecSvc ports.SecurityPort
)

// TestMain connects to the database named by DATABASE_URL.
// These are integration tests; without DATABASE_URL the package is skipped.
func TestMain(m *testing.M) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		fmt.Println("DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}

	nopLogger := zerolog.Nop()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("TestMain: Failed to generate key: %v", err)
	}
	var err error
	testSecSvc, err = security.NewAESService(key, &nopLogger)
	if err != nil {
		log.Fatalf("TestMain: Failed to create security service: %v", err)
	}

	testDB, err = NewDB(context.Background(), url, &nopLogger)
	if err != nil {
		log.Fatalf("TestMain: Failed to connect to test database: %v", err)
	}
	if err := testDB.Migrate(context.Background()); err != nil {
		log.Fatalf("TestMain: Failed to migrate: %v", err)
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// Helper to create an association for testing
func createTestAssociation(t *testing.T, repo ports.VerificationRepository) *domain.Association {
	t.Helper()
	assoc := &domain.Association{
		Name:         "Test Association",
		ContactEmail: "board@test.example",
	}
	if err := repo.Create(t.Context(), assoc); err != nil {
		t.Fatalf("createTestAssociation failed: %v", err)
	}
	t.Cleanup(func() {
		_, err := testDB.pool.Exec(context.Background(), "DELETE FROM associations WHERE id = $1", assoc.ID.String())
		if err != nil {
			t.Logf("Warning: Failed to cleanup association %s: %v", assoc.ID, err)
		}
	})
	return assoc
}
