package httpapi

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockRepository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, assoc *domain.Association) error {
	args := m.Called(ctx, assoc)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id domain.AssociationID) (*domain.Association, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Association), args.Error(1)
}

func (m *MockRepository) Resolve(ctx context.Context, id domain.AssociationID, status domain.VerificationStatus, notes *string, at time.Time) (*domain.Association, error) {
	args := m.Called(ctx, id, status, notes, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Association), args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(repo ports.VerificationRepository, health Pinger) http.Handler {
	nopLogger := zerolog.Nop()
	h := NewHandler(repo, health, &nopLogger)
	h.now = func() time.Time { return fixedNow }
	return h.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegister(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Association) bool {
		return a.Name == "Chess Club" && a.ContactEmail == "board@chess.example"
	})).Run(func(args mock.Arguments) {
		a := args.Get(1).(*domain.Association)
		a.ID = "42"
		a.Verification = domain.VerificationRecord{ID: "42", Status: domain.VerificationPending}
	}).Return(nil).Once()

	rec := do(t, newTestHandler(repo, nil), http.MethodPost, "/associations",
		`{"name":"  Chess Club ","contact_email":"board@chess.example"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "42", body["id"])
	assert.Equal(t, "pending", body["verification_status"])
	assert.NotContains(t, body, "verification_date")
	repo.AssertExpectations(t)
}

func TestRegister_Invalid(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing name", body: `{"contact_email":"board@chess.example"}`, wantField: "name"},
		{name: "bad email", body: `{"name":"Chess Club","contact_email":"nope"}`, wantField: "contact_email"},
		{name: "unknown field", body: `{"name":"Chess Club","contact_email":"board@chess.example","iban":"x"}`},
		{name: "not json", body: `name=Chess`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			rec := do(t, newTestHandler(repo, nil), http.MethodPost, "/associations", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if tc.wantField != "" {
				fields, ok := decodeBody(t, rec)["fields"].(map[string]any)
				require.True(t, ok, rec.Body.String())
				assert.Contains(t, fields, tc.wantField)
			}
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	rec := do(t, newTestHandler(repo, nil), http.MethodPost, "/associations",
		`{"name":"Chess Club","contact_email":"board@chess.example"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestGetStatus(t *testing.T) {
	notes := "all documents match"
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, domain.AssociationID("42")).Return(&domain.Association{
		ID: "42",
		Verification: domain.VerificationRecord{
			ID: "42", Status: domain.VerificationVerified, Notes: &notes, ResolvedAt: &date,
		},
	}, nil)
	repo.On("GetByID", mock.Anything, domain.AssociationID("7")).Return(nil, nil)

	h := newTestHandler(repo, nil)

	rec := do(t, h, http.MethodGet, "/verification/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "verified", body["verification_status"])
	assert.Equal(t, notes, body["verification_notes"])
	assert.Equal(t, "2024-01-01T00:00:00Z", body["verification_date"])

	rec = do(t, h, http.MethodGet, "/verification/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolve(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Resolve", mock.Anything, domain.AssociationID("42"), domain.VerificationFailed,
		mock.MatchedBy(func(n *string) bool { return n != nil && *n == "name mismatch" }), fixedNow,
	).Return(&domain.Association{
		ID:           "42",
		Verification: domain.VerificationRecord{ID: "42", Status: domain.VerificationFailed, ResolvedAt: &fixedNow},
	}, nil).Once()

	rec := do(t, newTestHandler(repo, nil), http.MethodPost, "/verification/42/resolve",
		`{"verification_status":"failed","verification_notes":"name mismatch"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "failed", decodeBody(t, rec)["verification_status"])
	repo.AssertExpectations(t)
}

func TestResolve_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		repoErr  error
		wantCode int
	}{
		{name: "pending is not a resolution", body: `{"verification_status":"pending"}`, wantCode: http.StatusBadRequest},
		{name: "missing status", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "unknown association", body: `{"verification_status":"verified"}`, repoErr: ports.ErrAssociationNotFound, wantCode: http.StatusNotFound},
		{name: "already resolved", body: `{"verification_status":"verified"}`, repoErr: ports.ErrAlreadyResolved, wantCode: http.StatusConflict},
		{name: "store failure", body: `{"verification_status":"verified"}`, repoErr: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tc.repoErr != nil {
				repo.On("Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, tc.repoErr)
			}

			rec := do(t, newTestHandler(repo, nil), http.MethodPost, "/verification/42/resolve", tc.body)
			assert.Equal(t, tc.wantCode, rec.Code, rec.Body.String())
			if tc.repoErr == nil {
				repo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	up := newTestHandler(new(MockRepository), pingFunc(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, do(t, up, http.MethodGet, "/healthz", "").Code)

	down := newTestHandler(new(MockRepository), pingFunc(func(context.Context) error { return errors.New("down") }))
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/healthz", "").Code)
}
