package httpapi

import (
	"AssocVerify/internal/core/domain"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// verificationResponse is the body of every endpoint that returns a record.
type verificationResponse struct {
	ID                 domain.AssociationID `json:"id"`
	VerificationStatus string               `json:"verification_status"`
	VerificationNotes  *string              `json:"verification_notes,omitempty"`
	VerificationDate   *string              `json:"verification_date,omitempty"`
}

func toResponse(rec domain.VerificationRecord) verificationResponse {
	resp := verificationResponse{
		ID:                 rec.ID,
		VerificationStatus: string(rec.Status),
		VerificationNotes:  rec.Notes,
	}
	if rec.ResolvedAt != nil {
		d := rec.ResolvedAt.UTC().Format(time.RFC3339)
		resp.VerificationDate = &d
	}
	return resp
}

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Fields:    fields,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
