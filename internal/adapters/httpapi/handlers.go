package httpapi

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type resolveRequest struct {
	VerificationStatus string  `json:"verification_status" validate:"required,oneof=verified failed"`
	VerificationNotes  *string `json:"verification_notes" validate:"omitempty,max=2000"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Health check failed")
			writeError(w, r, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// register handles POST /associations.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if !h.valid(w, r, req) {
		return
	}

	assoc := &domain.Association{Name: req.Name, ContactEmail: req.ContactEmail}
	if err := h.repo.Create(r.Context(), assoc); err != nil {
		h.log.Error().Err(err).Msg("Failed to create association")
		writeError(w, r, http.StatusInternalServerError, "could not register association", nil)
		return
	}

	h.log.Info().Str("association_id", assoc.ID.String()).Msg("Association registered")
	writeJSON(w, http.StatusCreated, toResponse(assoc.Verification))
}

// getStatus handles GET /verification/{id}.
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	id := domain.AssociationID(chi.URLParam(r, "id"))

	assoc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("association_id", id.String()).Msg("Failed to load association")
		writeError(w, r, http.StatusInternalServerError, "could not load verification status", nil)
		return
	}
	if assoc == nil {
		writeError(w, r, http.StatusNotFound, "association not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(assoc.Verification))
}

// resolve handles POST /verification/{id}/resolve, called by the document pipeline.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id := domain.AssociationID(chi.URLParam(r, "id"))

	var req resolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.valid(w, r, req) {
		return
	}
	status, err := domain.ParseVerificationStatus(req.VerificationStatus)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	assoc, err := h.repo.Resolve(r.Context(), id, status, req.VerificationNotes, h.now())
	switch {
	case errors.Is(err, ports.ErrAssociationNotFound):
		writeError(w, r, http.StatusNotFound, "association not found", nil)
	case errors.Is(err, ports.ErrAlreadyResolved):
		writeError(w, r, http.StatusConflict, "verification already resolved", nil)
	case err != nil:
		h.log.Error().Err(err).Str("association_id", id.String()).Msg("Failed to resolve association")
		writeError(w, r, http.StatusInternalServerError, "could not resolve verification", nil)
	default:
		writeJSON(w, http.StatusOK, toResponse(assoc.Verification))
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return false
	}
	return true
}

func (h *Handler) valid(w http.ResponseWriter, r *http.Request, v any) bool {
	fields, err := h.validate.check(v)
	if err != nil {
		h.log.Error().Err(err).Msg("Validator misuse")
		writeError(w, r, http.StatusInternalServerError, "validation failed", nil)
		return false
	}
	if len(fields) > 0 {
		writeError(w, r, http.StatusBadRequest, "validation failed", fields)
		return false
	}
	return true
}
