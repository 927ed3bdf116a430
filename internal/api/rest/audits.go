package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/pkg/validate"
	"github.com/auditops/auditops-backend/internal/worker"
)

// CreateAudit handles POST /api/v1/audits. The audit is created PENDING
// and handed to the worker pool; callers poll GET /audits/{id} for the
// terminal status and score.
func (h *Handler) CreateAudit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID string  `json:"organization_id"`
		TriggeredBy    *string `json:"triggered_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if !validate.OrganizationID(req.OrganizationID) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "organization_id is required and must be a valid identifier")
		return
	}

	audit := &models.Audit{
		OrganizationID: req.OrganizationID,
		TriggeredBy:    req.TriggeredBy,
	}
	if err := h.store.CreateAudit(r.Context(), audit); err != nil {
		respondStoreError(w, err)
		return
	}

	if err := h.enqueue(audit.ID); err != nil {
		// The audit row stays PENDING; the caller can retry scheduling.
		h.logger.Warn("enqueue audit", "audit_id", audit.ID, "error", err)
		if err == worker.ErrQueueFull {
			respondError(w, http.StatusServiceUnavailable, ErrCodeQueueFull, "audit queue is full, retry later")
			return
		}
		respondError(w, http.StatusServiceUnavailable, ErrCodeInternalError, "audit scheduling unavailable")
		return
	}

	respondJSON(w, http.StatusCreated, audit)
}

// GetAudit handles GET /api/v1/audits/{id}.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	audit, err := h.store.GetAudit(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, audit)
}

// ListAudits handles GET /api/v1/audits?organization_id=...&limit=...
func (h *Handler) ListAudits(w http.ResponseWriter, r *http.Request) {
	organizationID := r.URL.Query().Get("organization_id")
	if organizationID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "organization_id query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	audits, err := h.store.ListAudits(r.Context(), organizationID, limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, audits)
}

// ListEvidence handles GET /api/v1/audits/{id}/evidence.
func (h *Handler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// 404 on unknown audits rather than an empty list.
	if _, err := h.store.GetAudit(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	evidence, err := h.store.ListEvidence(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, evidence)
}
