package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/pkg/redact"
	"github.com/auditops/auditops-backend/internal/pkg/validate"
)

// CreateIntegration handles POST /api/v1/integrations. Credentials are
// encrypted at assignment: the plaintext from the request body never
// reaches storage or the response (token fields are not serialized).
func (h *Handler) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrganizationID string         `json:"organization_id"`
		ExternalID     string         `json:"external_id"`
		AccessToken    string         `json:"access_token"`
		RefreshToken   string         `json:"refresh_token"`
		WebhookSecret  string         `json:"webhook_secret"`
		Config         map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if !validate.OrganizationID(req.OrganizationID) || req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "organization_id and access_token are required")
		return
	}
	if repo, ok := req.Config["repo_name"].(string); ok && !validate.RepoName(repo) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "config.repo_name must be an owner/name slug")
		return
	}

	integration := &models.Integration{
		OrganizationID: req.OrganizationID,
		Provider:       models.ProviderGitHub,
		ExternalID:     req.ExternalID,
		Config:         req.Config,
	}

	var err error
	if integration.AccessToken, err = h.vault.Encrypt(req.AccessToken); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "credential encryption failed")
		return
	}
	if req.RefreshToken != "" {
		if integration.RefreshToken, err = h.vault.Encrypt(req.RefreshToken); err != nil {
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "credential encryption failed")
			return
		}
	}
	if req.WebhookSecret != "" {
		if integration.WebhookSecret, err = h.vault.Encrypt(req.WebhookSecret); err != nil {
			respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "credential encryption failed")
			return
		}
	}

	if err := h.store.CreateIntegration(r.Context(), integration); err != nil {
		respondStoreError(w, err)
		return
	}

	redact.ConfigValues(integration.Config)
	respondJSON(w, http.StatusCreated, struct {
		*models.Integration
		AccessTokenHint string `json:"access_token_hint,omitempty"`
	}{integration, redact.Mask(req.AccessToken)})
}

// ListIntegrations handles GET /api/v1/integrations?organization_id=...
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	organizationID := r.URL.Query().Get("organization_id")
	if organizationID == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "organization_id query parameter is required")
		return
	}

	integrations, err := h.store.ListIntegrations(r.Context(), organizationID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	for i := range integrations {
		redact.ConfigValues(integrations[i].Config)
	}

	respondJSON(w, http.StatusOK, integrations)
}

// GetIntegration handles GET /api/v1/integrations/{id}.
func (h *Handler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	integration, err := h.store.GetIntegration(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	redact.ConfigValues(integration.Config)

	respondJSON(w, http.StatusOK, integration)
}

// DeleteIntegration handles DELETE /api/v1/integrations/{id}, used when
// an organization disconnects the provider.
func (h *Handler) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteIntegration(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Integration removed"})
}
