package rest

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/pkg/metrics"
	"github.com/auditops/auditops-backend/internal/webhook"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// GitHubWebhook handles POST /api/v1/webhooks/github/{integrationID}.
// The delivery must carry a valid HMAC-SHA256 signature over the raw
// body, keyed with the integration's webhook secret; a mismatch is
// rejected before any audit is created.
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	integrationID := mux.Vars(r)["integrationID"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unreadable request body")
		return
	}

	integration, err := h.store.GetIntegration(r.Context(), integrationID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	secret, err := h.vault.Decrypt(integration.WebhookSecret)
	if err != nil {
		h.logger.Error("webhook secret decrypt failed", "integration_id", integrationID, "error", err)
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "webhook secret unavailable")
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if !webhook.VerifySignature(secret, body, signature) {
		metrics.WebhookRejectionsTotal.Inc()
		h.logger.Warn("webhook signature rejected", "integration_id", integrationID)
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid webhook signature")
		return
	}

	audit := &models.Audit{OrganizationID: integration.OrganizationID}
	if err := h.store.CreateAudit(r.Context(), audit); err != nil {
		respondStoreError(w, err)
		return
	}
	if err := h.enqueue(audit.ID); err != nil {
		h.logger.Warn("enqueue webhook audit", "audit_id", audit.ID, "error", err)
		respondError(w, http.StatusServiceUnavailable, ErrCodeQueueFull, "audit queue is full, retry later")
		return
	}

	respondJSON(w, http.StatusAccepted, audit)
}
