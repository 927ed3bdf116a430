package rest

import "net/http"

// VaultStatus handles GET /api/v1/vault/status: key age, historical key
// count, and whether rotation is due.
func (h *Handler) VaultStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.vault.Status())
}

// RotateVaultKey handles POST /api/v1/vault/rotate. The response carries
// the new key material and export instructions; the operator must
// persist them before the process restarts, since the vault itself never
// stores keys.
func (h *Handler) RotateVaultKey(w http.ResponseWriter, r *http.Request) {
	plan, err := h.vault.Rotate()
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	h.logger.Info("vault key rotated", "historical_count", len(plan.HistoricalKeys))
	respondJSON(w, http.StatusOK, plan)
}
