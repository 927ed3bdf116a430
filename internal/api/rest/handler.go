package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auditops/auditops-backend/internal/repository"
	"github.com/auditops/auditops-backend/internal/vault"
)

// EnqueueFunc hands a created audit to the worker pool.
type EnqueueFunc func(auditID string) error

// Handler manages HTTP request handlers for the compliance API.
type Handler struct {
	store   repository.Store
	vault   *vault.Vault
	enqueue EnqueueFunc
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(store repository.Store, v *vault.Vault, enqueue EnqueueFunc, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		vault:   v,
		enqueue: enqueue,
		logger:  logger,
	}
}

// SetupRoutes configures API routes.
func SetupRoutes(router *mux.Router, h *Handler) {
	router.Use(requestMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Audit routes
	api.HandleFunc("/audits", h.CreateAudit).Methods("POST")
	api.HandleFunc("/audits", h.ListAudits).Methods("GET")
	api.HandleFunc("/audits/{id}", h.GetAudit).Methods("GET")
	api.HandleFunc("/audits/{id}/evidence", h.ListEvidence).Methods("GET")

	// Integration routes
	api.HandleFunc("/integrations", h.CreateIntegration).Methods("POST")
	api.HandleFunc("/integrations", h.ListIntegrations).Methods("GET")
	api.HandleFunc("/integrations/{id}", h.GetIntegration).Methods("GET")
	api.HandleFunc("/integrations/{id}", h.DeleteIntegration).Methods("DELETE")

	// Vault key management
	api.HandleFunc("/vault/status", h.VaultStatus).Methods("GET")
	api.HandleFunc("/vault/rotate", h.RotateVaultKey).Methods("POST")

	// Inbound provider webhooks
	api.HandleFunc("/webhooks/github/{integrationID}", h.GitHubWebhook).Methods("POST")

	// Observability
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")
}
