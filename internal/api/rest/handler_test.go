package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/repository"
	"github.com/auditops/auditops-backend/internal/vault"
	"github.com/auditops/auditops-backend/internal/webhook"
	"github.com/auditops/auditops-backend/internal/worker"
)

type testEnv struct {
	store    repository.Store
	vault    *vault.Vault
	router   *mux.Router
	enqueued []string
	// enqueueErr, when set, is returned by the handler's enqueue func.
	enqueueErr error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "rest_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	key, err := vault.GenerateKey()
	require.NoError(t, err)
	v, err := vault.New(vault.KeyConfig{PrimaryKey: key})
	require.NoError(t, err)

	env := &testEnv{store: store, vault: v}
	h := NewHandler(store, v, func(auditID string) error {
		if env.enqueueErr != nil {
			return env.enqueueErr
		}
		env.enqueued = append(env.enqueued, auditID)
		return nil
	}, slog.Default())

	env.router = mux.NewRouter()
	SetupRoutes(env.router, h)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAudit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/audits", map[string]any{
		"organization_id": "org-1",
		"triggered_by":    "auditor@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var audit models.Audit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	assert.Equal(t, models.AuditPending, audit.Status)
	require.NotNil(t, audit.TriggeredBy)
	assert.Equal(t, "auditor@example.com", *audit.TriggeredBy)
	assert.Equal(t, []string{audit.ID}, env.enqueued)
}

func TestCreateAudit_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/audits", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.enqueued)
}

func TestCreateAudit_QueueFull(t *testing.T) {
	env := newTestEnv(t)
	env.enqueueErr = worker.ErrQueueFull

	rec := env.do(t, http.MethodPost, "/api/v1/audits", map[string]any{"organization_id": "org-1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The audit row survives for a later retry.
	audits, err := env.store.ListAudits(context.Background(), "org-1", 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditPending, audits[0].Status)
}

func TestGetAudit_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/audits/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEvidence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SeedQuestions(ctx, []models.Question{
		{Key: "cis_1_1_mfa", Title: "Enforce MFA", Severity: models.SeverityCritical},
	}))
	q, err := env.store.GetQuestionByKey(ctx, "cis_1_1_mfa")
	require.NoError(t, err)

	audit := &models.Audit{OrganizationID: "org-1"}
	require.NoError(t, env.store.CreateAudit(ctx, audit))
	require.NoError(t, env.store.UpsertEvidence(ctx, &models.Evidence{
		AuditID:    audit.ID,
		QuestionID: q.ID,
		Status:     models.EvidenceFail,
		Comment:    "MFA is NOT enforced for the organization.",
	}))

	rec := env.do(t, http.MethodGet, "/api/v1/audits/"+audit.ID+"/evidence", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var details []models.EvidenceDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	require.Len(t, details, 1)
	assert.Equal(t, "cis_1_1_mfa", details[0].QuestionKey)
	assert.Equal(t, models.EvidenceFail, details[0].Status)

	rec = env.do(t, http.MethodGet, "/api/v1/audits/unknown/evidence", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateIntegration_EncryptsCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/integrations", map[string]any{
		"organization_id": "org-1",
		"external_id":     "9042",
		"access_token":    "ghp_plaintext",
		"webhook_secret":  "hook-secret",
		"config":          map[string]any{"repo_name": "octo/repo"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Plaintext never appears in the response.
	assert.NotContains(t, rec.Body.String(), "ghp_plaintext")
	assert.NotContains(t, rec.Body.String(), "hook-secret")

	var created models.Integration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	stored, err := env.store.GetIntegration(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "ghp_plaintext", stored.AccessToken)

	plaintext, err := env.vault.Decrypt(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ghp_plaintext", plaintext)
}

func TestCreateIntegration_Validation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/integrations", map[string]any{"organization_id": "org-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteIntegration(t *testing.T) {
	env := newTestEnv(t)
	integration := &models.Integration{OrganizationID: "org-1", Provider: models.ProviderGitHub}
	require.NoError(t, env.store.CreateIntegration(context.Background(), integration))

	rec := env.do(t, http.MethodDelete, "/api/v1/integrations/"+integration.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/integrations/"+integration.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVaultStatusAndRotate(t *testing.T) {
	env := newTestEnv(t)

	ciphertext, err := env.vault.Encrypt("keep-me-readable")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/vault/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status vault.KeyStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.PrimaryKeySet)
	assert.Equal(t, 0, status.HistoricalCount)

	rec = env.do(t, http.MethodPost, "/api/v1/vault/rotate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plan vault.RotationPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.NotEmpty(t, plan.NewPrimaryKey)
	assert.Len(t, plan.HistoricalKeys, 1)

	// Pre-rotation ciphertext still decrypts through the fallback chain.
	plaintext, err := env.vault.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "keep-me-readable", plaintext)
}

func TestGitHubWebhook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	secretCiphertext, err := env.vault.Encrypt("hook-secret")
	require.NoError(t, err)
	integration := &models.Integration{
		OrganizationID: "org-1",
		Provider:       models.ProviderGitHub,
		WebhookSecret:  secretCiphertext,
	}
	require.NoError(t, env.store.CreateIntegration(ctx, integration))

	body := []byte(`{"action":"push","repository":{"full_name":"octo/repo"}}`)
	path := "/api/v1/webhooks/github/" + integration.ID

	t.Run("valid signature triggers an audit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set(webhook.SignatureHeader, webhook.Sign("hook-secret", body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)
		var audit models.Audit
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
		assert.Equal(t, "org-1", audit.OrganizationID)
		assert.Nil(t, audit.TriggeredBy)
		assert.Contains(t, env.enqueued, audit.ID)
	})

	t.Run("invalid signature never produces an audit", func(t *testing.T) {
		before, err := env.store.ListAudits(ctx, "org-1", 100)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set(webhook.SignatureHeader, webhook.Sign("wrong-secret", body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		after, err := env.store.ListAudits(ctx, "org-1", 100)
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after))
	})

	t.Run("missing signature header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown integration is a 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/github/nope", bytes.NewReader(body))
		req.Header.Set(webhook.SignatureHeader, webhook.Sign("hook-secret", body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
