package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditops/auditops-backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "store_test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func seedQuestion(t *testing.T, store *SQLiteStore, key string, severity models.Severity) models.Question {
	t.Helper()
	qs := []models.Question{{Key: key, Title: "Check " + key, Description: "desc", Severity: severity}}
	require.NoError(t, store.SeedQuestions(context.Background(), qs))
	q, err := store.GetQuestionByKey(context.Background(), key)
	require.NoError(t, err)
	return *q
}

func TestSeedQuestions_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := seedQuestion(t, store, "cis_1_1_mfa", models.SeverityCritical)

	// Reseeding updates metadata but keeps the row identity stable.
	err := store.SeedQuestions(ctx, []models.Question{{
		Key: "cis_1_1_mfa", Title: "Updated title", Description: "new", Severity: models.SeverityCritical,
	}})
	require.NoError(t, err)

	again, err := store.GetQuestionByKey(ctx, "cis_1_1_mfa")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Updated title", again.Title)

	all, err := store.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetQuestionByKey_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetQuestionByKey(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntegrationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	integration := &models.Integration{
		OrganizationID: "org-1",
		Provider:       models.ProviderGitHub,
		ExternalID:     "9042",
		AccessToken:    "ciphertext-token",
		WebhookSecret:  "ciphertext-secret",
		Config:         map[string]any{"repo_name": "octo/repo", "org_name": "octo"},
	}
	require.NoError(t, store.CreateIntegration(ctx, integration))
	require.NotEmpty(t, integration.ID)

	got, err := store.GetIntegration(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntegrationActive, got.Status)
	assert.Equal(t, "ciphertext-token", got.AccessToken)
	assert.Equal(t, "octo/repo", got.ConfigString("repo_name"))

	got.Status = models.IntegrationError
	got.AccessToken = "rotated-ciphertext"
	require.NoError(t, store.UpdateIntegration(ctx, got))

	got, err = store.GetIntegration(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntegrationError, got.Status)
	assert.Equal(t, "rotated-ciphertext", got.AccessToken)

	require.NoError(t, store.SetIntegrationStatus(ctx, integration.ID, models.IntegrationActive))
	got, err = store.GetIntegration(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntegrationActive, got.Status)

	list, err := store.ListIntegrations(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.GetIntegration(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := "auditor@example.com"
	audit := &models.Audit{OrganizationID: "org-1", TriggeredBy: &user}
	require.NoError(t, store.CreateAudit(ctx, audit))
	assert.Equal(t, models.AuditPending, audit.Status)

	require.NoError(t, store.SetAuditStatus(ctx, audit.ID, models.AuditRunning))
	got, err := store.GetAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditRunning, got.Status)
	assert.Nil(t, got.CompletedAt)

	done := time.Now().UTC()
	require.NoError(t, store.FinishAudit(ctx, audit.ID, models.AuditCompleted, 85, done))
	got, err = store.GetAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditCompleted, got.Status)
	assert.Equal(t, 85, got.Score)
	require.NotNil(t, got.CompletedAt)

	list, err := store.ListAudits(ctx, "org-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, store.SetAuditStatus(ctx, "nope", models.AuditRunning), ErrNotFound)
}

func TestUpsertEvidence_OneRowPerAuditQuestion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q := seedQuestion(t, store, "cis_2_1_secret_scanning", models.SeverityCritical)
	audit := &models.Audit{OrganizationID: "org-1"}
	require.NoError(t, store.CreateAudit(ctx, audit))

	first := &models.Evidence{
		AuditID:    audit.ID,
		QuestionID: q.ID,
		Status:     models.EvidenceFail,
		RawData:    map[string]any{"status": "disabled"},
		Comment:    "Secret scanning is disabled.",
	}
	require.NoError(t, store.UpsertEvidence(ctx, first))

	// Rerunning the same check replaces the row instead of appending.
	second := &models.Evidence{
		AuditID:    audit.ID,
		QuestionID: q.ID,
		Status:     models.EvidencePass,
		RawData:    map[string]any{"status": "enabled"},
		Comment:    "Secret scanning is enabled.",
	}
	require.NoError(t, store.UpsertEvidence(ctx, second))

	details, err := store.ListEvidence(ctx, audit.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, models.EvidencePass, details[0].Status)
	assert.Equal(t, "Secret scanning is enabled.", details[0].Comment)
	assert.Equal(t, "enabled", details[0].RawData["status"])
	assert.Equal(t, "cis_2_1_secret_scanning", details[0].QuestionKey)
	assert.Equal(t, models.SeverityCritical, details[0].Severity)
}

func TestListEvidence_JoinsQuestionMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	qa := seedQuestion(t, store, "cis_1_1_mfa", models.SeverityCritical)
	qb := seedQuestion(t, store, "cis_4_2_code_reviews", models.SeverityHigh)
	audit := &models.Audit{OrganizationID: "org-1"}
	require.NoError(t, store.CreateAudit(ctx, audit))

	require.NoError(t, store.UpsertEvidence(ctx, &models.Evidence{
		AuditID: audit.ID, QuestionID: qa.ID, Status: models.EvidencePass,
	}))
	require.NoError(t, store.UpsertEvidence(ctx, &models.Evidence{
		AuditID: audit.ID, QuestionID: qb.ID, Status: models.EvidenceError, Comment: "boom",
	}))

	details, err := store.ListEvidence(ctx, audit.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "cis_1_1_mfa", details[0].QuestionKey)
	assert.Equal(t, "Check cis_1_1_mfa", details[0].QuestionTitle)
	assert.Equal(t, "cis_4_2_code_reviews", details[1].QuestionKey)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	_, err = store.ListQuestions(context.Background())
	assert.NoError(t, err)
}
