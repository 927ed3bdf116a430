package repository

import (
	"context"
	"errors"
	"time"

	"github.com/auditops/auditops-backend/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist. Callers
// match it with errors.Is to distinguish absence from storage failure.
var ErrNotFound = errors.New("not found")

// QuestionRepository defines compliance-question data access methods.
type QuestionRepository interface {
	SeedQuestions(ctx context.Context, questions []models.Question) error
	ListQuestions(ctx context.Context) ([]models.Question, error)
	GetQuestionByKey(ctx context.Context, key string) (*models.Question, error)
}

// IntegrationRepository defines provider-integration data access methods.
// Token columns carry vault ciphertext; the repository never sees plaintext.
type IntegrationRepository interface {
	CreateIntegration(ctx context.Context, integration *models.Integration) error
	GetIntegration(ctx context.Context, id string) (*models.Integration, error)
	ListIntegrations(ctx context.Context, organizationID string) ([]*models.Integration, error)
	UpdateIntegration(ctx context.Context, integration *models.Integration) error
	SetIntegrationStatus(ctx context.Context, id string, status models.IntegrationStatus) error
	DeleteIntegration(ctx context.Context, id string) error
}

// AuditRepository defines audit lifecycle data access methods.
type AuditRepository interface {
	CreateAudit(ctx context.Context, audit *models.Audit) error
	GetAudit(ctx context.Context, id string) (*models.Audit, error)
	ListAudits(ctx context.Context, organizationID string, limit int) ([]*models.Audit, error)
	SetAuditStatus(ctx context.Context, id string, status models.AuditStatus) error
	FinishAudit(ctx context.Context, id string, status models.AuditStatus, score int, completedAt time.Time) error
}

// EvidenceRepository defines evidence data access methods. UpsertEvidence
// keys on (audit_id, question_id): rerunning a check inside one audit
// overwrites its previous row instead of appending a duplicate.
type EvidenceRepository interface {
	UpsertEvidence(ctx context.Context, evidence *models.Evidence) error
	ListEvidence(ctx context.Context, auditID string) ([]models.EvidenceDetail, error)
}

// Store aggregates all repositories behind one connection.
type Store interface {
	QuestionRepository
	IntegrationRepository
	AuditRepository
	EvidenceRepository

	Migrate() error
	Close() error
}
