package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/auditops/auditops-backend/internal/models"
)

// PostgresStore implements Store using PostgreSQL, for multi-node
// deployments where SQLite's single-writer model does not hold.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to PostgreSQL using the given URL.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate applies all embedded migrations in filename order.
func (s *PostgresStore) Migrate() error {
	return applyMigrations(s.db)
}

// QuestionRepository implementation

func (s *PostgresStore) SeedQuestions(ctx context.Context, questions []models.Question) error {
	query := `
		INSERT INTO questions (id, key, title, description, severity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			severity = excluded.severity
	`
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		if _, err := s.db.ExecContext(ctx, query, q.ID, q.Key, q.Title, q.Description, q.Severity); err != nil {
			return fmt.Errorf("seed question %s: %w", q.Key, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	query := `SELECT id, key, title, description, severity FROM questions ORDER BY key`

	err := s.db.SelectContext(ctx, &questions, query)
	return questions, err
}

func (s *PostgresStore) GetQuestionByKey(ctx context.Context, key string) (*models.Question, error) {
	var question models.Question
	query := `SELECT id, key, title, description, severity FROM questions WHERE key = $1`

	err := s.db.GetContext(ctx, &question, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// IntegrationRepository implementation

func (s *PostgresStore) CreateIntegration(ctx context.Context, integration *models.Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	if integration.Status == "" {
		integration.Status = models.IntegrationActive
	}
	now := time.Now().UTC()
	integration.CreatedAt = now
	integration.UpdatedAt = now

	cfg, err := marshalJSONColumn(integration.Config)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO integrations (id, organization_id, provider, external_id, access_token, refresh_token, webhook_secret, config, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		integration.ID,
		integration.OrganizationID,
		integration.Provider,
		integration.ExternalID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.WebhookSecret,
		cfg,
		integration.Status,
		integration.CreatedAt,
		integration.UpdatedAt,
	)

	return err
}

func (s *PostgresStore) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	var row integrationRow
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1`

	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.model()
}

func (s *PostgresStore) ListIntegrations(ctx context.Context, organizationID string) ([]*models.Integration, error) {
	var rows []integrationRow
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE organization_id = $1 ORDER BY created_at DESC`

	if err := s.db.SelectContext(ctx, &rows, query, organizationID); err != nil {
		return nil, err
	}
	integrations := make([]*models.Integration, 0, len(rows))
	for i := range rows {
		integration, err := rows[i].model()
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integration)
	}
	return integrations, nil
}

func (s *PostgresStore) UpdateIntegration(ctx context.Context, integration *models.Integration) error {
	integration.UpdatedAt = time.Now().UTC()

	cfg, err := marshalJSONColumn(integration.Config)
	if err != nil {
		return err
	}

	query := `
		UPDATE integrations
		SET external_id = $1, access_token = $2, refresh_token = $3, webhook_secret = $4,
		    config = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	res, err := s.db.ExecContext(ctx, query,
		integration.ExternalID,
		integration.AccessToken,
		integration.RefreshToken,
		integration.WebhookSecret,
		cfg,
		integration.Status,
		integration.UpdatedAt,
		integration.ID,
	)
	if err != nil {
		return err
	}
	return rowAffected(res, integration.ID)
}

func (s *PostgresStore) SetIntegrationStatus(ctx context.Context, id string, status models.IntegrationStatus) error {
	query := `UPDATE integrations SET status = $1, updated_at = $2 WHERE id = $3`

	res, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

func (s *PostgresStore) DeleteIntegration(ctx context.Context, id string) error {
	query := `DELETE FROM integrations WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

// AuditRepository implementation

func (s *PostgresStore) CreateAudit(ctx context.Context, audit *models.Audit) error {
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if audit.Status == "" {
		audit.Status = models.AuditPending
	}
	audit.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO audits (id, organization_id, triggered_by, status, score, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	return instrumentQuery("create_audit", func() error {
		_, err := s.db.ExecContext(ctx, query,
			audit.ID,
			audit.OrganizationID,
			audit.TriggeredBy,
			audit.Status,
			audit.Score,
			audit.CreatedAt,
			audit.CompletedAt,
		)
		return err
	})
}

func (s *PostgresStore) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	var audit models.Audit
	query := `SELECT * FROM audits WHERE id = $1`

	err := s.db.GetContext(ctx, &audit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (s *PostgresStore) ListAudits(ctx context.Context, organizationID string, limit int) ([]*models.Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	var audits []*models.Audit
	query := `SELECT * FROM audits WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2`

	err := s.db.SelectContext(ctx, &audits, query, organizationID, limit)
	return audits, err
}

func (s *PostgresStore) SetAuditStatus(ctx context.Context, id string, status models.AuditStatus) error {
	query := `UPDATE audits SET status = $1 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

func (s *PostgresStore) FinishAudit(ctx context.Context, id string, status models.AuditStatus, score int, completedAt time.Time) error {
	query := `UPDATE audits SET status = $1, score = $2, completed_at = $3 WHERE id = $4`

	return instrumentQuery("finish_audit", func() error {
		res, err := s.db.ExecContext(ctx, query, status, score, completedAt, id)
		if err != nil {
			return err
		}
		return rowAffected(res, id)
	})
}

// EvidenceRepository implementation

func (s *PostgresStore) UpsertEvidence(ctx context.Context, evidence *models.Evidence) error {
	if evidence.ID == "" {
		evidence.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	evidence.CreatedAt = now
	evidence.UpdatedAt = now

	raw, err := marshalJSONColumn(evidence.RawData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO evidence (id, audit_id, question_id, status, raw_data, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (audit_id, question_id) DO UPDATE SET
			status = excluded.status,
			raw_data = excluded.raw_data,
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`

	return instrumentQuery("upsert_evidence", func() error {
		_, err := s.db.ExecContext(ctx, query,
			evidence.ID,
			evidence.AuditID,
			evidence.QuestionID,
			evidence.Status,
			raw,
			evidence.Comment,
			evidence.CreatedAt,
			evidence.UpdatedAt,
		)
		return err
	})
}

func (s *PostgresStore) ListEvidence(ctx context.Context, auditID string) ([]models.EvidenceDetail, error) {
	var rows []evidenceDetailRow
	query := `
		SELECT e.id, e.audit_id, e.question_id, e.status, e.raw_data, e.comment, e.created_at, e.updated_at,
		       q.key AS question_key, q.title AS question_title, q.severity
		FROM evidence e
		JOIN questions q ON q.id = e.question_id
		WHERE e.audit_id = $1
		ORDER BY q.key
	`

	err := instrumentQuery("list_evidence", func() error {
		return s.db.SelectContext(ctx, &rows, query, auditID)
	})
	if err != nil {
		return nil, err
	}
	details := make([]models.EvidenceDetail, 0, len(rows))
	for i := range rows {
		raw, err := unmarshalJSONColumn(rows[i].RawDataJSON)
		if err != nil {
			return nil, err
		}
		detail := rows[i].EvidenceDetail
		detail.RawData = raw
		details = append(details, detail)
	}
	return details, nil
}
