package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/migrations"
)

// SQLiteStore implements Store using SQLite. It is the default backend
// for single-node and development deployments.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
// ":memory:" is supported for tests; the pool is then pinned to one
// connection so every query sees the same in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate applies all embedded migrations in filename order.
func (s *SQLiteStore) Migrate() error {
	return applyMigrations(s.db)
}

func applyMigrations(db *sqlx.DB) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		stmt, err := migrations.FS.ReadFile(entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func marshalJSONColumn(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func unmarshalJSONColumn(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal json column: %w", err)
	}
	return m, nil
}

type integrationRow struct {
	models.Integration
	ConfigJSON []byte `db:"config"`
}

func (r *integrationRow) model() (*models.Integration, error) {
	cfg, err := unmarshalJSONColumn(r.ConfigJSON)
	if err != nil {
		return nil, err
	}
	integration := r.Integration
	integration.Config = cfg
	return &integration, nil
}

type evidenceDetailRow struct {
	models.EvidenceDetail
	RawDataJSON []byte `db:"raw_data"`
}

// QuestionRepository implementation

func (s *SQLiteStore) SeedQuestions(ctx context.Context, questions []models.Question) error {
	query := `
		INSERT INTO questions (id, key, title, description, severity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
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

func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	query := `SELECT id, key, title, description, severity FROM questions ORDER BY key`

	err := s.db.SelectContext(ctx, &questions, query)
	return questions, err
}

func (s *SQLiteStore) GetQuestionByKey(ctx context.Context, key string) (*models.Question, error) {
	var question models.Question
	query := `SELECT id, key, title, description, severity FROM questions WHERE key = ?`

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

func (s *SQLiteStore) CreateIntegration(ctx context.Context, integration *models.Integration) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

const integrationColumns = `id, organization_id, provider, external_id, access_token, refresh_token, webhook_secret, config, status, created_at, updated_at`

func (s *SQLiteStore) GetIntegration(ctx context.Context, id string) (*models.Integration, error) {
	var row integrationRow
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = ?`

	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.model()
}

func (s *SQLiteStore) ListIntegrations(ctx context.Context, organizationID string) ([]*models.Integration, error) {
	var rows []integrationRow
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE organization_id = ? ORDER BY created_at DESC`

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

func (s *SQLiteStore) UpdateIntegration(ctx context.Context, integration *models.Integration) error {
	integration.UpdatedAt = time.Now().UTC()

	cfg, err := marshalJSONColumn(integration.Config)
	if err != nil {
		return err
	}

	query := `
		UPDATE integrations
		SET external_id = ?, access_token = ?, refresh_token = ?, webhook_secret = ?,
		    config = ?, status = ?, updated_at = ?
		WHERE id = ?
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

func (s *SQLiteStore) SetIntegrationStatus(ctx context.Context, id string, status models.IntegrationStatus) error {
	query := `UPDATE integrations SET status = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

func (s *SQLiteStore) DeleteIntegration(ctx context.Context, id string) error {
	query := `DELETE FROM integrations WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

func rowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// AuditRepository implementation

func (s *SQLiteStore) CreateAudit(ctx context.Context, audit *models.Audit) error {
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if audit.Status == "" {
		audit.Status = models.AuditPending
	}
	audit.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO audits (id, organization_id, triggered_by, status, score, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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

func (s *SQLiteStore) GetAudit(ctx context.Context, id string) (*models.Audit, error) {
	var audit models.Audit
	query := `SELECT * FROM audits WHERE id = ?`

	err := s.db.GetContext(ctx, &audit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (s *SQLiteStore) ListAudits(ctx context.Context, organizationID string, limit int) ([]*models.Audit, error) {
	if limit <= 0 {
		limit = 50
	}
	var audits []*models.Audit
	query := `SELECT * FROM audits WHERE organization_id = ? ORDER BY created_at DESC LIMIT ?`

	err := s.db.SelectContext(ctx, &audits, query, organizationID, limit)
	return audits, err
}

func (s *SQLiteStore) SetAuditStatus(ctx context.Context, id string, status models.AuditStatus) error {
	query := `UPDATE audits SET status = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return rowAffected(res, id)
}

func (s *SQLiteStore) FinishAudit(ctx context.Context, id string, status models.AuditStatus, score int, completedAt time.Time) error {
	query := `UPDATE audits SET status = ?, score = ?, completed_at = ? WHERE id = ?`

	return instrumentQuery("finish_audit", func() error {
		res, err := s.db.ExecContext(ctx, query, status, score, completedAt, id)
		if err != nil {
			return err
		}
		return rowAffected(res, id)
	})
}

// EvidenceRepository implementation

func (s *SQLiteStore) UpsertEvidence(ctx context.Context, evidence *models.Evidence) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(audit_id, question_id) DO UPDATE SET
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

func (s *SQLiteStore) ListEvidence(ctx context.Context, auditID string) ([]models.EvidenceDetail, error) {
	var rows []evidenceDetailRow
	query := `
		SELECT e.id, e.audit_id, e.question_id, e.status, e.raw_data, e.comment, e.created_at, e.updated_at,
		       q.key AS question_key, q.title AS question_title, q.severity
		FROM evidence e
		JOIN questions q ON q.id = e.question_id
		WHERE e.audit_id = ?
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
