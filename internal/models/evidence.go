package models

import "time"

// EvidenceStatus classifies one check outcome. FAIL means the rule is
// violated or unverifiable under current policy; ERROR means an internal
// defect and is excluded from scoring.
type EvidenceStatus string

const (
	EvidencePass  EvidenceStatus = "PASS"
	EvidenceFail  EvidenceStatus = "FAIL"
	EvidenceError EvidenceStatus = "ERROR"
)

// Evidence is one persisted check result for one audit. Catalog-driven
// runs upsert on (audit, question); the engine never mutates evidence
// after the audit closes.
type Evidence struct {
	ID         string         `json:"id" db:"id"`
	AuditID    string         `json:"audit_id" db:"audit_id"`
	QuestionID string         `json:"question_id" db:"question_id"`
	Status     EvidenceStatus `json:"status" db:"status"`
	RawData    map[string]any `json:"raw_data" db:"-"` // JSON column; marshalled by the repository
	Comment    string         `json:"comment" db:"comment"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// EvidenceDetail is an evidence row joined with its question, as served
// to callers and consumed by the scoring engine.
type EvidenceDetail struct {
	Evidence
	QuestionKey   string   `json:"question_key" db:"question_key"`
	QuestionTitle string   `json:"question_title" db:"question_title"`
	Severity      Severity `json:"severity" db:"severity"`
}
