package models

import "time"

// AuditStatus is the lifecycle state of a compliance audit.
type AuditStatus string

const (
	AuditPending   AuditStatus = "PENDING"
	AuditRunning   AuditStatus = "RUNNING"
	AuditCompleted AuditStatus = "COMPLETED"
	AuditFailed    AuditStatus = "FAILED"
)

// Terminal reports whether the status is final for the engine.
// External reopening is a collaborator concern, not ours.
func (s AuditStatus) Terminal() bool {
	return s == AuditCompleted || s == AuditFailed
}

// Audit is one compliance run against an organization's integration.
// Status is the sole externally polled completion signal; the score is
// only meaningful once status is COMPLETED.
type Audit struct {
	ID             string      `json:"id" db:"id"`
	OrganizationID string      `json:"organization_id" db:"organization_id"`
	TriggeredBy    *string     `json:"triggered_by,omitempty" db:"triggered_by"` // nil when system/webhook-triggered
	Status         AuditStatus `json:"status" db:"status"`
	Score          int         `json:"score" db:"score"` // 0-100, severity-weighted
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}
