package models

// Severity is the risk tier of a compliance check. It drives scoring
// deductions, so the tier names are part of the stable vocabulary.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Question defines one compliance check. Keys are a stable, versioned
// vocabulary (e.g. "cis_2_1_secret_scanning"); renaming a key orphans
// historical evidence, so keys are never reused for a different meaning.
type Question struct {
	ID          string   `json:"id" db:"id"`
	Key         string   `json:"key" db:"key"`
	Title       string   `json:"title" db:"title"`
	Description string   `json:"description" db:"description"`
	Severity    Severity `json:"severity" db:"severity"`
}
