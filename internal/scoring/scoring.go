// Package scoring computes the 0-100 compliance score for a completed
// audit. Scoring is a pure fold over evidence rows so the same rows
// always yield the same score.
package scoring

import "github.com/auditops/auditops-backend/internal/models"

// MaxScore is the score of a fully compliant audit.
const MaxScore = 100

// deductions maps a failed check's severity to its score cost.
// LOW findings are reported but never cost points.
var deductions = map[models.Severity]int{
	models.SeverityCritical: 15,
	models.SeverityHigh:     10,
	models.SeverityMedium:   5,
	models.SeverityLow:      0,
}

// Deduction returns the score cost of one failed check at the given
// severity. Unknown severities cost nothing.
func Deduction(severity models.Severity) int {
	return deductions[severity]
}

// Finding is the (status, severity) pair scoring consumes per evidence
// row.
type Finding struct {
	Status   models.EvidenceStatus
	Severity models.Severity
}

// Score folds findings into a 0-100 score. Only FAIL rows deduct;
// ERROR rows mean the check could not run and are excluded entirely.
// The score floors at zero.
func Score(findings []Finding) int {
	score := MaxScore
	for _, f := range findings {
		if f.Status != models.EvidenceFail {
			continue
		}
		score -= Deduction(f.Severity)
	}
	if score < 0 {
		return 0
	}
	return score
}
