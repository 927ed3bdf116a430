package github

import "time"

// Organization is the subset of GET /orgs/{org} the rules consume.
type Organization struct {
	ID                          int64  `json:"id"`
	Login                       string `json:"login"`
	Type                        string `json:"type"`
	TwoFactorRequirementEnabled *bool  `json:"two_factor_requirement_enabled"` // nil when the token lacks read:org
	DefaultRepositoryPermission string `json:"default_repository_permission"`
}

// Member is an organization member with their role. LastActiveAt is only
// populated on GitHub Enterprise responses; nil means unknown.
type Member struct {
	ID           int64      `json:"id"`
	Login        string     `json:"login"`
	Role         string     `json:"role,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// FeatureStatus is GitHub's enabled/disabled toggle shape.
type FeatureStatus struct {
	Status string `json:"status"`
}

// SecurityAndAnalysis mirrors the repository security_and_analysis block.
// Absent blocks mean the feature is unavailable or disabled.
type SecurityAndAnalysis struct {
	SecretScanning               *FeatureStatus `json:"secret_scanning,omitempty"`
	SecretScanningPushProtection *FeatureStatus `json:"secret_scanning_push_protection,omitempty"`
	DependabotSecurityUpdates    *FeatureStatus `json:"dependabot_security_updates,omitempty"`
}

// Repository is the subset of GET /repos/{owner}/{repo} the rules consume.
type Repository struct {
	ID                  int64                `json:"id"`
	FullName            string               `json:"full_name"`
	Private             bool                 `json:"private"`
	DefaultBranch       string               `json:"default_branch"`
	Topics              []string             `json:"topics"`
	SecurityAndAnalysis *SecurityAndAnalysis `json:"security_and_analysis,omitempty"`
}

// Toggle is a branch-protection sub-setting with an enabled flag.
type Toggle struct {
	Enabled bool `json:"enabled"`
}

// RequiredPullRequestReviews is the review-requirement block of a
// branch-protection payload.
type RequiredPullRequestReviews struct {
	RequiredApprovingReviewCount int  `json:"required_approving_review_count"`
	DismissStaleReviews          bool `json:"dismiss_stale_reviews"`
}

// RequiredStatusChecks is the status-check block of a branch-protection
// payload.
type RequiredStatusChecks struct {
	Strict   bool     `json:"strict"`
	Contexts []string `json:"contexts"`
}

// BranchProtection is GET /repos/{owner}/{repo}/branches/{branch}/protection.
// A nil *BranchProtection means the endpoint returned 404: no protection
// is configured, which is valid remote state, not a client error.
type BranchProtection struct {
	RequiredSignatures         *Toggle                     `json:"required_signatures,omitempty"`
	RequiredPullRequestReviews *RequiredPullRequestReviews `json:"required_pull_request_reviews,omitempty"`
	RequiredLinearHistory      *Toggle                     `json:"required_linear_history,omitempty"`
	AllowForcePushes           *Toggle                     `json:"allow_force_pushes,omitempty"`
	AllowDeletions             *Toggle                     `json:"allow_deletions,omitempty"`
	RequiredStatusChecks       *RequiredStatusChecks       `json:"required_status_checks,omitempty"`
	EnforceAdmins              *Toggle                     `json:"enforce_admins,omitempty"`
}

// Collaborator is a repository collaborator entry.
type Collaborator struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// TreeEntry is one path in a git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}
