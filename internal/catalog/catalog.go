// Package catalog is the registry binding compliance question keys to
// their rule implementations and remote-data needs. The orchestrator
// audits whatever questions the database holds; an active question whose
// key is missing here is recorded as an ERROR finding, never skipped
// silently.
package catalog

import (
	"github.com/auditops/auditops-backend/internal/models"
	"github.com/auditops/auditops-backend/internal/rules"
)

// Need names one kind of remote state an entry's rule reads. The
// orchestrator fetches each kind at most once per audit and shares the
// snapshot across entries.
type Need int

const (
	NeedOrg Need = iota
	NeedMembers
	NeedRepo
	NeedProtection
	NeedCollaborators
	NeedTree
)

// Entry binds one question to its rule.
type Entry struct {
	Question models.Question // ID left zero; storage assigns it on seed
	Needs    []Need
	Rule     rules.Rule
}

// Catalog is an ordered, key-indexed set of entries.
type Catalog struct {
	entries []Entry
	byKey   map[string]*Entry
}

// New builds a catalog from entries, indexing them by question key.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byKey:   make(map[string]*Entry, len(entries)),
	}
	for i := range c.entries {
		c.byKey[c.entries[i].Question.Key] = &c.entries[i]
	}
	return c
}

// Lookup returns the entry for a question key.
func (c *Catalog) Lookup(key string) (*Entry, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// Len reports the number of registered entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Questions returns the catalog's question definitions in registration
// order, for seeding storage.
func (c *Catalog) Questions() []models.Question {
	qs := make([]models.Question, len(c.entries))
	for i := range c.entries {
		qs[i] = c.entries[i].Question
	}
	return qs
}

func q(key, title, description string, severity models.Severity) models.Question {
	return models.Question{Key: key, Title: title, Description: description, Severity: severity}
}

// Default returns the built-in GitHub compliance catalog.
func Default() *Catalog {
	return New([]Entry{
		{
			Question: q("cis_1_1_mfa", "Enforce multi-factor authentication",
				"Two-factor authentication must be required for all organization members.", models.SeverityCritical),
			Needs: []Need{NeedOrg},
			Rule:  rules.EnforceMFA{},
		},
		{
			Question: q("cis_1_2_stale_admins", "Remove stale admin access",
				"Organization admins inactive for 90 or more days must have their access reviewed.", models.SeverityHigh),
			Needs: []Need{NeedMembers},
			Rule:  rules.StaleAdminAccess{},
		},
		{
			Question: q("cis_1_3_excessive_owners", "Limit organization owners",
				"The organization must not have more than three owners.", models.SeverityMedium),
			Needs: []Need{NeedMembers},
			Rule:  rules.ExcessiveOwners{},
		},
		{
			Question: q("cis_1_4_collaborators", "Restrict outside collaborators",
				"Repositories must not grant access to collaborators outside the organization.", models.SeverityHigh),
			Needs: []Need{NeedCollaborators},
			Rule:  rules.NoOutsideCollaborators{},
		},
		{
			Question: q("cis_2_1_secret_scanning", "Enable secret scanning",
				"Secret scanning must be enabled to detect committed credentials.", models.SeverityCritical),
			Needs: []Need{NeedRepo},
			Rule:  rules.SecretScanningEnabled{},
		},
		{
			Question: q("cis_2_2_dependabot", "Enable Dependabot security updates",
				"Dependabot security updates must be enabled for dependency vulnerabilities.", models.SeverityHigh),
			Needs: []Need{NeedRepo},
			Rule:  rules.DependabotEnabled{},
		},
		{
			Question: q("cis_2_5_private_repo", "Keep internal repositories private",
				"Repositories tagged as internal must not be publicly visible.", models.SeverityCritical),
			Needs: []Need{NeedRepo},
			Rule:  rules.PrivateRepoVisibility{},
		},
		{
			Question: q("cis_3_1_signed_commits", "Require signed commits",
				"The default branch must require verified commit signatures.", models.SeverityMedium),
			Needs: []Need{NeedProtection},
			Rule:  rules.EnforceSignedCommits{},
		},
		{
			Question: q("cis_4_1_branch_protection", "Protect the default branch",
				"The default branch must have branch protection configured.", models.SeverityCritical),
			Needs: []Need{NeedProtection},
			Rule:  rules.BranchProtectionConfigured{},
		},
		{
			Question: q("cis_4_2_code_reviews", "Require code reviews",
				"Merges into the default branch must require at least one approving review.", models.SeverityHigh),
			Needs: []Need{NeedProtection},
			Rule:  rules.RequireCodeReviews{},
		},
		{
			Question: q("cis_4_3_dismiss_stale", "Dismiss stale approvals",
				"New commits must dismiss previously approved reviews.", models.SeverityMedium),
			Needs: []Need{NeedProtection},
			Rule:  rules.DismissStaleReviews{},
		},
		{
			Question: q("cis_4_4_force_pushes", "Block force pushes",
				"Force pushes to the default branch must be blocked.", models.SeverityHigh),
			Needs: []Need{NeedProtection},
			Rule:  rules.PreventForcePushes{},
		},
		{
			Question: q("cis_4_5_linear_history", "Require linear history",
				"The default branch must require a linear commit history.", models.SeverityLow),
			Needs: []Need{NeedProtection},
			Rule:  rules.RequireLinearHistory{},
		},
		{
			Question: q("cis_4_6_status_checks", "Require status checks",
				"Merges must require passing status checks.", models.SeverityMedium),
			Needs: []Need{NeedProtection},
			Rule:  rules.RequireStatusChecks{},
		},
		{
			Question: q("cis_4_7_branch_deletion", "Block branch deletion",
				"Deleting the default branch must be blocked.", models.SeverityMedium),
			Needs: []Need{NeedProtection},
			Rule:  rules.PreventBranchDeletion{},
		},
		{
			Question: q("cis_5_1_codeowners", "Define code owners",
				"The repository must define code owners in a recognized CODEOWNERS location.", models.SeverityMedium),
			Needs: []Need{NeedTree},
			Rule:  rules.CodeOwnersExist{},
		},
		{
			Question: q("gh_gov_license", "Carry a license file",
				"The repository must carry a license file at its root.", models.SeverityLow),
			Needs: []Need{NeedTree},
			Rule:  rules.LicenseFileExists{},
		},
		{
			Question: q("gh_gov_readme", "Carry a README",
				"The repository must carry a README at its root.", models.SeverityLow),
			Needs: []Need{NeedTree},
			Rule:  rules.ReadmeExists{},
		},
		{
			Question: q("gh_sec_push_protection", "Enable push protection",
				"Secret scanning push protection must be enabled to block secrets before they land.", models.SeverityHigh),
			Needs: []Need{NeedRepo},
			Rule:  rules.PushProtectionEnabled{},
		},
		{
			Question: q("gh_auth_base_permissions", "Restrict base permissions",
				"The organization default repository permission must be read or none.", models.SeverityHigh),
			Needs: []Need{NeedOrg},
			Rule:  rules.BasePermissions{},
		},
	})
}
