package rules

import "fmt"

// Every rule in this file reads the branch-protection payload. A nil
// Protection means GitHub returned 404 for the protection endpoint, so
// each rule fails with an explicit "no protection configured" detail.

const noProtectionDetails = "No branch protection is configured on the default branch."

// BranchProtectionConfigured checks CIS 4.1: the default branch must
// have any protection rule at all.
type BranchProtectionConfigured struct{}

func (BranchProtectionConfigured) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	return pass("Branch protection is configured on the default branch.", StandardCISGitHub)
}

// EnforceSignedCommits checks CIS 3.1: the default branch must require
// signed commits.
type EnforceSignedCommits struct{}

func (EnforceSignedCommits) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	sig := ctx.Protection.RequiredSignatures
	if sig != nil && sig.Enabled {
		return pass("Signed commits are required on the default branch.", StandardCISGitHub)
	}
	return fail("Signed commits are NOT required on the default branch.", StandardCISGitHub)
}

// RequireCodeReviews checks CIS 4.2: merges into the default branch must
// require at least one approving review.
type RequireCodeReviews struct{}

func (RequireCodeReviews) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	reviews := ctx.Protection.RequiredPullRequestReviews
	if reviews == nil {
		return fail("Pull request reviews are not required before merge.", StandardCISGitHub)
	}
	if reviews.RequiredApprovingReviewCount >= 1 {
		return pass(fmt.Sprintf("Merges require %d approving review(s).", reviews.RequiredApprovingReviewCount), StandardCISGitHub)
	}
	return fail("Review requirement is configured with zero required approvals.", StandardCISGitHub)
}

// DismissStaleReviews checks CIS 4.3: new commits must dismiss previously
// approved reviews.
type DismissStaleReviews struct{}

func (DismissStaleReviews) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	reviews := ctx.Protection.RequiredPullRequestReviews
	if reviews != nil && reviews.DismissStaleReviews {
		return pass("Stale review approvals are dismissed on new commits.", StandardCISGitHub)
	}
	return fail("Stale review approvals are NOT dismissed on new commits.", StandardCISGitHub)
}

// PreventForcePushes checks CIS 4.4: force pushes to the default branch
// must be blocked. GitHub omits the block when force pushes are blocked
// by default, so only an explicit enabled toggle fails.
type PreventForcePushes struct{}

func (PreventForcePushes) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	fp := ctx.Protection.AllowForcePushes
	if fp != nil && fp.Enabled {
		return fail("Force pushes are allowed on the protected branch.", StandardCISGitHub)
	}
	return pass("Force pushes are blocked on the default branch.", StandardCISGitHub)
}

// RequireLinearHistory checks CIS 4.5: the default branch must require a
// linear commit history.
type RequireLinearHistory struct{}

func (RequireLinearHistory) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	lh := ctx.Protection.RequiredLinearHistory
	if lh != nil && lh.Enabled {
		return pass("Linear history is required on the default branch.", StandardCISGitHub)
	}
	return fail("Linear history is NOT required on the default branch.", StandardCISGitHub)
}

// RequireStatusChecks checks CIS 4.6: merges must require passing status
// checks with at least one configured context.
type RequireStatusChecks struct{}

func (RequireStatusChecks) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	checks := ctx.Protection.RequiredStatusChecks
	if checks == nil {
		return fail("Status checks are not required before merge.", StandardCISGitHub)
	}
	if len(checks.Contexts) == 0 {
		return fail("Status checks are required but no check contexts are configured.", StandardCISGitHub)
	}
	return pass(fmt.Sprintf("Merges require %d status check(s).", len(checks.Contexts)), StandardCISGitHub)
}

// PreventBranchDeletion checks CIS 4.7: deleting the default branch must
// be blocked.
type PreventBranchDeletion struct{}

func (PreventBranchDeletion) Evaluate(ctx Context) Result {
	if ctx.Protection == nil {
		return fail(noProtectionDetails, StandardCISGitHub)
	}
	del := ctx.Protection.AllowDeletions
	if del != nil && del.Enabled {
		return fail("Deletion of the protected branch is allowed.", StandardCISGitHub)
	}
	return pass("Deletion of the default branch is blocked.", StandardCISGitHub)
}
