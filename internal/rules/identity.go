package rules

import (
	"fmt"
	"strings"
	"time"
)

// EnforceMFA checks CIS 1.1: two-factor authentication must be required
// for all organization members.
type EnforceMFA struct{}

func (EnforceMFA) Evaluate(ctx Context) Result {
	if ctx.Org == nil {
		return fail("No organization data available.", StandardCISGitHub)
	}
	if ctx.Org.TwoFactorRequirementEnabled == nil {
		// The field is omitted when the token lacks read:org; that is a
		// policy gap we cannot verify, so it does not pass.
		return fail("MFA requirement not visible to this token; grant read:org to verify.", StandardCISGitHub)
	}
	if *ctx.Org.TwoFactorRequirementEnabled {
		return pass("MFA is enforced for the organization.", StandardCISGitHub)
	}
	return fail("MFA is NOT enforced for the organization.", StandardCISGitHub)
}

// StaleAdminThreshold is how long an admin may be inactive before CIS 1.2
// flags the account.
const StaleAdminThreshold = 90 * 24 * time.Hour

// StaleAdminAccess checks CIS 1.2: organization admins must have been
// active within the stale threshold. Members without activity data are
// treated as unknown, not stale.
type StaleAdminAccess struct{}

func (StaleAdminAccess) Evaluate(ctx Context) Result {
	if len(ctx.Members) == 0 {
		return fail("No members found to evaluate.", StandardCISGitHub)
	}
	now := time.Now()
	var stale []string
	for i := range ctx.Members {
		m := &ctx.Members[i]
		if m.Role != "admin" || m.LastActiveAt == nil {
			continue
		}
		if now.Sub(*m.LastActiveAt) > StaleAdminThreshold {
			stale = append(stale, m.Login)
		}
	}
	if len(stale) > 0 {
		return fail(fmt.Sprintf("Found stale admins inactive for 90+ days: %s.", strings.Join(stale, ", ")), StandardCISGitHub)
	}
	return pass("No stale admins found.", StandardCISGitHub)
}

// MaxOwners is the CIS 1.3 ceiling on organization owners.
const MaxOwners = 3

// ExcessiveOwners checks CIS 1.3: the organization must not accumulate
// more than MaxOwners owners.
type ExcessiveOwners struct{}

func (ExcessiveOwners) Evaluate(ctx Context) Result {
	if len(ctx.Members) == 0 {
		return fail("No members data available.", StandardCISGitHub)
	}
	admins := 0
	for i := range ctx.Members {
		if ctx.Members[i].Role == "admin" {
			admins++
		}
	}
	if admins > MaxOwners {
		return fail(fmt.Sprintf("Excessive number of owners detected: %d (limit %d).", admins, MaxOwners), StandardCISGitHub)
	}
	return pass(fmt.Sprintf("Owner count is within limits: %d.", admins), StandardCISGitHub)
}

// BasePermissions checks that the organization's default repository
// permission is "read" or "none", not write-or-broader.
type BasePermissions struct{}

func (BasePermissions) Evaluate(ctx Context) Result {
	if ctx.Org == nil {
		return fail("No organization data available.", StandardBestPractices)
	}
	perm := ctx.Org.DefaultRepositoryPermission
	if perm == "read" || perm == "none" {
		return pass(fmt.Sprintf("Base permission is safe (%s).", perm), StandardBestPractices)
	}
	if perm == "" {
		return fail("Base permission not visible to this token.", StandardBestPractices)
	}
	return fail(fmt.Sprintf("Base permission is too permissive: %s.", perm), StandardBestPractices)
}

// NoOutsideCollaborators checks CIS 1.4: repositories should not grant
// access to collaborators outside the organization. An empty list is an
// explicit pass.
type NoOutsideCollaborators struct{}

func (NoOutsideCollaborators) Evaluate(ctx Context) Result {
	if len(ctx.OutsideCollaborators) == 0 {
		return pass("No outside collaborators have repository access.", StandardCISGitHub)
	}
	logins := make([]string, len(ctx.OutsideCollaborators))
	for i := range ctx.OutsideCollaborators {
		logins[i] = ctx.OutsideCollaborators[i].Login
	}
	return fail(fmt.Sprintf("Found %d outside collaborators: %s.", len(logins), strings.Join(logins, ", ")), StandardCISGitHub)
}
