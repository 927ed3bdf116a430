package rules

import (
	"fmt"
	"strings"
)

// SecretScanningEnabled checks CIS 2.1: secret scanning must be enabled
// on the repository.
type SecretScanningEnabled struct{}

func (SecretScanningEnabled) Evaluate(ctx Context) Result {
	if ctx.Repo == nil {
		return fail("No repository data available.", StandardCISGitHub)
	}
	sa := ctx.Repo.SecurityAndAnalysis
	if sa == nil {
		return fail("Security and analysis settings are missing or not visible to this token.", StandardCISGitHub)
	}
	if sa.SecretScanning != nil && sa.SecretScanning.Status == "enabled" {
		return pass("Secret scanning is enabled.", StandardCISGitHub)
	}
	return fail("Secret scanning is disabled.", StandardCISGitHub)
}

// PushProtectionEnabled checks that secret-scanning push protection is
// enabled, blocking secrets before they land in history.
type PushProtectionEnabled struct{}

func (PushProtectionEnabled) Evaluate(ctx Context) Result {
	if ctx.Repo == nil {
		return fail("No repository data available.", StandardBestPractices)
	}
	sa := ctx.Repo.SecurityAndAnalysis
	if sa == nil {
		return fail("Security and analysis settings are missing or not visible to this token.", StandardBestPractices)
	}
	if sa.SecretScanningPushProtection != nil && sa.SecretScanningPushProtection.Status == "enabled" {
		return pass("Secret scanning push protection is enabled.", StandardBestPractices)
	}
	return fail("Push protection is disabled or not configured.", StandardBestPractices)
}

// DependabotEnabled checks CIS 2.2: Dependabot security updates must be
// enabled.
type DependabotEnabled struct{}

func (DependabotEnabled) Evaluate(ctx Context) Result {
	if ctx.Repo == nil {
		return fail("No repository data available.", StandardCISGitHub)
	}
	sa := ctx.Repo.SecurityAndAnalysis
	if sa == nil {
		return fail("Security and analysis settings are missing or not visible to this token.", StandardCISGitHub)
	}
	if sa.DependabotSecurityUpdates != nil && sa.DependabotSecurityUpdates.Status == "enabled" {
		return pass("Dependabot security updates are enabled.", StandardCISGitHub)
	}
	return fail("Dependabot security updates are disabled.", StandardCISGitHub)
}

// InternalTopic marks repositories whose visibility must stay private.
const InternalTopic = "internal"

// PrivateRepoVisibility checks CIS 2.5: repositories tagged with the
// internal topic must be private.
type PrivateRepoVisibility struct{}

func (PrivateRepoVisibility) Evaluate(ctx Context) Result {
	if ctx.Repo == nil {
		return fail("No repository data available.", StandardCISGitHub)
	}
	tagged := false
	for _, t := range ctx.Repo.Topics {
		if strings.EqualFold(t, InternalTopic) {
			tagged = true
			break
		}
	}
	if tagged && !ctx.Repo.Private {
		return fail(fmt.Sprintf("Repository %s is tagged 'internal' but visibility is public.", ctx.Repo.FullName), StandardCISGitHub)
	}
	return pass("Repository visibility compliance passed.", StandardCISGitHub)
}
