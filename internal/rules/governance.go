package rules

import "strings"

// CodeOwnersLocations are the paths GitHub recognizes for a CODEOWNERS
// file, in lookup order.
var CodeOwnersLocations = []string{".github/CODEOWNERS", "CODEOWNERS", "docs/CODEOWNERS"}

func hasPath(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

// CodeOwnersExist checks CIS 5.1: the repository must define code owners
// in one of the locations GitHub recognizes.
type CodeOwnersExist struct{}

func (CodeOwnersExist) Evaluate(ctx Context) Result {
	for _, loc := range CodeOwnersLocations {
		if hasPath(ctx.TreePaths, loc) {
			return pass("CODEOWNERS file found at "+loc+".", StandardCISGitHub)
		}
	}
	return fail("No CODEOWNERS file found in any recognized location.", StandardCISGitHub)
}

// LicenseFileExists checks that the repository carries a license file at
// the root.
type LicenseFileExists struct{}

func (LicenseFileExists) Evaluate(ctx Context) Result {
	for _, p := range ctx.TreePaths {
		if strings.Contains(p, "/") {
			continue
		}
		base := strings.ToUpper(p)
		if base == "LICENSE" || base == "LICENSE.MD" || base == "LICENSE.TXT" || base == "COPYING" {
			return pass("License file found: "+p+".", StandardBestPractices)
		}
	}
	return fail("No license file found at the repository root.", StandardBestPractices)
}

// ReadmeExists checks that the repository carries a README at the root.
type ReadmeExists struct{}

func (ReadmeExists) Evaluate(ctx Context) Result {
	for _, p := range ctx.TreePaths {
		if strings.Contains(p, "/") {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(p), "README") {
			return pass("README found: "+p+".", StandardBestPractices)
		}
	}
	return fail("No README found at the repository root.", StandardBestPractices)
}
