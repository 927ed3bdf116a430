// Package validate provides input validation for API path and body
// parameters.
package validate

import (
	"regexp"
	"strings"
)

// OrganizationIDMaxLen is the maximum allowed length for an
// organization ID (stored in DB, used in paths).
const OrganizationIDMaxLen = 128

// GitHub login: alphanumeric with interior hyphens, no leading or
// trailing hyphen. Consecutive hyphens and length are checked in code.
var loginRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// OrganizationID validates an organization identifier: alphanumeric,
// hyphen, underscore; 1 to OrganizationIDMaxLen characters.
func OrganizationID(id string) bool {
	if id == "" || len(id) > OrganizationIDMaxLen {
		return false
	}
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// RepoName validates an "owner/name" repository slug as accepted in
// integration config.
func RepoName(full string) bool {
	owner, name, ok := strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return false
	}
	if len(name) > 100 {
		return false
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return Login(owner)
}

// Login validates a provider account login (user or organization).
func Login(login string) bool {
	if login == "" || len(login) > 39 || strings.Contains(login, "--") {
		return false
	}
	return loginRe.MatchString(login)
}
