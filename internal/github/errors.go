package github

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the GitHub API, classified so the
// orchestrator can tell "rule unverifiable under current policy" (an
// expected remote condition, recorded as FAIL) apart from internal
// defects (recorded as ERROR).
type APIError struct {
	StatusCode  int
	URL         string
	Message     string
	RateLimited bool // 429, or 403 with the primary quota exhausted
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
}

// IsNotFound reports a 404: resource missing or invisible to this token.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsPermission reports a 401/403 that is not a rate limit.
func IsPermission(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	return apiErr.StatusCode == http.StatusForbidden && !IsRateLimited(err)
}

// IsUnauthorized reports a 401: token invalid or revoked.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports a 429, or GitHub's 403-with-exhausted-quota
// variant. Rules classify this as FAIL ("rate limited, check skipped");
// the client never retries inline.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited
}

// IsExpected reports whether err is a remote-API condition the catalog
// dispatcher absorbs into a FAIL evidence row rather than an ERROR.
func IsExpected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
