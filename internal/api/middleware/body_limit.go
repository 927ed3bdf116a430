// Package middleware provides transport-level request guards shared by
// every route: body size limits, per-client rate limiting, and security
// response headers.
package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultStandardMaxBodyBytes is the default max request body for
	// ordinary API requests (64KB). Audit and integration payloads are
	// small JSON documents.
	DefaultStandardMaxBodyBytes = 64 * 1024
	// DefaultWebhookMaxBodyBytes is the default max request body for
	// webhook deliveries (1MB). Push events can carry large commit lists.
	DefaultWebhookMaxBodyBytes = 1024 * 1024
)

// MaxBodySize returns middleware that limits request body size:
// webhookMax for webhook deliveries, standardMax otherwise. Only methods
// that may carry a body (POST, PUT, PATCH) are limited.
func MaxBodySize(standardMax, webhookMax int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			max := standardMax
			if (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) &&
				strings.Contains(r.URL.Path, "/webhooks/") {
				max = webhookMax
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
