// Package redact provides helpers to avoid exposing credential values in
// API responses or logs.
package redact

import "strings"

const redactedValue = "***REDACTED***"

// Mask keeps a short identifying prefix of a credential and hides the
// rest. Four characters is enough to recognize a token class prefix
// (ghp_, gho_) without exposing material entropy.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return redactedValue
	}
	return secret[:4] + "***"
}

// ConfigValues redacts secret-looking keys in a provider config map
// (in place). Keeps key names so clients know which keys exist; values
// are replaced with ***REDACTED***.
func ConfigValues(cfg map[string]any) {
	for k := range cfg {
		if IsSecretKey(k) {
			cfg[k] = redactedValue
		}
	}
}

// IsSecretKey returns true if a config key name suggests credential
// material (e.g. "api_token", "webhook_secret", "password").
func IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range []string{"token", "secret", "password", "credential", "private_key"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}
