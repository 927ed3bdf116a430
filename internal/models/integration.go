package models

import "time"

// IntegrationStatus is the connection health of a provider integration.
type IntegrationStatus string

const (
	IntegrationActive       IntegrationStatus = "active"
	IntegrationDisconnected IntegrationStatus = "disconnected"
	IntegrationError        IntegrationStatus = "error" // credential rejected by the provider
)

// Integration is one organization's stored connection to an external
// provider. Token fields hold vault ciphertext only: plaintext exists
// in memory at the point of use and is never persisted or logged.
type Integration struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	Provider       string            `json:"provider" db:"provider"`
	ExternalID     string            `json:"external_id" db:"external_id"` // provider-side identity (org login or numeric ID)
	AccessToken    string            `json:"-" db:"access_token"`          // ciphertext
	RefreshToken   string            `json:"-" db:"refresh_token"`         // ciphertext
	WebhookSecret  string            `json:"-" db:"webhook_secret"`        // ciphertext
	Config         map[string]any    `json:"config" db:"-"`                // provider-specific metadata (repo_name, org_name, ...)
	Status         IntegrationStatus `json:"status" db:"status"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// ConfigString returns a string-valued config entry, or "" when absent.
func (i *Integration) ConfigString(key string) string {
	if i.Config == nil {
		return ""
	}
	if v, ok := i.Config[key].(string); ok {
		return v
	}
	return ""
}

const ProviderGitHub = "github"
