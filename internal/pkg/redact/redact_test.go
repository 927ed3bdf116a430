package redact

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***REDACTED***"},
		{"ghp_0123456789abcdef", "ghp_***"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigValues(t *testing.T) {
	cfg := map[string]any{
		"repo_name":     "octo/repo",
		"org_name":      "octo-org",
		"api_token":     "ghp_leaked",
		"webhook_secret": "hush",
	}
	ConfigValues(cfg)

	if cfg["repo_name"] != "octo/repo" {
		t.Errorf("repo_name should survive, got %v", cfg["repo_name"])
	}
	if cfg["api_token"] != "***REDACTED***" {
		t.Errorf("api_token should be redacted, got %v", cfg["api_token"])
	}
	if cfg["webhook_secret"] != "***REDACTED***" {
		t.Errorf("webhook_secret should be redacted, got %v", cfg["webhook_secret"])
	}
}

func TestIsSecretKey(t *testing.T) {
	if !IsSecretKey("Access_Token") {
		t.Error("Access_Token should be a secret key")
	}
	if IsSecretKey("repo_name") {
		t.Error("repo_name should not be a secret key")
	}
}
