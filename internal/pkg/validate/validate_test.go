package validate

import (
	"strings"
	"testing"
)

func TestOrganizationID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"org-1", true},
		{"Org_42", true},
		{"a", true},
		{"", false},
		{"org/1", false},
		{"org 1", false},
		{strings.Repeat("a", OrganizationIDMaxLen), true},
		{strings.Repeat("a", OrganizationIDMaxLen+1), false},
	}
	for _, tt := range tests {
		if got := OrganizationID(tt.id); got != tt.want {
			t.Errorf("OrganizationID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"octo/repo", true},
		{"octo-org/my.repo_2", true},
		{"octo", false},
		{"/repo", false},
		{"octo/", false},
		{"octo/a/b", false},
		{"octo/re po", false},
		{"-octo/repo", false},
	}
	for _, tt := range tests {
		if got := RepoName(tt.name); got != tt.want {
			t.Errorf("RepoName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		login string
		want  bool
	}{
		{"octo-org", true},
		{"a", true},
		{"0ct0", true},
		{"", false},
		{"-octo", false},
		{"octo-", false},
		{"oc--to", false},
		{strings.Repeat("a", 39), true},
		{strings.Repeat("a", 40), false},
	}
	for _, tt := range tests {
		if got := Login(tt.login); got != tt.want {
			t.Errorf("Login(%q) = %v, want %v", tt.login, got, tt.want)
		}
	}
}
