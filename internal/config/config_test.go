package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.GitHubTimeoutSec)
	assert.Equal(t, 600, cfg.AuditTimeoutSec)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 90, cfg.KeyRotationDays)
	assert.False(t, cfg.DevMode)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AUDITOPS_PORT", "9999")
	t.Setenv("AUDITOPS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestVaultKeyConfig_RequiresPrimaryKeyOutsideDevMode(t *testing.T) {
	cfg := &Config{DevMode: false, PrimaryKey: ""}
	_, err := cfg.VaultKeyConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary_key")

	cfg.DevMode = true
	_, err = cfg.VaultKeyConfig()
	assert.NoError(t, err)
}

func TestVaultKeyConfig_ParsesHistoricalKeysAndTimestamp(t *testing.T) {
	cfg := &Config{
		PrimaryKey:      "primary",
		HistoricalKeys:  "old1, old2 ,,old3",
		KeyCreatedAt:    "2026-05-01T00:00:00Z",
		KeyRotationDays: 30,
	}
	kc, err := cfg.VaultKeyConfig()
	require.NoError(t, err)
	assert.Equal(t, "primary", kc.PrimaryKey)
	assert.Equal(t, []string{"old1", "old2", "old3"}, kc.HistoricalKeys)
	assert.Equal(t, 30, kc.RotationDays)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), kc.KeyCreatedAt)
}

func TestVaultKeyConfig_BadTimestamp(t *testing.T) {
	cfg := &Config{PrimaryKey: "primary", KeyCreatedAt: "yesterday"}
	_, err := cfg.VaultKeyConfig()
	assert.Error(t, err)
}
