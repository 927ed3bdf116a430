package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/auditops/auditops-backend/internal/vault"
)

type Config struct {
	Port               int      `mapstructure:"port"`
	DatabaseDriver     string   `mapstructure:"database_driver"` // "sqlite" or "postgres"
	DatabasePath       string   `mapstructure:"database_path"`   // sqlite file path
	DatabaseURL        string   `mapstructure:"database_url"`    // postgres connection URL
	LogLevel           string   `mapstructure:"log_level"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	DevMode            bool     `mapstructure:"dev_mode"` // allow missing primary key by generating an ephemeral one
	RequestTimeoutSec  int      `mapstructure:"request_timeout_sec"`  // HTTP read/write; 0 = use server default
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"` // Graceful shutdown wait

	GitHubAPIBaseURL       string  `mapstructure:"github_api_base_url"` // override for GHE / tests
	GitHubTimeoutSec       int     `mapstructure:"github_timeout_sec"`  // per-call HTTP timeout
	GitHubRateLimitPerSec  float64 `mapstructure:"github_rate_limit_per_sec"` // token bucket per client (req/s); 0 = no limit
	GitHubRateLimitBurst   int     `mapstructure:"github_rate_limit_burst"`

	AuditTimeoutSec  int `mapstructure:"audit_timeout_sec"` // whole-audit deadline; 0 = no deadline
	WorkerCount      int `mapstructure:"worker_count"`
	WorkerQueueDepth int `mapstructure:"worker_queue_depth"`

	PrimaryKey      string `mapstructure:"primary_key"`      // vault primary key, required outside dev mode
	HistoricalKeys  string `mapstructure:"historical_keys"`  // comma-separated retired keys
	KeyCreatedAt    string `mapstructure:"key_created_at"`   // RFC3339 timestamp of the primary key
	KeyRotationDays int    `mapstructure:"key_rotation_days"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/auditops/")
	viper.AddConfigPath("$HOME/.auditops")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_path", "./auditops.db")
	viper.SetDefault("database_url", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("dev_mode", false)
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("github_api_base_url", "")
	viper.SetDefault("github_timeout_sec", 10)
	viper.SetDefault("github_rate_limit_per_sec", 10)
	viper.SetDefault("github_rate_limit_burst", 20)
	viper.SetDefault("audit_timeout_sec", 600)
	viper.SetDefault("worker_count", 4)
	viper.SetDefault("worker_queue_depth", 64)
	viper.SetDefault("primary_key", "")
	viper.SetDefault("historical_keys", "")
	viper.SetDefault("key_created_at", "")
	viper.SetDefault("key_rotation_days", vault.DefaultRotationDays)

	// Environment variables (AUDITOPS_PRIMARY_KEY, AUDITOPS_PORT, ...)
	viper.SetEnvPrefix("AUDITOPS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// VaultKeyConfig converts the raw key settings into the vault's shape.
// A missing primary key is startup-fatal unless dev mode is on, in which
// case callers should generate an ephemeral key instead.
func (c *Config) VaultKeyConfig() (vault.KeyConfig, error) {
	kc := vault.KeyConfig{
		PrimaryKey:   strings.TrimSpace(c.PrimaryKey),
		RotationDays: c.KeyRotationDays,
	}
	if c.HistoricalKeys != "" {
		for _, k := range strings.Split(c.HistoricalKeys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kc.HistoricalKeys = append(kc.HistoricalKeys, k)
			}
		}
	}
	if c.KeyCreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, c.KeyCreatedAt)
		if err != nil {
			return kc, fmt.Errorf("parse key_created_at: %w", err)
		}
		kc.KeyCreatedAt = createdAt
	}
	if kc.PrimaryKey == "" && !c.DevMode {
		return kc, fmt.Errorf("primary_key is required (set AUDITOPS_PRIMARY_KEY or enable dev_mode)")
	}
	return kc, nil
}
