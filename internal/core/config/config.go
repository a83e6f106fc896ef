package config

import (
	"time"

	"github.com/meetsync/healthwatch/internal/infra/queue"
	"github.com/meetsync/healthwatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Database postgres.Config `yaml:"database"`
	Redis    queue.Config    `yaml:"redis"`
	Logging  LoggingConfig   `yaml:"logging"`
	Health   HealthConfig    `yaml:"health"`
	Alerting AlertingConfig  `yaml:"alerting"`
	Secrets  SecretsConfig   `yaml:"secrets"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// HealthConfig holds sweep and probe settings.
type HealthConfig struct {
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout"`
	WorkerConcurrency int           `yaml:"worker_concurrency"`
}

// AlertingConfig holds alert delivery settings.
type AlertingConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// SecretsConfig holds credential decryption settings.
type SecretsConfig struct {
	// CredentialKey is the hex-encoded 32-byte AES key for stored provider
	// credentials. Usually injected via ${HEALTHWATCH_CREDENTIAL_KEY}.
	CredentialKey string `yaml:"credential_key"`
}
