package config

import (
	"time"

	"github.com/zero-day-ai/forensiq/internal/guardrail/builtin"
	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/rbac"
)

// Config is the root configuration for forensiq.
type Config struct {
	Logging    observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics    observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Oracle     OracleConfig                `mapstructure:"oracle" yaml:"oracle"`
	Agent      AgentConfig                 `mapstructure:"agent" yaml:"agent"`
	Audit      AuditConfig                 `mapstructure:"audit" yaml:"audit"`
	Roles      map[string]rbac.Policy      `mapstructure:"roles" yaml:"roles,omitempty"`
	Guardrails []builtin.GuardrailConfig   `mapstructure:"guardrails" yaml:"guardrails,omitempty" validate:"-"`
}

// OracleConfig selects the model used for semantic checks and the default agent.
type OracleConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider" validate:"oneof=ollama"`
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Model    string        `mapstructure:"model" yaml:"model" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`

	// RateLimit is the sustained calls per second; zero disables throttling.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" yaml:"burst" validate:"min=1"`
}

// AgentConfig bounds the investigation agent.
type AgentConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	MaxEvidenceFiles int           `mapstructure:"max_evidence_files" yaml:"max_evidence_files" validate:"min=1,max=100"`
	MaxCharsPerFile  int           `mapstructure:"max_chars_per_file" yaml:"max_chars_per_file" validate:"min=1"`
}

// AuditConfig selects the audit backend.
type AuditConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=jsonl sqlite"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required"`
	Sync    bool   `mapstructure:"sync" yaml:"sync"`
}

// Audit backends.
const (
	AuditBackendJSONL  = "jsonl"
	AuditBackendSQLite = "sqlite"
)

// RoleTable builds the role table with the configured overrides applied
// on top of the built-in roles.
func (c *Config) RoleTable() (*rbac.Table, error) {
	return rbac.NewTable(c.Roles)
}

// Extensions decodes the guardrail extensions section.
func (c *Config) Extensions() (builtin.Extensions, error) {
	return builtin.ParseExtensions(c.Guardrails)
}
