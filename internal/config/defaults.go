package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zero-day-ai/forensiq/internal/agent"
	"github.com/zero-day-ai/forensiq/internal/observability"
	"github.com/zero-day-ai/forensiq/internal/oracle"
	"github.com/zero-day-ai/forensiq/internal/pipeline"
	"github.com/zero-day-ai/forensiq/internal/rbac"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "otlp",
			ServiceName: "forensiq",
			SampleRate:  1.0,
		},
		Metrics: observability.MetricsConfig{
			Enabled:  false,
			Provider: "prometheus",
		},
		Oracle: OracleConfig{
			Provider:  "ollama",
			BaseURL:   oracle.DefaultOllamaURL,
			Model:     oracle.DefaultOllamaModel,
			Timeout:   oracle.DefaultTimeout,
			RateLimit: 0,
			Burst:     1,
		},
		Agent: AgentConfig{
			Timeout:          pipeline.DefaultAgentTimeout,
			MaxEvidenceFiles: agent.DefaultMaxEvidenceFiles,
			MaxCharsPerFile:  agent.DefaultMaxCharsPerFile,
		},
		Audit: AuditConfig{
			Backend: AuditBackendJSONL,
			Path:    filepath.Join(homeDir, "forensic_audit.jsonl"),
		},
	}
}

// Template returns the default configuration with the built-in role table
// spelled out, as written by `forensiq config init`.
func Template() *Config {
	cfg := DefaultConfig()
	cfg.Roles = make(map[string]rbac.Policy)
	for role, p := range rbac.DefaultPolicies() {
		cfg.Roles[string(role)] = p
	}
	return cfg
}

// DefaultHomeDir returns the default forensiq home directory.
// It uses ~/.forensiq or falls back to a temporary directory if user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".forensiq")
	}
	return filepath.Join(userHome, ".forensiq")
}

// DefaultConfigPath returns the default config file path for a given home directory
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
