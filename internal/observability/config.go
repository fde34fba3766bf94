package observability

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName  string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	TLSCertFile  string  `yaml:"tls_cert_file" mapstructure:"tls_cert_file"` // CA or server certificate for the collector
	TLSKeyFile   string  `yaml:"tls_key_file" mapstructure:"tls_key_file"`
	InsecureMode bool    `yaml:"insecure_mode" mapstructure:"insecure_mode"` // plaintext gRPC, opt-in only
}

// Validate validates the TracingConfig fields.
// Returns an error if Provider is not otlp or noop, or if SampleRate is
// outside [0, 1].
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	validProviders := []string{"otlp", "noop"}
	provider := strings.ToLower(c.Provider)
	if !slices.Contains(validProviders, provider) {
		return fmt.Errorf("invalid tracing provider: %s (must be one of: %s)", c.Provider, strings.Join(validProviders, ", "))
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}

	if provider != "noop" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}

	return nil
}

// MetricsConfig contains metrics export configuration.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"` // OTLP collector host:port
}

// Validate validates the MetricsConfig fields.
// Returns an error if Provider is not prometheus or otlp, or if the otlp
// provider has no endpoint.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	validProviders := []string{"prometheus", "otlp"}
	provider := strings.ToLower(c.Provider)
	if !slices.Contains(validProviders, provider) {
		return fmt.Errorf("invalid metrics provider: %s (must be one of: %s)", c.Provider, strings.Join(validProviders, ", "))
	}

	if provider == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for the otlp metrics provider")
	}

	return nil
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// Validate validates the LoggingConfig fields.
// Level must be debug, info, warn or error; Format must be json or text;
// Output must be stdout, stderr or an absolute file path.
func (c *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(validLevels, ", "))
	}

	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(validFormats, ", "))
	}

	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !filepath.IsAbs(c.Output) {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}

	return nil
}
