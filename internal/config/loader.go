package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. FORENSIQ_ORACLE_MODEL.
const EnvPrefix = "FORENSIQ"

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads configuration from the specified file path.
// Keys missing from the file keep their defaults. Returns an error if the
// file doesn't exist or cannot be parsed.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.WrapError(types.CONFIG_NOT_FOUND, fmt.Sprintf("config file %s not found", path), err)
		}
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file", err)
	}

	return l.finish(v)
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration with
// environment overrides applied.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		v, err := newViper()
		if err != nil {
			return nil, err
		}
		return l.finish(v)
	}

	return l.Load(path)
}

// newViper returns a viper instance seeded with the defaults so that every
// key is known to AutomaticEnv.
func newViper() (*viper.Viper, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, DefaultConfig()); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to encode defaults", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(&buf); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to load defaults", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func (l *viperConfigLoader) finish(v *viper.Viper) (*Config, error) {
	settings, _ := interpolateEnvVars(v.AllSettings()).(map[string]any)

	cfg := DefaultConfig()
	if err := decode(settings, cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}
	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	if strings.HasPrefix(cfg.Logging.Output, "~") {
		cfg.Logging.Output = expandHome(cfg.Logging.Output)
	}

	if l.validator != nil {
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func decode(input map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(input)
}

// WriteYAML encodes cfg in the format accepted by Load.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// interpolateEnvVars recursively interpolates environment variables in the config map.
// Supports ${VAR_NAME} syntax.
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}
