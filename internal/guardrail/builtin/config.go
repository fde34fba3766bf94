package builtin

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// Extension types accepted in the guardrails configuration section.
const (
	ExtensionBlocklist = "blocklist"
	ExtensionRedaction = "redaction"
)

// GuardrailConfig represents a guardrail extension from YAML
type GuardrailConfig struct {
	Type   string         `mapstructure:"type" yaml:"type" json:"type"`
	Name   string         `mapstructure:"name" yaml:"name,omitempty" json:"name,omitempty"`
	Config map[string]any `mapstructure:"config" yaml:"config" json:"config"`
}

// Extensions collects configured additions to the built-in layers.
// Extensions never add layers: extra blocked patterns join the blocklist
// and extra redaction rules join the redactor, so layer order is fixed.
type Extensions struct {
	Blocklist BlocklistConfig
	Redaction RedactorConfig
}

// ParseExtensions decodes every extension in order.
func ParseExtensions(configs []GuardrailConfig) (Extensions, error) {
	var ext Extensions
	for i, config := range configs {
		if err := ValidateGuardrailConfig(config); err != nil {
			return Extensions{}, guardrail.NewConfigError(fmt.Sprintf("guardrail extension at index %d", i), err)
		}

		switch config.Type {
		case ExtensionBlocklist:
			var bl BlocklistConfig
			if err := decode(config.Config, &bl); err != nil {
				return Extensions{}, guardrail.NewConfigError(fmt.Sprintf("failed to decode blocklist config at index %d", i), err)
			}
			ext.Blocklist.Patterns = append(ext.Blocklist.Patterns, bl.Patterns...)

		case ExtensionRedaction:
			var rule RedactionRule
			if err := decode(config.Config, &rule); err != nil {
				return Extensions{}, guardrail.NewConfigError(fmt.Sprintf("failed to decode redaction config at index %d", i), err)
			}
			ext.Redaction.Rules = append(ext.Redaction.Rules, rule)
		}
	}
	return ext, nil
}

func decode(input map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      result,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(input)
}

// ValidateGuardrailConfig validates a guardrail extension
func ValidateGuardrailConfig(config GuardrailConfig) error {
	if config.Type == "" {
		return fmt.Errorf("guardrail type is required")
	}

	if config.Config == nil {
		return fmt.Errorf("config is required for guardrail type %s", config.Type)
	}

	switch config.Type {
	case ExtensionBlocklist:
		return validateBlocklistConfig(config.Config)
	case ExtensionRedaction:
		return validateRedactionConfig(config.Config)
	default:
		return fmt.Errorf("unsupported guardrail type: %s (supported types: %v)", config.Type, SupportedGuardrailTypes())
	}
}

func validateBlocklistConfig(config map[string]any) error {
	patterns, ok := config["patterns"]
	if !ok {
		return fmt.Errorf("patterns is required for blocklist")
	}

	patternsSlice, ok := patterns.([]any)
	if !ok {
		return fmt.Errorf("patterns must be an array")
	}

	if len(patternsSlice) == 0 {
		return fmt.Errorf("at least one pattern is required for blocklist")
	}

	return nil
}

func validateRedactionConfig(config map[string]any) error {
	for _, field := range []string{"category", "pattern"} {
		v, ok := config[field]
		if !ok {
			return fmt.Errorf("%s is required for redaction", field)
		}
		if s, ok := v.(string); !ok || s == "" {
			return fmt.Errorf("%s must be a non-empty string", field)
		}
	}
	return nil
}

// SupportedGuardrailTypes returns the list of supported extension types
func SupportedGuardrailTypes() []string {
	return []string{ExtensionBlocklist, ExtensionRedaction}
}

// InputGuardrails returns the input layers in order: length, blocklist,
// topic restriction, semantic.
func InputGuardrails(classifier InputClassifier, ext Extensions) ([]guardrail.Guardrail, error) {
	blocklist, err := NewBlocklist(ext.Blocklist)
	if err != nil {
		return nil, guardrail.NewConfigError("invalid blocklist", err)
	}
	return []guardrail.Guardrail{
		NewLengthLimit(),
		blocklist,
		NewTopicRestriction(),
		NewSemanticInput(classifier),
	}, nil
}

// OutputGuardrails returns the output layers in order: redaction,
// semantic review, raw evidence trimming.
func OutputGuardrails(reviewer OutputReviewer, ext Extensions) ([]guardrail.Guardrail, error) {
	redactor, err := NewRedactor(ext.Redaction)
	if err != nil {
		return nil, guardrail.NewConfigError("invalid redaction rules", err)
	}
	return []guardrail.Guardrail{
		redactor,
		NewSemanticOutput(reviewer),
		NewRawEvidenceTrim(),
	}, nil
}
