package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/types"
)

func TestParseExtensions(t *testing.T) {
	ext, err := ParseExtensions([]GuardrailConfig{
		{Type: "blocklist", Config: map[string]any{"patterns": []any{`wipe\s+disk`}}},
		{Type: "redaction", Config: map[string]any{"category": "api_key", "pattern": `sk-[A-Za-z0-9]{16}`}},
		{Type: "blocklist", Name: "more", Config: map[string]any{"patterns": []any{`format\s+c:`}}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`wipe\s+disk`, `format\s+c:`}, ext.Blocklist.Patterns)
	require.Len(t, ext.Redaction.Rules, 1)
	assert.Equal(t, RedactionRule{Category: "api_key", Pattern: `sk-[A-Za-z0-9]{16}`}, ext.Redaction.Rules[0])
}

func TestParseExtensions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config GuardrailConfig
	}{
		{name: "missing type", config: GuardrailConfig{Config: map[string]any{}}},
		{name: "unknown type", config: GuardrailConfig{Type: "rate", Config: map[string]any{}}},
		{name: "missing config", config: GuardrailConfig{Type: "blocklist"}},
		{name: "missing patterns", config: GuardrailConfig{Type: "blocklist", Config: map[string]any{}}},
		{name: "patterns not a list", config: GuardrailConfig{Type: "blocklist", Config: map[string]any{"patterns": "x"}}},
		{name: "empty patterns", config: GuardrailConfig{Type: "blocklist", Config: map[string]any{"patterns": []any{}}}},
		{name: "missing category", config: GuardrailConfig{Type: "redaction", Config: map[string]any{"pattern": "x"}}},
		{name: "unknown field", config: GuardrailConfig{Type: "redaction", Config: map[string]any{"category": "c", "pattern": "x", "action": "block"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtensions([]GuardrailConfig{tt.config})
			require.Error(t, err)
			assert.Equal(t, guardrail.ErrGuardrailConfigInvalid, types.CodeOf(err))
		})
	}
}

func TestInputGuardrails_Order(t *testing.T) {
	layers, err := InputGuardrails(nil, Extensions{})
	require.NoError(t, err)

	names := make([]string, len(layers))
	for i, g := range layers {
		names[i] = g.Name()
	}
	assert.Equal(t, []string{"length_limit", "blocklist", "topic_restriction", "semantic_input"}, names)
}

func TestOutputGuardrails_Order(t *testing.T) {
	layers, err := OutputGuardrails(nil, Extensions{})
	require.NoError(t, err)

	names := make([]string, len(layers))
	for i, g := range layers {
		names[i] = g.Name()
	}
	assert.Equal(t, []string{"redactor", "semantic_output", "raw_evidence_trim"}, names)
}

func TestGuardrails_InvalidExtensions(t *testing.T) {
	_, err := InputGuardrails(nil, Extensions{Blocklist: BlocklistConfig{Patterns: []string{"("}}})
	assert.Equal(t, guardrail.ErrGuardrailConfigInvalid, types.CodeOf(err))

	_, err = OutputGuardrails(nil, Extensions{Redaction: RedactorConfig{Rules: []RedactionRule{{Category: "x", Pattern: "("}}}})
	assert.Equal(t, guardrail.ErrGuardrailConfigInvalid, types.CodeOf(err))
}
