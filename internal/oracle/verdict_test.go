package oracle

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/forensiq/internal/types"
)

func TestParseInputVerdict(t *testing.T) {
	v, err := ParseInputVerdict(`{"safe": false, "risk_level": "high", "reason": " injection ", "is_forensics_related": false}`)
	require.NoError(t, err)
	assert.False(t, v.Safe)
	assert.Equal(t, types.RiskHigh, v.RiskLevel)
	assert.Equal(t, "injection", v.Reason)
	assert.False(t, v.IsForensicsRelated)
}

func TestParseInputVerdict_DefaultsForensicsRelated(t *testing.T) {
	v, err := ParseInputVerdict("```json\n{\"safe\": true, \"risk_level\": \"LOW\"}\n```")
	require.NoError(t, err)
	assert.True(t, v.Safe)
	assert.True(t, v.IsForensicsRelated)
}

func TestParseInputVerdict_Malformed(t *testing.T) {
	replies := map[string]string{
		"missing safe":     `{"risk_level": "LOW"}`,
		"missing risk":     `{"safe": true}`,
		"unknown risk":     `{"safe": true, "risk_level": "EXTREME"}`,
		"safe is string":   `{"safe": "yes", "risk_level": "LOW"}`,
		"prose only":       `The query looks fine to me.`,
		"empty":            ``,
		"array not object": `[true, "LOW"]`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInputVerdict(reply)
			assert.Error(t, err)
		})
	}
}

func TestParseOutputVerdict(t *testing.T) {
	v, err := ParseOutputVerdict(`{"faithful": false, "hallucination_risk": "High", "harmful_content": false, "issues_found": ["invented IP", " "]}`)
	require.NoError(t, err)
	assert.False(t, v.Faithful)
	assert.Equal(t, types.RiskHigh, v.HallucinationRisk)
	assert.False(t, v.HarmfulContent)
	assert.Equal(t, []string{"invented IP"}, v.Issues)

	v, err = ParseOutputVerdict(`{"faithful": true, "hallucination_risk": "LOW", "harmful_content": true}`)
	require.NoError(t, err)
	assert.True(t, v.HarmfulContent)
	assert.Empty(t, v.Issues)
}

func TestParseOutputVerdict_Malformed(t *testing.T) {
	_, err := ParseOutputVerdict(`{"faithful": true, "hallucination_risk": "LOW"}`)
	assert.Error(t, err, "harmful_content is required")

	_, err = ParseOutputVerdict(`{"faithful": true, "harmful_content": false}`)
	assert.Error(t, err, "hallucination_risk is required")
}

func TestPrompts(t *testing.T) {
	p := InputValidationPrompt("list USB devices")
	assert.Contains(t, p, "Query to validate: list USB devices")
	assert.Contains(t, p, `"is_forensics_related"`)

	long := strings.Repeat("ü", MaxReviewedResponseRunes+100)
	p = OutputReviewPrompt("q", long)
	assert.Contains(t, p, "Query: q")
	idx := strings.Index(p, "Response to validate: ")
	require.GreaterOrEqual(t, idx, 0)
	reviewed := p[idx+len("Response to validate: "):]
	assert.Equal(t, MaxReviewedResponseRunes, utf8.RuneCountInString(reviewed))
}
