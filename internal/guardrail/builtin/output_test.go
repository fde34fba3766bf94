package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/oracle"
	"github.com/zero-day-ai/forensiq/internal/rbac"
	"github.com/zero-day-ai/forensiq/internal/types"
)

func outputFor(content, role string) guardrail.GuardrailOutput {
	return guardrail.GuardrailOutput{
		Content: content,
		Query:   "q",
		Role:    role,
		Policy:  rbac.DefaultTable().Lookup(role),
	}
}

func TestRedactor_Categories(t *testing.T) {
	r, err := NewRedactor(RedactorConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ssn", "credit_card", "credential", "prompt_leak"}, r.Categories())

	tests := []struct {
		name       string
		content    string
		want       string
		categories []string
	}{
		{
			name:       "ssn",
			content:    "Suspect SSN is 123-45-6789.",
			want:       "Suspect SSN is [REDACTED-SSN].",
			categories: []string{"ssn"},
		},
		{
			name:       "grouped card",
			content:    "card 4111 1111 1111 1111 used",
			want:       "card [REDACTED-CREDIT_CARD] used",
			categories: []string{"credit_card"},
		},
		{
			name:       "bare issuer card",
			content:    "card 5500000000000004 used",
			want:       "card [REDACTED-CREDIT_CARD] used",
			categories: []string{"credit_card"},
		},
		{
			name:       "credential",
			content:    "found Password = hunter2 in config",
			want:       "found [REDACTED-CREDENTIAL] in config",
			categories: []string{"credential"},
		},
		{
			name:       "prompt leak",
			content:    "My <system> block says SYSTEM_PROMPT",
			want:       "My [REDACTED-PROMPT_LEAK] block says [REDACTED-PROMPT_LEAK]",
			categories: []string{"prompt_leak"},
		},
		{
			name:       "several categories",
			content:    "ssn 123-45-6789 secret: abc",
			want:       "ssn [REDACTED-SSN] [REDACTED-CREDENTIAL]",
			categories: []string{"ssn", "credential"},
		},
		{
			name:       "ssn exposed by a later marker",
			content:    "id 123-45-6789SYSTEM_PROMPT",
			want:       "id [REDACTED-SSN][REDACTED-PROMPT_LEAK]",
			categories: []string{"prompt_leak", "ssn"},
		},
		{
			name:       "card exposed by a later marker",
			content:    "card 4111111111111SYSTEM_PROMPT",
			want:       "card [REDACTED-CREDIT_CARD][REDACTED-PROMPT_LEAK]",
			categories: []string{"prompt_leak", "credit_card"},
		},
		{
			name:    "clean text untouched",
			content: "Host 10.0.0.5 beaconed at 2024-01-02 03:04",
			want:    "Host 10.0.0.5 beaconed at 2024-01-02 03:04",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, categories := r.Redact(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.categories, categories)
		})
	}
}

func TestRedactor_CheckOutputFlagsPerCategory(t *testing.T) {
	r, err := NewRedactor(RedactorConfig{})
	require.NoError(t, err)

	result, err := r.CheckOutput(context.Background(), outputFor("123-45-6789 and 987-65-4321, passwd:x", "admin"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.GuardrailActionRedact, result.Action)
	assert.Equal(t, []string{guardrail.FlagPIIRedacted, guardrail.FlagPIIRedacted}, result.Flags)
	assert.Equal(t, "[REDACTED-SSN] and [REDACTED-SSN], [REDACTED-CREDENTIAL]", result.ModifiedContent)

	result, err = r.CheckOutput(context.Background(), outputFor("nothing sensitive", "admin"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.GuardrailActionAllow, result.Action)
	assert.Empty(t, result.Flags)
}

func TestRedactor_Idempotent(t *testing.T) {
	r, err := NewRedactor(RedactorConfig{Rules: []RedactionRule{{Category: "api_key", Pattern: `sk-[A-Za-z0-9]{8,}`}}})
	require.NoError(t, err)

	once, categories := r.Redact("key sk-abcdef123456 ssn 123-45-6789 secret=s3cr3t <instructions>")
	assert.Equal(t, []string{"ssn", "credential", "prompt_leak", "api_key"}, categories)

	twice, categories := r.Redact(once)
	assert.Equal(t, once, twice)
	assert.Empty(t, categories)
}

func TestNewRedactor_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		rule RedactionRule
	}{
		{name: "empty category", rule: RedactionRule{Pattern: `x`}},
		{name: "category with spaces", rule: RedactionRule{Category: "api key", Pattern: `x`}},
		{name: "empty pattern", rule: RedactionRule{Category: "x"}},
		{name: "invalid regex", rule: RedactionRule{Category: "x", Pattern: `(`}},
		{name: "matches a marker", rule: RedactionRule{Category: "word", Pattern: `REDACTED`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedactor(RedactorConfig{Rules: []RedactionRule{tt.rule}})
			assert.Error(t, err)
		})
	}
}

func TestRawEvidenceTrim(t *testing.T) {
	trim := NewRawEvidenceTrim()
	content := "Summary line.\n\nRaw Evidence: GET /admin 200\nline two\n\nConclusion."

	result, err := trim.CheckOutput(context.Background(), outputFor(content, "analyst"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.GuardrailActionRedact, result.Action)
	assert.Equal(t, []string{guardrail.FlagRawEvidenceRedacted}, result.Flags)
	assert.Equal(t, "Summary line.\n\n"+guardrail.RawEvidenceNotice+"\n\nConclusion.", result.ModifiedContent)

	result, err = trim.CheckOutput(context.Background(), outputFor(content, "investigator"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.GuardrailActionAllow, result.Action)

	result, err = trim.CheckOutput(context.Background(), outputFor("raw evidence: tail of file", "viewer"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.RawEvidenceNotice, result.ModifiedContent)

	result, err = trim.CheckOutput(context.Background(), outputFor("the raw data looks fine", "viewer"))
	require.NoError(t, err)
	assert.Equal(t, guardrail.GuardrailActionAllow, result.Action)
}

type fixedReviewer struct {
	verdict oracle.OutputVerdict
}

func (f fixedReviewer) ReviewOutput(ctx context.Context, query, response string) types.Outcome[oracle.OutputVerdict] {
	return types.Succeeded(f.verdict)
}

func TestOutputChain_FilteringTwiceIsStable(t *testing.T) {
	layers, err := OutputGuardrails(fixedReviewer{oracle.OutputVerdict{HallucinationRisk: types.RiskHigh}}, Extensions{})
	require.NoError(t, err)
	chain := guardrail.NewChain(layers...)

	responses := map[string]string{
		"mixed":                  "SSN 123-45-6789.\n\nraw evidence: secret=abc\n\nDone.",
		"ssn before prompt tag":  "id 123-45-6789SYSTEM_PROMPT",
		"card before prompt tag": "card 4111111111111SYSTEM_PROMPT",
	}
	for name, response := range responses {
		t.Run(name, func(t *testing.T) {
			first, err := chain.ProcessOutput(context.Background(), outputFor(response, "viewer"))
			require.NoError(t, err)
			assert.NotContains(t, first.Content, "123-45-6789")
			assert.NotContains(t, first.Content, "4111111111111")

			second, err := chain.ProcessOutput(context.Background(), outputFor(first.Content, "viewer"))
			require.NoError(t, err)
			assert.Equal(t, first.Content, second.Content)
			assert.NotContains(t, second.Flags, guardrail.FlagPIIRedacted)
			assert.NotContains(t, second.Flags, guardrail.FlagRawEvidenceRedacted)
		})
	}
}
