package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "plain object",
			response: `{"safe": true}`,
			want:     `{"safe": true}`,
		},
		{
			name:     "json code block",
			response: "Here you go:\n```json\n{\"safe\": false}\n```\nThanks",
			want:     `{"safe": false}`,
		},
		{
			name:     "bare code block",
			response: "```\n{\"safe\": true}\n```",
			want:     `{"safe": true}`,
		},
		{
			name:     "skips other languages",
			response: "```python\n{'a': 1}\n```\nfinal: {\"safe\": true}",
			want:     `{"safe": true}`,
		},
		{
			name:     "object in prose with braces in strings",
			response: `Verdict: {"reason": "uses } and { chars", "safe": true} done`,
			want:     `{"reason": "uses } and { chars", "safe": true}`,
		},
		{
			name:     "skips unbalanced prefix",
			response: `note {not json here} then {"safe": true}`,
			want:     `{"safe": true}`,
		},
		{
			name:     "no json",
			response: "I cannot answer that.",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestExtractJSON_RepairsNearJSON(t *testing.T) {
	got, err := ExtractJSON("```json\n{'safe': true, 'risk_level': 'LOW',}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"safe": true, "risk_level": "LOW"}`, got)

	got, err = ExtractJSON(`{"faithful": true, "hallucination_risk": "LOW"`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"faithful": true, "hallucination_risk": "LOW"}`, got)
}
