package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/types"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func records(n int) []evidence.Record {
	out := make([]evidence.Record, n)
	for i := range out {
		out[i] = evidence.Record{
			Filename: fmt.Sprintf("file%d.log", i),
			Text:     fmt.Sprintf("contents of file %d", i),
			IOCs:     map[string][]string{"ips": {fmt.Sprintf("10.0.0.%d", i)}},
		}
	}
	return out
}

func TestLLMAgent_Prompt(t *testing.T) {
	a := NewLLMAgent(nil, LLMConfig{})
	prompt, sources := a.Prompt("who logged in?", "case-9", records(7))

	require.Len(t, sources, DefaultMaxEvidenceFiles)
	for i, s := range sources {
		assert.Equal(t, fmt.Sprintf("file%d.log", i), s.Filename)
		assert.Equal(t, SourceFallback, s.Type)
	}

	assert.True(t, strings.HasPrefix(prompt, "You are an expert digital forensic investigator"))
	assert.Contains(t, prompt, "FORENSIC INVESTIGATION QUERY: who logged in?")
	assert.Contains(t, prompt, "CASE ID: case-9")
	assert.Contains(t, prompt, "FILES IN EVIDENCE: file0.log, file1.log, file2.log, file3.log, file4.log, file5.log, file6.log")
	assert.Contains(t, prompt, "[File: file4.log]\ncontents of file 4\nIOCs: {\"ips\":[\"10.0.0.4\"]}")
	assert.NotContains(t, prompt, "[File: file5.log]")
}

func TestLLMAgent_PromptTruncatesText(t *testing.T) {
	a := NewLLMAgent(nil, LLMConfig{MaxEvidenceFiles: 1, MaxCharsPerFile: 10})
	prompt, _ := a.Prompt("q", "c", []evidence.Record{{Filename: "big.txt", Text: strings.Repeat("ü", 50)}})

	assert.Contains(t, prompt, "[File: big.txt]\n"+strings.Repeat("ü", 10)+"\nIOCs: {}")
	assert.NotContains(t, prompt, strings.Repeat("ü", 11))
}

func TestLLMAgent_PromptWithoutEvidence(t *testing.T) {
	a := NewLLMAgent(nil, LLMConfig{})
	prompt, sources := a.Prompt("q", "c", nil)

	assert.Empty(t, sources)
	assert.NotNil(t, sources)
	assert.Contains(t, prompt, "FILES IN EVIDENCE: No files uploaded")
	assert.Contains(t, prompt, noEvidenceContext)
}

func TestLLMAgent_Run(t *testing.T) {
	o := new(mockOracle)
	o.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "FORENSIC INVESTIGATION QUERY: list IOCs")
	})).Return("10.0.0.0 contacted evil.example", nil)

	answer, err := NewLLMAgent(o, LLMConfig{}).Run(context.Background(), "list IOCs", "c", records(2))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0 contacted evil.example", answer.Text)
	assert.Len(t, answer.Sources, 2)
	assert.Equal(t, 2, answer.EvidenceFiles)
	assert.False(t, answer.RAGUsed)
	o.AssertExpectations(t)
}

func TestLLMAgent_RunError(t *testing.T) {
	o := new(mockOracle)
	o.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("model not found"))

	_, err := NewLLMAgent(o, LLMConfig{}).Run(context.Background(), "q", "c", nil)
	require.Error(t, err)
	assert.Equal(t, types.AGENT_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "model not found")

	_, err = NewLLMAgent(nil, LLMConfig{}).Run(context.Background(), "q", "c", nil)
	assert.Equal(t, types.AGENT_FAILED, types.CodeOf(err))
}

func TestFunc(t *testing.T) {
	var a Agent = Func(func(ctx context.Context, query, caseID string, records []evidence.Record) (Answer, error) {
		return Answer{Text: query + "@" + caseID}, nil
	})
	answer, err := a.Run(context.Background(), "q", "c", nil)
	require.NoError(t, err)
	assert.Equal(t, "q@c", answer.Text)
}
