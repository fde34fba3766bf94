package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &TextFormatter{}, NewFormatter(FormatText, &bytes.Buffer{}))
	assert.IsType(t, &RecordFormatter{}, NewFormatter(FormatJSON, &bytes.Buffer{}))
	assert.IsType(t, &RecordFormatter{}, NewFormatter(FormatYAML, &bytes.Buffer{}))
	assert.IsType(t, &TextFormatter{}, NewFormatter("unknown", &bytes.Buffer{}))

	assert.True(t, FormatJSON.Structured())
	assert.True(t, FormatYAML.Structured())
	assert.False(t, FormatText.Structured())
}

func TestTextFormatter_Messages(t *testing.T) {
	noColor(t)
	buf := &bytes.Buffer{}
	f := NewTextFormatter(buf)

	require.NoError(t, f.PrintSuccess("query allowed"))
	require.NoError(t, f.PrintError("query blocked"))
	require.NoError(t, f.PrintWarning("off topic"))

	assert.Equal(t, "✓ query allowed\n✗ query blocked\n! off topic\n", buf.String())
}

func TestTextFormatter_PrintTable(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewTextFormatter(buf)

	require.NoError(t, f.PrintTable([]string{"role", "max_query_length"}, [][]string{
		{"admin", "5000"},
		{"viewer", "500"},
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ROLE"))
	assert.Contains(t, lines[0], "MAX_QUERY_LENGTH")
	assert.True(t, strings.HasPrefix(lines[1], "----"))
	assert.Contains(t, lines[3], "viewer")
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewJSONFormatter(buf)

	require.NoError(t, f.PrintTable([]string{"role", "limit"}, [][]string{{"admin", "5000"}, {"viewer"}}))

	var out struct {
		Headers []string            `json:"headers"`
		Data    []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"role", "limit"}, out.Headers)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "5000", out.Data[0]["limit"])
	assert.Equal(t, "", out.Data[1]["limit"])

	buf.Reset()
	require.NoError(t, f.PrintWarning("off topic"))
	assert.JSONEq(t, `{"status":"warning","message":"off topic"}`, buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewYAMLFormatter(buf)

	type record struct {
		RequestID string `json:"request_id"`
		Blocked   bool   `json:"blocked"`
	}
	require.NoError(t, f.PrintData(record{RequestID: "r-1", Blocked: true}))
	assert.Equal(t, "blocked: true\nrequest_id: r-1\n", buf.String())

	buf.Reset()
	require.NoError(t, f.PrintError("query blocked"))
	assert.Equal(t, "message: query blocked\nstatus: error\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("closed pipe")
}

func TestFormatters_ReportWriteErrors(t *testing.T) {
	noColor(t)
	for name, f := range map[string]Formatter{
		"text": NewTextFormatter(failingWriter{}),
		"json": NewJSONFormatter(failingWriter{}),
		"yaml": NewYAMLFormatter(failingWriter{}),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, f.PrintSuccess("ok"))
			assert.Error(t, f.PrintTable([]string{"role"}, [][]string{{"admin"}}))
			assert.Error(t, f.PrintData(map[string]int{"total": 1}))
		})
	}
}
