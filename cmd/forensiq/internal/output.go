package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
	// FormatYAML is structured YAML output
	FormatYAML OutputFormat = "yaml"
)

// Structured reports whether the format encodes records rather than prose.
func (o OutputFormat) Structured() bool {
	return o == FormatJSON || o == FormatYAML
}

// Formatter renders the results of a command. Text output prints status
// lines and aligned tables; structured output encodes one record per call.
type Formatter interface {
	PrintSuccess(message string) error
	PrintError(message string) error
	PrintWarning(message string) error
	PrintTable(headers []string, rows [][]string) error
	// PrintData encodes an arbitrary value. Text output falls back to JSON.
	PrintData(data any) error
}

type status string

const (
	statusSuccess status = "success"
	statusError   status = "error"
	statusWarning status = "warning"
)

type statusStyle struct {
	glyph string
	color *color.Color
}

var statusStyles = map[status]statusStyle{
	statusSuccess: {"✓", color.New(color.FgGreen)},
	statusError:   {"✗", color.New(color.FgRed, color.Bold)},
	statusWarning: {"!", color.New(color.FgYellow)},
}

// TextFormatter prints coloured status lines and tab-aligned tables.
type TextFormatter struct {
	w io.Writer
}

// NewTextFormatter creates a TextFormatter writing to w, or stdout if w is nil.
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{w: orStdout(w)}
}

func (f *TextFormatter) PrintSuccess(message string) error { return f.status(statusSuccess, message) }
func (f *TextFormatter) PrintError(message string) error { return f.status(statusError, message) }
func (f *TextFormatter) PrintWarning(message string) error { return f.status(statusWarning, message) }

func (f *TextFormatter) status(s status, message string) error {
	style := statusStyles[s]
	_, err := style.color.Fprintf(f.w, "%s %s\n", style.glyph, message)
	return err
}

// PrintTable prints upper-cased headers, a dashed rule and the rows.
func (f *TextFormatter) PrintTable(headers []string, rows [][]string) error {
	head := make([]string, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		head[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}

	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	for _, cells := range append([][]string{head, rule}, rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (f *TextFormatter) PrintData(data any) error {
	return encodeJSON(f.w, data)
}

// RecordFormatter encodes every call as a standalone JSON or YAML document.
type RecordFormatter struct {
	w      io.Writer
	encode func(io.Writer, any) error
}

// NewJSONFormatter creates a RecordFormatter emitting indented JSON.
func NewJSONFormatter(w io.Writer) *RecordFormatter {
	return &RecordFormatter{w: orStdout(w), encode: encodeJSON}
}

// NewYAMLFormatter creates a RecordFormatter emitting YAML. Field names
// follow the json tags so both encodings share one schema.
func NewYAMLFormatter(w io.Writer) *RecordFormatter {
	return &RecordFormatter{w: orStdout(w), encode: encodeYAML}
}

func (f *RecordFormatter) PrintSuccess(message string) error { return f.status(statusSuccess, message) }
func (f *RecordFormatter) PrintError(message string) error { return f.status(statusError, message) }
func (f *RecordFormatter) PrintWarning(message string) error { return f.status(statusWarning, message) }

func (f *RecordFormatter) status(s status, message string) error {
	return f.PrintData(map[string]string{"status": string(s), "message": message})
}

// PrintTable encodes {headers, data} where each data entry maps header to
// cell. Short rows are padded with empty cells.
func (f *RecordFormatter) PrintTable(headers []string, rows [][]string) error {
	data := make([]map[string]string, len(rows))
	for i, row := range rows {
		data[i] = make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(row) {
				data[i][h] = row[j]
			} else {
				data[i][h] = ""
			}
		}
	}
	return f.PrintData(map[string]any{"headers": headers, "data": data})
}

func (f *RecordFormatter) PrintData(data any) error {
	return f.encode(f.w, data)
}

// NewFormatter creates a Formatter for format. Unknown formats print text.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(w)
	case FormatYAML:
		return NewYAMLFormatter(w)
	default:
		return NewTextFormatter(w)
	}
}

func encodeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func encodeYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func orStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
