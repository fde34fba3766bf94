package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/oracle"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// Defaults for the direct-context agent.
const (
	DefaultMaxEvidenceFiles = 5
	DefaultMaxCharsPerFile  = 2000
)

const systemPrompt = `You are an expert digital forensic investigator AI with 20 years of experience.
You analyze digital evidence including logs, network captures, emails, malware reports, and location data.

Your responsibilities:
- Identify suspicious activities, threats, and anomalies
- Correlate evidence across multiple files
- Identify Indicators of Compromise (IOCs): IPs, domains, hashes, emails
- Establish timelines of events
- Identify suspects and their actions
- Always cite which specific file your findings come from
- Express confidence levels for your findings
- Flag anything that requires human expert review

Rules:
- Only draw conclusions supported by the evidence provided
- Never speculate beyond what the evidence shows
- Always mention the source file for each finding
- If evidence is insufficient, say so clearly`

const noEvidenceContext = "No case-specific evidence has been uploaded yet. Answer based on general digital forensics knowledge and best practices."

// LLMConfig bounds how much evidence is placed in the prompt.
type LLMConfig struct {
	MaxEvidenceFiles int
	MaxCharsPerFile  int
}

// LLMAgent answers queries by placing evidence text directly in the prompt
// of a single oracle call. It does no retrieval.
type LLMAgent struct {
	oracle oracle.Oracle
	config LLMConfig
	logger *slog.Logger
}

// LLMOption configures an LLMAgent.
type LLMOption func(*LLMAgent)

// WithLogger sets the agent logger.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(a *LLMAgent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewLLMAgent creates an agent over o. Non-positive limits use the defaults.
func NewLLMAgent(o oracle.Oracle, cfg LLMConfig, opts ...LLMOption) *LLMAgent {
	if cfg.MaxEvidenceFiles <= 0 {
		cfg.MaxEvidenceFiles = DefaultMaxEvidenceFiles
	}
	if cfg.MaxCharsPerFile <= 0 {
		cfg.MaxCharsPerFile = DefaultMaxCharsPerFile
	}
	a := &LLMAgent{oracle: o, config: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run builds the investigation prompt and asks the oracle.
func (a *LLMAgent) Run(ctx context.Context, query, caseID string, records []evidence.Record) (Answer, error) {
	if a.oracle == nil {
		return Answer{}, types.NewError(types.AGENT_FAILED, "no oracle configured")
	}

	prompt, sources := a.Prompt(query, caseID, records)
	a.logger.DebugContext(ctx, "running investigation",
		"case_id", caseID,
		"evidence_files", len(records),
		"context_files", len(sources),
	)

	text, err := a.oracle.Complete(ctx, prompt)
	if err != nil {
		return Answer{}, types.WrapError(types.AGENT_FAILED, "LLM error", err)
	}

	return Answer{
		Text:          text,
		Sources:       sources,
		EvidenceFiles: len(records),
	}, nil
}

// Prompt returns the full prompt for query and the sources placed in it.
func (a *LLMAgent) Prompt(query, caseID string, records []evidence.Record) (string, []Source) {
	sources := []Source{}
	var blocks []string
	for i, r := range records {
		if i >= a.config.MaxEvidenceFiles {
			break
		}
		name := filename(r)
		sources = append(sources, Source{Filename: name, Content: "Full file context used", Type: SourceFallback})
		blocks = append(blocks, fmt.Sprintf("[File: %s]\n%s\nIOCs: %s", name, truncateRunes(r.Text, a.config.MaxCharsPerFile), r.IOCsJSON()))
	}

	evidenceContext := strings.Join(blocks, "\n\n---\n\n")
	if evidenceContext == "" {
		evidenceContext = noEvidenceContext
	}

	fileList := "No files uploaded"
	if len(records) > 0 {
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = filename(r)
		}
		fileList = strings.Join(names, ", ")
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "FORENSIC INVESTIGATION QUERY: %s\n\n", query)
	fmt.Fprintf(&b, "CASE ID: %s\n", caseID)
	fmt.Fprintf(&b, "FILES IN EVIDENCE: %s\n\n", fileList)
	fmt.Fprintf(&b, "RELEVANT EVIDENCE:\n%s\n\n", evidenceContext)
	b.WriteString("Provide a detailed, structured forensic analysis. Cite source files for every finding.")
	return b.String(), sources
}

func filename(r evidence.Record) string {
	if r.Filename == "" {
		return "unknown"
	}
	return r.Filename
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
