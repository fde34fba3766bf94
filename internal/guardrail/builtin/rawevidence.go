package builtin

import (
	"context"
	"regexp"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// rawEvidenceSegment matches from a "raw evidence:" label up to the next
// blank line or the end of the response. The terminator is kept.
var rawEvidenceSegment = regexp.MustCompile(`(?is)raw evidence:.*?(\n\n|\z)`)

// RawEvidenceTrim hides raw evidence excerpts from roles whose policy does
// not allow viewing them.
type RawEvidenceTrim struct{}

// NewRawEvidenceTrim creates the raw evidence guardrail.
func NewRawEvidenceTrim() *RawEvidenceTrim {
	return &RawEvidenceTrim{}
}

// Name returns the unique name of this guardrail instance.
func (t *RawEvidenceTrim) Name() string {
	return "raw_evidence_trim"
}

// Type returns the guardrail type.
func (t *RawEvidenceTrim) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypeRole
}

// CheckInput allows everything.
func (t *RawEvidenceTrim) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}

// CheckOutput replaces each raw evidence segment with RawEvidenceNotice.
func (t *RawEvidenceTrim) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	if output.Policy.CanViewRawEvidence || !rawEvidenceSegment.MatchString(output.Content) {
		return guardrail.NewAllowResult(), nil
	}

	trimmed := rawEvidenceSegment.ReplaceAllString(output.Content, guardrail.RawEvidenceNotice+"${1}")
	return guardrail.NewRedactResult("Raw evidence restricted", trimmed, guardrail.FlagRawEvidenceRedacted), nil
}
