package builtin

import (
	"context"
	"strings"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
	"github.com/zero-day-ai/forensiq/internal/oracle"
	"github.com/zero-day-ai/forensiq/internal/types"
)

// InputClassifier judges a query. *oracle.Classifier implements it.
type InputClassifier interface {
	ClassifyInput(ctx context.Context, query string) types.Outcome[oracle.InputVerdict]
}

// OutputReviewer judges a response against the query that produced it.
// *oracle.Classifier implements it.
type OutputReviewer interface {
	ReviewOutput(ctx context.Context, query, response string) types.Outcome[oracle.OutputVerdict]
}

const defaultUnsafeReason = "Unsafe content detected"

// SemanticInput asks the oracle whether a query is safe and on topic.
// It fails open: when no verdict can be obtained the query is allowed
// and flagged VALIDATOR_ERROR.
type SemanticInput struct {
	classifier InputClassifier
}

// NewSemanticInput creates the semantic input guardrail.
func NewSemanticInput(classifier InputClassifier) *SemanticInput {
	return &SemanticInput{classifier: classifier}
}

// Name returns the unique name of this guardrail instance.
func (s *SemanticInput) Name() string {
	return "semantic_input"
}

// Type returns the guardrail type.
func (s *SemanticInput) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypeSemantic
}

// CheckInput blocks unsafe queries and warns on off-topic ones.
func (s *SemanticInput) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	if s.classifier == nil {
		return guardrail.NewAllowResult().WithFlags(guardrail.FlagValidatorError), nil
	}

	verdict, ok := s.classifier.ClassifyInput(ctx, input.Query).Value()
	if !ok {
		// The classifier has already logged and counted the failure.
		return guardrail.NewAllowResult().WithFlags(guardrail.FlagValidatorError), nil
	}

	if !verdict.Safe {
		reason := verdict.Reason
		if strings.TrimSpace(reason) == "" {
			reason = defaultUnsafeReason
		}
		result := guardrail.NewBlockResult("LLM validator: "+reason, guardrail.RiskFlag(verdict.RiskLevel))
		result.RiskLevel = verdict.RiskLevel
		return result, nil
	}

	if !verdict.IsForensicsRelated {
		result := guardrail.NewWarnResult(guardrail.OffTopicWarning, guardrail.FlagOffTopic)
		result.Warning = guardrail.OffTopicWarning
		result.RiskLevel = verdict.RiskLevel
		return result, nil
	}

	result := guardrail.NewAllowResult()
	result.RiskLevel = verdict.RiskLevel
	return result, nil
}

// CheckOutput allows everything; see SemanticOutput.
func (s *SemanticInput) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}

// SemanticOutput asks the oracle whether a response is faithful and free of
// harm. Harmful responses are blocked; responses at HIGH hallucination risk
// are delivered with HallucinationWarning appended. It fails open with the
// FILTER_ERROR flag.
type SemanticOutput struct {
	reviewer OutputReviewer
}

// NewSemanticOutput creates the semantic output guardrail.
func NewSemanticOutput(reviewer OutputReviewer) *SemanticOutput {
	return &SemanticOutput{reviewer: reviewer}
}

// Name returns the unique name of this guardrail instance.
func (s *SemanticOutput) Name() string {
	return "semantic_output"
}

// Type returns the guardrail type.
func (s *SemanticOutput) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypeSemantic
}

// CheckInput allows everything; see SemanticInput.
func (s *SemanticOutput) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}

// CheckOutput reviews the response.
func (s *SemanticOutput) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	if s.reviewer == nil {
		return guardrail.NewAllowResult().WithFlags(guardrail.FlagFilterError), nil
	}

	verdict, ok := s.reviewer.ReviewOutput(ctx, output.Query, output.Content).Value()
	if !ok {
		return guardrail.NewAllowResult().WithFlags(guardrail.FlagFilterError), nil
	}

	if verdict.HarmfulContent {
		result := guardrail.NewBlockResult(guardrail.HarmfulContentReason)
		result.RiskLevel = verdict.HallucinationRisk
		result.Issues = verdict.Issues
		return result, nil
	}

	result := guardrail.NewAllowResult()
	if verdict.HallucinationRisk == types.RiskHigh {
		result = guardrail.NewWarnResult("High hallucination risk", guardrail.FlagHighHallucinationRisk)
		if !strings.Contains(output.Content, guardrail.HallucinationWarning) {
			result.ModifiedContent = output.Content + guardrail.HallucinationWarning
		}
	}
	result.RiskLevel = verdict.HallucinationRisk
	result.Issues = verdict.Issues
	return result, nil
}
