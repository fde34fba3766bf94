package guardrail

import "github.com/zero-day-ai/forensiq/internal/types"

// Flags recorded on validation and filter results.
const (
	FlagPatternMatch          = "PATTERN_MATCH"
	FlagRoleRestriction       = "ROLE_RESTRICTION"
	FlagOffTopic              = "OFF_TOPIC"
	FlagValidatorError        = "VALIDATOR_ERROR"
	FlagGuardrailError        = "GUARDRAIL_ERROR"
	FlagPIIRedacted           = "PII_REDACTED"
	FlagHighHallucinationRisk = "HIGH_HALLUCINATION_RISK"
	FlagFilterError           = "FILTER_ERROR"
	FlagRawEvidenceRedacted   = "RAW_EVIDENCE_REDACTED"
)

// RiskFlag returns the LLM_RISK_<level> flag for an unsafe semantic verdict.
// An unknown level is reported as HIGH.
func RiskFlag(level types.RiskLevel) string {
	if !level.IsValid() {
		level = types.RiskHigh
	}
	return "LLM_RISK_" + string(level)
}

// Fixed texts shown to the user.
const (
	// RefusalMessage replaces a response the output filter blocks.
	RefusalMessage = "I cannot provide this response as it may contain harmful content. Please rephrase your query."

	// HallucinationWarning is appended to responses judged at HIGH hallucination risk.
	HallucinationWarning = "\n\n⚠️ *Warning: This response may contain unverified claims. Always verify against source evidence.*"

	// OffTopicWarning accompanies the OFF_TOPIC flag.
	OffTopicWarning = "Query may be outside forensics domain"

	// HarmfulContentReason is the block reason for harmful output.
	HarmfulContentReason = "Output contains potentially harmful content"

	// RawEvidenceNotice replaces raw evidence a role may not see.
	RawEvidenceNotice = "[Raw evidence access restricted for your role]"
)
