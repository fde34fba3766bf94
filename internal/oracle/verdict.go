package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zero-day-ai/forensiq/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// InputVerdict is the oracle's judgement of a query.
type InputVerdict struct {
	Safe               bool
	RiskLevel          types.RiskLevel
	Reason             string
	IsForensicsRelated bool
}

// OutputVerdict is the oracle's judgement of an agent response.
type OutputVerdict struct {
	Faithful          bool
	HallucinationRisk types.RiskLevel
	HarmfulContent    bool
	Issues            []string
}

// rawInputVerdict mirrors the JSON the validation prompt asks for. Pointers
// distinguish a missing field from false.
type rawInputVerdict struct {
	Safe               *bool  `json:"safe" validate:"required"`
	RiskLevel          string `json:"risk_level" validate:"required,oneof=LOW MEDIUM HIGH"`
	Reason             string `json:"reason"`
	IsForensicsRelated *bool  `json:"is_forensics_related"`
}

type rawOutputVerdict struct {
	Faithful          *bool    `json:"faithful" validate:"required"`
	HallucinationRisk string   `json:"hallucination_risk" validate:"required,oneof=LOW MEDIUM HIGH"`
	HarmfulContent    *bool    `json:"harmful_content" validate:"required"`
	IssuesFound       []string `json:"issues_found"`
}

// ParseInputVerdict decodes a validation reply. Errors mean the reply does
// not satisfy the verdict schema.
func ParseInputVerdict(reply string) (InputVerdict, error) {
	var raw rawInputVerdict
	if err := decodeVerdict(reply, &raw); err != nil {
		return InputVerdict{}, err
	}
	raw.RiskLevel = normalizeLevel(raw.RiskLevel)
	if err := validate.Struct(raw); err != nil {
		return InputVerdict{}, fmt.Errorf("invalid input verdict: %w", err)
	}

	v := InputVerdict{
		Safe:               *raw.Safe,
		RiskLevel:          types.RiskLevel(raw.RiskLevel),
		Reason:             strings.TrimSpace(raw.Reason),
		IsForensicsRelated: true,
	}
	if raw.IsForensicsRelated != nil {
		v.IsForensicsRelated = *raw.IsForensicsRelated
	}
	return v, nil
}

// ParseOutputVerdict decodes a faithfulness reply.
func ParseOutputVerdict(reply string) (OutputVerdict, error) {
	var raw rawOutputVerdict
	if err := decodeVerdict(reply, &raw); err != nil {
		return OutputVerdict{}, err
	}
	raw.HallucinationRisk = normalizeLevel(raw.HallucinationRisk)
	if err := validate.Struct(raw); err != nil {
		return OutputVerdict{}, fmt.Errorf("invalid output verdict: %w", err)
	}

	issues := make([]string, 0, len(raw.IssuesFound))
	for _, issue := range raw.IssuesFound {
		if issue = strings.TrimSpace(issue); issue != "" {
			issues = append(issues, issue)
		}
	}

	return OutputVerdict{
		Faithful:          *raw.Faithful,
		HallucinationRisk: types.RiskLevel(raw.HallucinationRisk),
		HarmfulContent:    *raw.HarmfulContent,
		Issues:            issues,
	}, nil
}

func decodeVerdict(reply string, dst any) error {
	jsonStr, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), dst); err != nil {
		return fmt.Errorf("failed to decode verdict: %w", err)
	}
	return nil
}

func normalizeLevel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
