package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// Built-in redaction categories, applied in this order.
const (
	CategorySSN        = "ssn"
	CategoryCreditCard = "credit_card"
	CategoryCredential = "credential"
	CategoryPromptLeak = "prompt_leak"
)

// RedactionRule names a pattern whose matches are replaced by a
// [REDACTED-<CATEGORY>] marker.
type RedactionRule struct {
	Category string `mapstructure:"category"`
	Pattern  string `mapstructure:"pattern"`
}

// DefaultRedactionRules are the sensitive formats never delivered to a user.
var DefaultRedactionRules = []RedactionRule{
	{Category: CategorySSN, Pattern: `\b\d{3}-\d{2}-\d{4}\b`},
	{Category: CategoryCreditCard, Pattern: `\b\d{4}[\s-]\d{4}[\s-]\d{4}[\s-]\d{4}\b|\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13}|6(?:011|5[0-9]{2})[0-9]{12})\b`},
	{Category: CategoryCredential, Pattern: `(?i)(password|passwd|secret)\s*[:=]\s*\S+`},
	{Category: CategoryPromptLeak, Pattern: `(?i)SYSTEM_PROMPT|<system>|<instructions>`},
}

var categoryName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// RedactorConfig configures the redactor.
type RedactorConfig struct {
	// Rules are applied after DefaultRedactionRules, in order.
	Rules []RedactionRule
}

type redactionPattern struct {
	category string
	marker   string
	regex    *regexp.Regexp
}

// Redactor replaces sensitive spans of a response with category markers.
// It never blocks, and a redacted response passes through unchanged a
// second time: no pattern may match any marker.
type Redactor struct {
	patterns []redactionPattern
}

// Marker returns the replacement text for category.
func Marker(category string) string {
	return "[REDACTED-" + strings.ToUpper(category) + "]"
}

// NewRedactor compiles the default rules followed by config.Rules.
// Returns an error if a rule is invalid or would match a marker.
func NewRedactor(config RedactorConfig) (*Redactor, error) {
	rules := append(append([]RedactionRule(nil), DefaultRedactionRules...), config.Rules...)

	r := &Redactor{}
	for _, rule := range rules {
		if !categoryName.MatchString(rule.Category) {
			return nil, fmt.Errorf("invalid redaction category '%s': use letters, digits and underscores", rule.Category)
		}
		if rule.Pattern == "" {
			return nil, fmt.Errorf("redaction category '%s' has no pattern", rule.Category)
		}
		compiled, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern for '%s': %w", rule.Category, err)
		}
		r.patterns = append(r.patterns, redactionPattern{
			category: strings.ToLower(rule.Category),
			marker:   Marker(rule.Category),
			regex:    compiled,
		})
	}

	for _, p := range r.patterns {
		for _, other := range r.patterns {
			if p.regex.MatchString(other.marker) {
				return nil, fmt.Errorf("redaction pattern for '%s' matches marker %s", p.category, other.marker)
			}
		}
	}

	return r, nil
}

// Name returns the unique name of this guardrail instance.
func (r *Redactor) Name() string {
	return "redactor"
}

// Type returns the guardrail type.
func (r *Redactor) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypePII
}

// CheckInput allows everything; queries are screened by the blocklist.
func (r *Redactor) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}

// CheckOutput redacts every match and flags PII_REDACTED once per category hit.
func (r *Redactor) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	redacted, categories := r.Redact(output.Content)
	if len(categories) == 0 {
		return guardrail.NewAllowResult(), nil
	}

	flags := make([]string, len(categories))
	for i := range categories {
		flags[i] = guardrail.FlagPIIRedacted
	}
	return guardrail.NewRedactResult(
		"Sensitive content redacted: "+strings.Join(categories, ", "),
		redacted,
		flags...,
	), nil
}

// Redact applies every rule to content and returns the rewritten text with
// the categories that matched, in first-match order. A marker can open a word
// boundary an earlier rule needs, so passes repeat until the text is stable.
func (r *Redactor) Redact(content string) (string, []string) {
	var categories []string
	seen := make(map[string]bool, len(r.patterns))
	for pass := 0; pass <= len(r.patterns); pass++ {
		changed := false
		for _, p := range r.patterns {
			if !p.regex.MatchString(content) {
				continue
			}
			content = p.regex.ReplaceAllLiteralString(content, p.marker)
			changed = true
			if !seen[p.category] {
				seen[p.category] = true
				categories = append(categories, p.category)
			}
		}
		if !changed {
			break
		}
	}
	return content, categories
}

// Categories returns the configured category names in application order.
func (r *Redactor) Categories() []string {
	out := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.category
	}
	return out
}
