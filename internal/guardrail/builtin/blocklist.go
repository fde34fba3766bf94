package builtin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// DefaultBlockedPatterns are the queries never passed to the agent:
// injection and jailbreak phrasing, system prompt extraction, requests
// for offensive tooling and PII fishing.
var DefaultBlockedPatterns = []string{
	// Prompt injection
	`ignore\s+(all\s+)?(previous|all|above)\s+instructions`,
	`you\s+are\s+now\s+a`,
	`pretend\s+(you\s+are|to\s+be)`,
	`jailbreak`,
	`dan\s+mode`,
	`developer\s+mode`,
	`override\s+(safety|guardrail|filter)`,
	// System prompt extraction
	`reveal\s+your\s+(system\s+)?prompt`,
	`show\s+me\s+your\s+instructions`,
	`what\s+are\s+your\s+rules`,
	// Out of scope
	`(generate|write|create)\s+(malware|virus|exploit|payload)`,
	`how\s+to\s+(hack|crack|bypass|exploit)`,
	// PII fishing
	`social\s+security\s+number`,
	`credit\s+card\s+number`,
}

// maxReportedPatternRunes bounds the pattern text quoted in a block reason.
const maxReportedPatternRunes = 50

// BlocklistConfig configures the blocklist.
type BlocklistConfig struct {
	// Patterns are checked after DefaultBlockedPatterns, in order.
	// Matching is always case-insensitive.
	Patterns []string `mapstructure:"patterns"`
}

type blockedPattern struct {
	source string
	regex  *regexp.Regexp
}

// Blocklist blocks queries matching any known-bad pattern. The first
// matching pattern is reported.
type Blocklist struct {
	patterns []blockedPattern
}

// NewBlocklist compiles the default patterns followed by config.Patterns.
// Returns an error if an extra pattern is not a valid regular expression.
func NewBlocklist(config BlocklistConfig) (*Blocklist, error) {
	b := &Blocklist{}
	for _, p := range DefaultBlockedPatterns {
		b.patterns = append(b.patterns, blockedPattern{source: p, regex: regexp.MustCompile("(?i)" + p)})
	}
	for _, p := range config.Patterns {
		compiled, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked pattern '%s': %w", p, err)
		}
		b.patterns = append(b.patterns, blockedPattern{source: p, regex: compiled})
	}
	return b, nil
}

// Name returns the unique name of this guardrail instance.
func (b *Blocklist) Name() string {
	return "blocklist"
}

// Type returns the guardrail type.
func (b *Blocklist) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypePattern
}

// CheckInput blocks the query on the first matching pattern.
func (b *Blocklist) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	for _, p := range b.patterns {
		if p.regex.MatchString(input.Query) {
			return guardrail.NewBlockResult(
				"Query matches blocked pattern: "+truncateRunes(p.source, maxReportedPatternRunes),
				guardrail.FlagPatternMatch,
			), nil
		}
	}
	return guardrail.NewAllowResult(), nil
}

// CheckOutput allows everything; output patterns are redacted, not blocked.
func (b *Blocklist) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}

// Patterns returns the pattern sources in match order.
func (b *Blocklist) Patterns() []string {
	out := make([]string, len(b.patterns))
	for i, p := range b.patterns {
		out[i] = p.source
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
