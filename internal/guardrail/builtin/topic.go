package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// TopicRestriction blocks queries that mention a topic the role may not
// ask about. Topics match as case-insensitive substrings, so "delete"
// also matches "undeleted".
type TopicRestriction struct{}

// NewTopicRestriction creates a topic guardrail.
func NewTopicRestriction() *TopicRestriction {
	return &TopicRestriction{}
}

// Name returns the unique name of this guardrail instance.
func (t *TopicRestriction) Name() string {
	return "topic_restriction"
}

// Type returns the guardrail type.
func (t *TopicRestriction) Type() guardrail.GuardrailType {
	return guardrail.GuardrailTypeTopic
}

// CheckInput blocks on the first restricted topic found in the query.
func (t *TopicRestriction) CheckInput(ctx context.Context, input guardrail.GuardrailInput) (guardrail.GuardrailResult, error) {
	query := strings.ToLower(input.Query)
	for _, topic := range input.Policy.RestrictedTopics {
		if strings.Contains(query, strings.ToLower(topic)) {
			return guardrail.NewBlockResult(
				fmt.Sprintf("Topic '%s' not permitted for role '%s'", topic, input.Role),
				guardrail.FlagRoleRestriction,
			), nil
		}
	}
	return guardrail.NewAllowResult(), nil
}

// CheckOutput allows everything.
func (t *TopicRestriction) CheckOutput(ctx context.Context, output guardrail.GuardrailOutput) (guardrail.GuardrailResult, error) {
	return guardrail.NewAllowResult(), nil
}
