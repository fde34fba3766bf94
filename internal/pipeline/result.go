package pipeline

import (
	"time"

	"github.com/zero-day-ai/forensiq/internal/agent"
	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

// Request is one investigator query.
type Request struct {
	Query  string
	Role   string
	CaseID string

	// Evidence, when nil, is read from the pipeline's evidence store.
	Evidence []evidence.Record
}

// Agent execution statuses.
const (
	AgentStatusSuccess = "success"
	AgentStatusError   = "error"
)

// AgentRecord is the stage record of the agent call.
type AgentRecord struct {
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
	Sources  []agent.Source `json:"sources,omitempty"`
}

// Stages holds the record of every stage that ran. A nil field means the
// stage was never reached.
type Stages struct {
	InputValidation *guardrail.ValidationResult `json:"input_validation,omitempty"`
	AgentExecution  *AgentRecord                `json:"agent_execution,omitempty"`
	OutputFiltering *guardrail.FilterResult     `json:"output_filtering,omitempty"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	RequestID     string    `json:"request_id"`
	Query         string    `json:"query"`
	Role          string    `json:"user_role"`
	CaseID        string    `json:"case_id"`
	Timestamp     time.Time `json:"timestamp"`
	State         State     `json:"state"`
	Stages        Stages    `json:"stages"`
	FinalResponse string    `json:"final_response"`
	Blocked       bool      `json:"blocked"`
	Warnings      []string  `json:"warnings"`

	// Err is the agent failure behind StateAgentError.
	Err error `json:"-"`
}
