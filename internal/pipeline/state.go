package pipeline

// State is a pipeline state. A Result always carries a terminal state.
type State string

const (
	StateStart         State = "START"
	StateInputChecked  State = "INPUT_CHECKED"
	StateAgentExecuted State = "AGENT_EXECUTED"
	StateOutputChecked State = "OUTPUT_CHECKED"

	// StateDone means the filtered response was delivered
	StateDone State = "DONE"

	// StateBlockedAtInput means the input validator refused the query
	StateBlockedAtInput State = "BLOCKED_AT_INPUT"

	// StateAgentError means the agent failed, timed out or panicked
	StateAgentError State = "AGENT_ERROR"

	// StateBlockedAtOutput means the output filter refused the response
	StateBlockedAtOutput State = "BLOCKED_AT_OUTPUT"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateBlockedAtInput, StateAgentError, StateBlockedAtOutput:
		return true
	}
	return false
}
