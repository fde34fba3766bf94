// Package audit records every guardrail decision in an append-only log and
// reads the most recent entries back for the audit viewer.
package audit

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EventType names the stage transition an entry records.
type EventType string

const (
	EventInputBlocked    EventType = "INPUT_BLOCKED"
	EventInputAllowed    EventType = "INPUT_ALLOWED"
	EventOutputBlocked   EventType = "OUTPUT_BLOCKED"
	EventOutputDelivered EventType = "OUTPUT_DELIVERED"
	EventAgentError      EventType = "AGENT_ERROR"
)

// EventTypes lists all event types in pipeline order.
var EventTypes = []EventType{
	EventInputBlocked,
	EventInputAllowed,
	EventAgentError,
	EventOutputBlocked,
	EventOutputDelivered,
}

// IsValid reports whether e is a known event type.
func (e EventType) IsValid() bool {
	for _, t := range EventTypes {
		if e == t {
			return true
		}
	}
	return false
}

// PreviewLimit is the maximum number of runes kept from input and output text.
const PreviewLimit = 200

// Entry is one audit record. Entries are written once and never modified.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     EventType `json:"event_type"`
	Role          string    `json:"user_role"`
	RequestID     string    `json:"request_id,omitempty"`
	InputPreview  string    `json:"input_preview"`
	OutputPreview *string   `json:"output_preview"`
	Blocked       bool      `json:"blocked"`
	BlockReason   *string   `json:"block_reason"`
}

// Decision carries the fields a guardrail stage supplies for an entry.
type Decision struct {
	EventType   EventType
	Role        string
	RequestID   string
	Input       string
	Output      *string
	Blocked     bool
	BlockReason string
}

// NewEntry stamps a decision with an ID and the current time and truncates
// the previews.
func NewEntry(d Decision) Entry {
	e := Entry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		EventType:    d.EventType,
		Role:         d.Role,
		RequestID:    d.RequestID,
		InputPreview: Preview(d.Input),
		Blocked:      d.Blocked,
	}
	if d.Output != nil {
		out := Preview(*d.Output)
		e.OutputPreview = &out
	}
	if d.BlockReason != "" {
		reason := d.BlockReason
		e.BlockReason = &reason
	}
	return e
}

// Preview truncates s to PreviewLimit runes.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLimit])
}
