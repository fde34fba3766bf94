package audit

import (
	"context"
	"strings"
)

// Sink accepts entries. Implementations must make each Append atomic with
// respect to concurrent Appends; entries are independent and never updated.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Reader returns recent entries for the audit viewer.
type Reader interface {
	// Tail returns up to n of the most recent entries matching f, oldest first.
	Tail(ctx context.Context, n int, f Filter) ([]Entry, error)
}

// Store is an audit backend that can be written and read.
type Store interface {
	Sink
	Reader
	Close() error
}

// DefaultTailSize is the number of entries the viewer shows by default.
const DefaultTailSize = 50

// Filter narrows Tail results. Zero-value fields match everything.
type Filter struct {
	EventType   EventType
	Role        string
	BlockedOnly bool
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Role != "" && !strings.EqualFold(e.Role, f.Role) {
		return false
	}
	if f.BlockedOnly && !e.Blocked {
		return false
	}
	return true
}

// Summary aggregates entries the way the audit dashboard shows them.
type Summary struct {
	Total       int               `json:"total"`
	Blocked     int               `json:"blocked"`
	Allowed     int               `json:"allowed"`
	UniqueRoles int               `json:"unique_roles"`
	ByEvent     map[EventType]int `json:"by_event"`
}

// Summarize counts entries by outcome, event type and role.
func Summarize(entries []Entry) Summary {
	s := Summary{ByEvent: make(map[EventType]int)}
	roles := make(map[string]struct{})
	for _, e := range entries {
		s.Total++
		if e.Blocked {
			s.Blocked++
		}
		s.ByEvent[e.EventType]++
		roles[e.Role] = struct{}{}
	}
	s.Allowed = s.Total - s.Blocked
	s.UniqueRoles = len(roles)
	return s
}
