package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. It backs tests and one-shot
// CLI runs that do not need durability.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append records e.
func (m *MemoryStore) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Tail returns up to n of the most recent matching entries, oldest first.
func (m *MemoryStore) Tail(ctx context.Context, n int, f Filter) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTailSize
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Entry
	for i := len(m.entries) - 1; i >= 0 && len(matched) < n; i-- {
		if f.Match(m.entries[i]) {
			matched = append(matched, m.entries[i])
		}
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	if matched == nil {
		matched = []Entry{}
	}
	return matched, nil
}

// Entries returns a copy of everything recorded so far.
func (m *MemoryStore) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
