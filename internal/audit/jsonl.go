package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// maxLineSize bounds a single JSONL record when reading back.
const maxLineSize = 1 << 20

// JSONLStore appends one JSON object per line to a file opened in append
// mode. Writes are serialized by a mutex so concurrent pipeline runs never
// interleave partial lines.
type JSONLStore struct {
	path string
	sync bool

	mu sync.Mutex
	f  *os.File
}

// JSONLOption configures a JSONLStore.
type JSONLOption func(*JSONLStore)

// WithSync makes every Append fsync the file before returning.
func WithSync(enabled bool) JSONLOption {
	return func(s *JSONLStore) {
		s.sync = enabled
	}
}

// NewJSONLStore creates or opens the file at path; missing directories are created.
func NewJSONLStore(path string, opts ...JSONLOption) (*JSONLStore, error) {
	if path == "" {
		return nil, types.NewError(types.AUDIT_OPEN_FAILED, "audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, types.WrapError(types.AUDIT_OPEN_FAILED, "failed to create audit directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, types.WrapError(types.AUDIT_OPEN_FAILED, "failed to open audit log", err)
	}
	s := &JSONLStore{path: path, f: f}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the file the store writes to.
func (s *JSONLStore) Path() string {
	return s.path
}

// Append writes e as a single line.
func (s *JSONLStore) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return types.WrapError(types.AUDIT_WRITE_FAILED, "failed to encode audit entry", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return types.NewError(types.AUDIT_WRITE_FAILED, "audit log is closed")
	}
	if _, err := s.f.Write(data); err != nil {
		return types.WrapError(types.AUDIT_WRITE_FAILED, "failed to append audit entry", err)
	}
	if s.sync {
		if err := s.f.Sync(); err != nil {
			return types.WrapError(types.AUDIT_WRITE_FAILED, "failed to sync audit log", err)
		}
	}
	return nil
}

// Tail scans the whole file and keeps the last n matching entries. Lines that
// do not decode are skipped.
func (s *JSONLStore) Tail(ctx context.Context, n int, f Filter) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTailSize
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, types.WrapError(types.AUDIT_READ_FAILED, "failed to open audit log", err)
	}
	defer file.Close()

	ring := make([]Entry, 0, min(n, DefaultTailSize))
	next := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if !f.Match(e) {
			continue
		}
		if len(ring) < n {
			ring = append(ring, e)
			continue
		}
		ring[next] = e
		next = (next + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, types.WrapError(types.AUDIT_READ_FAILED, "failed to read audit log", err)
	}

	// ring[next] is the oldest entry once the ring has wrapped.
	out := make([]Entry, 0, len(ring))
	out = append(out, ring[next:]...)
	return append(out, ring[:next]...), nil
}

// Close closes the underlying file. Further Appends fail.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
