package evidence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/zero-day-ai/forensiq/internal/types"
)

// DefaultCaseID is used when a caller names no case.
const DefaultCaseID = "default"

var validate = validator.New(validator.WithRequiredStructEnabled())

// CaseSummary describes the evidence held for one case.
type CaseSummary struct {
	CaseID    string   `json:"case_id"`
	Count     int      `json:"count"`
	Filenames []string `json:"filenames"`
}

// Store keeps evidence records per case. It is safe for concurrent use:
// pipeline runs read snapshots while uploads add records.
type Store struct {
	mu    sync.RWMutex
	cases map[string][]Record
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		cases: make(map[string][]Record),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func normalizeCase(caseID string) string {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return DefaultCaseID
	}
	return caseID
}

// Add validates records and appends them to caseID. Missing IDs are
// generated and every record is stamped with the case and ingest time.
// Either all records are added or none.
func (s *Store) Add(caseID string, records ...Record) ([]Record, error) {
	caseID = normalizeCase(caseID)
	added := make([]Record, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, types.WrapError(types.EVIDENCE_INVALID, fmt.Sprintf("evidence record %d is invalid", i), err)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.CaseID = caseID
		if r.IngestedAt.IsZero() {
			r.IngestedAt = s.now()
		}
		added = append(added, r)
	}

	s.mu.Lock()
	s.cases[caseID] = append(s.cases[caseID], added...)
	s.mu.Unlock()
	return added, nil
}

// Snapshot returns a copy of the records held for caseID, in insertion
// order. Later additions do not affect a returned snapshot.
func (s *Store) Snapshot(caseID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cases[normalizeCase(caseID)])
}

// Get returns the record with the given ID in caseID.
func (s *Store) Get(caseID, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.cases[normalizeCase(caseID)] {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, types.NewError(types.EVIDENCE_NOT_FOUND, fmt.Sprintf("evidence %s not found in case %s", id, caseID))
}

// Cases summarizes every case, sorted by case ID.
func (s *Store) Cases() []CaseSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CaseSummary, 0, len(s.cases))
	for id, records := range s.cases {
		summary := CaseSummary{CaseID: id, Count: len(records), Filenames: make([]string, len(records))}
		for i, r := range records {
			summary.Filenames[i] = r.Filename
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}

// LoadJSON reads records exported by the extraction step, either a single
// object or an array, and adds them to caseID.
func (s *Store) LoadJSON(caseID string, r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, types.WrapError(types.EVIDENCE_INVALID, "failed to read evidence", err)
	}

	var exported []exportedRecord
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, types.NewError(types.EVIDENCE_INVALID, "evidence document is empty")
	case trimmed[0] == '[':
		err = json.Unmarshal(trimmed, &exported)
	default:
		var one exportedRecord
		err = json.Unmarshal(trimmed, &one)
		exported = []exportedRecord{one}
	}
	if err != nil {
		return nil, types.WrapError(types.EVIDENCE_INVALID, "failed to decode evidence", err)
	}

	records := make([]Record, len(exported))
	for i, e := range exported {
		records[i] = e.record()
	}
	return s.Add(caseID, records...)
}

// LoadFile is LoadJSON over the file at path.
func (s *Store) LoadFile(caseID, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.EVIDENCE_NOT_FOUND, fmt.Sprintf("failed to open evidence file %s", path), err)
	}
	defer f.Close()
	return s.LoadJSON(caseID, f)
}
