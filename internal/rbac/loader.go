package rbac

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML role file of the form
//
//	analyst:
//	  max_query_length: 800
//	  restricted_topics: [delete, personal]
//
// and returns the default table with those roles overridden.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open role file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML role document from r.
func Load(r io.Reader) (*Table, error) {
	var overrides map[string]Policy
	if err := yaml.NewDecoder(r).Decode(&overrides); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode role file: %w", err)
	}
	return NewTable(overrides)
}

// WriteYAML encodes the table to w in the format accepted by Load.
func (t *Table) WriteYAML(w io.Writer) error {
	out := make(map[string]Policy, len(t.policies))
	for r, p := range t.policies {
		out[string(r)] = p.clone()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode role table: %w", err)
	}
	return enc.Close()
}
