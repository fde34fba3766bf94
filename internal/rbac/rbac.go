// Package rbac holds the static role → permission table that gates what an
// investigator may ask and what parts of an answer they may see.
package rbac

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Role identifies a class of user.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleInvestigator Role = "investigator"
	RoleAnalyst      Role = "analyst"
	RoleViewer       Role = "viewer"
)

// FallbackRole is the policy applied to unrecognized roles. It is the most
// restrictive entry of the table.
const FallbackRole = RoleViewer

// KnownRoles lists every role the table may define.
var KnownRoles = []Role{RoleAdmin, RoleInvestigator, RoleAnalyst, RoleViewer}

// Capability names an operation family a role may use.
type Capability string

const (
	CapabilityAll     Capability = "all"
	CapabilitySearch  Capability = "search"
	CapabilityAnalyze Capability = "analyze"
	CapabilityReport  Capability = "report"
)

var knownCapabilities = []Capability{CapabilityAll, CapabilitySearch, CapabilityAnalyze, CapabilityReport}

// Policy is the permission record for a single role.
type Policy struct {
	MaxQueryLength     int      `mapstructure:"max_query_length" yaml:"max_query_length" json:"max_query_length"`
	CanExportReport    bool     `mapstructure:"can_export_report" yaml:"can_export_report" json:"can_export_report"`
	CanViewRawEvidence bool     `mapstructure:"can_view_raw_evidence" yaml:"can_view_raw_evidence" json:"can_view_raw_evidence"`
	RestrictedTopics   []string `mapstructure:"restricted_topics" yaml:"restricted_topics" json:"restricted_topics"`
	Capabilities       []string `mapstructure:"capabilities" yaml:"capabilities" json:"capabilities"`
}

// Allows reports whether the policy grants capability c.
func (p Policy) Allows(c Capability) bool {
	for _, granted := range p.Capabilities {
		if Capability(granted) == CapabilityAll || Capability(granted) == c {
			return true
		}
	}
	return false
}

// CanExport reports whether the policy may export case reports. Both the
// flag and the report capability must be granted.
func (p Policy) CanExport() bool {
	return p.CanExportReport && p.Allows(CapabilityReport)
}

func (p Policy) clone() Policy {
	p.RestrictedTopics = slices.Clone(p.RestrictedTopics)
	p.Capabilities = slices.Clone(p.Capabilities)
	return p
}

func (p Policy) validate(role Role) error {
	if p.MaxQueryLength <= 0 {
		return fmt.Errorf("role %s: max_query_length must be positive (got %d)", role, p.MaxQueryLength)
	}
	for _, topic := range p.RestrictedTopics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("role %s: restricted_topics contains an empty entry", role)
		}
	}
	for _, c := range p.Capabilities {
		if !slices.Contains(knownCapabilities, Capability(c)) {
			return fmt.Errorf("role %s: unknown capability %q", role, c)
		}
	}
	if p.CanExportReport != p.Allows(CapabilityReport) {
		return fmt.Errorf("role %s: can_export_report is %t but the report capability is %s",
			role, p.CanExportReport, grantedWord(p.Allows(CapabilityReport)))
	}
	return nil
}

func grantedWord(granted bool) string {
	if granted {
		return "granted"
	}
	return "not granted"
}

// Table maps roles to policies. It is built once at startup and only read
// afterwards, so it needs no locking.
type Table struct {
	policies map[Role]Policy
}

// DefaultPolicies returns the built-in permission table.
func DefaultPolicies() map[Role]Policy {
	return map[Role]Policy{
		RoleAdmin: {
			MaxQueryLength:     5000,
			CanExportReport:    true,
			CanViewRawEvidence: true,
			RestrictedTopics:   []string{},
			Capabilities:       []string{string(CapabilityAll)},
		},
		RoleInvestigator: {
			MaxQueryLength:     2000,
			CanExportReport:    true,
			CanViewRawEvidence: true,
			RestrictedTopics:   []string{"delete", "modify", "alter"},
			Capabilities:       []string{string(CapabilitySearch), string(CapabilityAnalyze), string(CapabilityReport)},
		},
		RoleAnalyst: {
			MaxQueryLength:     1000,
			CanExportReport:    false,
			CanViewRawEvidence: false,
			RestrictedTopics:   []string{"delete", "modify", "alter", "personal", "identity"},
			Capabilities:       []string{string(CapabilitySearch), string(CapabilityAnalyze)},
		},
		RoleViewer: {
			MaxQueryLength:     500,
			CanExportReport:    false,
			CanViewRawEvidence: false,
			RestrictedTopics:   []string{"delete", "modify", "alter", "personal", "identity", "location", "gps"},
			Capabilities:       []string{string(CapabilitySearch)},
		},
	}
}

// DefaultTable returns a table holding DefaultPolicies.
func DefaultTable() *Table {
	return &Table{policies: DefaultPolicies()}
}

// NewTable builds a table from the defaults with overrides applied per role.
// Override keys must name a known role exactly; surrounding space is ignored.
func NewTable(overrides map[string]Policy) (*Table, error) {
	policies := DefaultPolicies()
	for name, p := range overrides {
		role := Role(strings.TrimSpace(name))
		if !slices.Contains(KnownRoles, role) {
			return nil, fmt.Errorf("unknown role %q (known roles: %v)", name, KnownRoles)
		}
		if err := p.validate(role); err != nil {
			return nil, err
		}
		policies[role] = p.clone()
	}
	return &Table{policies: policies}, nil
}

// Resolve maps a caller-supplied role name to the role whose policy applies.
// Names match exactly after trimming space, so "Admin" is not admin.
// Unrecognized names resolve to FallbackRole.
func (t *Table) Resolve(role string) Role {
	r := Role(strings.TrimSpace(role))
	if _, ok := t.policies[r]; ok {
		return r
	}
	return FallbackRole
}

// Lookup returns the policy for role. It never fails: unknown roles get the
// FallbackRole policy. The returned value is a copy.
func (t *Table) Lookup(role string) Policy {
	return t.policies[t.Resolve(role)].clone()
}

// Roles returns the defined roles in sorted order.
func (t *Table) Roles() []Role {
	roles := make([]Role, 0, len(t.policies))
	for r := range t.policies {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Policies returns a copy of the whole table.
func (t *Table) Policies() map[Role]Policy {
	out := make(map[Role]Policy, len(t.policies))
	for r, p := range t.policies {
		out[r] = p.clone()
	}
	return out
}
