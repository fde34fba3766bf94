package rbac

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_LookupKnownRoles(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		role      string
		maxLen    int
		canExport bool
		canRaw    bool
		topics    []string
	}{
		{"admin", 5000, true, true, []string{}},
		{"investigator", 2000, true, true, []string{"delete", "modify", "alter"}},
		{"analyst", 1000, false, false, []string{"delete", "modify", "alter", "personal", "identity"}},
		{"viewer", 500, false, false, []string{"delete", "modify", "alter", "personal", "identity", "location", "gps"}},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			p := table.Lookup(tt.role)
			assert.Equal(t, tt.maxLen, p.MaxQueryLength)
			assert.Equal(t, tt.canExport, p.CanExportReport)
			assert.Equal(t, tt.canRaw, p.CanViewRawEvidence)
			assert.Equal(t, tt.topics, p.RestrictedTopics)
		})
	}
}

func TestTable_UnknownRoleFallsBackToViewer(t *testing.T) {
	table := DefaultTable()

	for _, role := range []string{"", "root", "superuser", "ADMINISTRATOR"} {
		t.Run(role, func(t *testing.T) {
			assert.Equal(t, RoleViewer, table.Resolve(role))
			assert.Equal(t, table.Lookup("viewer"), table.Lookup(role))
		})
	}
}

func TestTable_ResolveMatchesExactly(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, RoleAdmin, table.Resolve("  admin "))
	assert.Equal(t, RoleViewer, table.Resolve(" ADMIN "))
	assert.Equal(t, RoleViewer, table.Resolve("Investigator"))
	assert.Equal(t, 500, table.Lookup("ADMIN").MaxQueryLength)
}

func TestTable_LookupReturnsCopy(t *testing.T) {
	table := DefaultTable()

	p := table.Lookup("viewer")
	p.RestrictedTopics[0] = "tampered"
	p.MaxQueryLength = 1

	again := table.Lookup("viewer")
	assert.Equal(t, "delete", again.RestrictedTopics[0])
	assert.Equal(t, 500, again.MaxQueryLength)
}

func TestPolicy_Allows(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.Lookup("admin").Allows(CapabilityReport))
	assert.True(t, table.Lookup("investigator").Allows(CapabilityReport))
	assert.False(t, table.Lookup("analyst").Allows(CapabilityReport))
	assert.True(t, table.Lookup("viewer").Allows(CapabilitySearch))
	assert.False(t, table.Lookup("viewer").Allows(CapabilityAnalyze))
}

func TestPolicy_CanExport(t *testing.T) {
	table := DefaultTable()
	for _, role := range KnownRoles {
		p := table.Lookup(string(role))
		assert.Equal(t, p.CanExportReport, p.CanExport(), role)
	}

	assert.False(t, Policy{CanExportReport: true, Capabilities: []string{"search"}}.CanExport())
	assert.False(t, Policy{Capabilities: []string{"all"}}.CanExport())
	assert.True(t, Policy{CanExportReport: true, Capabilities: []string{"all"}}.CanExport())
}

func TestNewTable_Overrides(t *testing.T) {
	table, err := NewTable(map[string]Policy{
		" analyst": {
			MaxQueryLength:   800,
			RestrictedTopics: []string{"delete"},
			Capabilities:     []string{"search"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 800, table.Lookup("analyst").MaxQueryLength)
	assert.Equal(t, []string{"delete"}, table.Lookup("analyst").RestrictedTopics)
	// untouched roles keep defaults
	assert.Equal(t, 5000, table.Lookup("admin").MaxQueryLength)
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]Policy
		errSubstr string
	}{
		{
			name:      "unknown role",
			overrides: map[string]Policy{"auditor": {MaxQueryLength: 10}},
			errSubstr: "unknown role",
		},
		{
			name:      "mis-cased role",
			overrides: map[string]Policy{"Viewer": {MaxQueryLength: 10}},
			errSubstr: "unknown role",
		},
		{
			name:      "non-positive length",
			overrides: map[string]Policy{"viewer": {MaxQueryLength: 0}},
			errSubstr: "max_query_length must be positive",
		},
		{
			name:      "empty topic",
			overrides: map[string]Policy{"viewer": {MaxQueryLength: 10, RestrictedTopics: []string{" "}}},
			errSubstr: "empty entry",
		},
		{
			name:      "unknown capability",
			overrides: map[string]Policy{"viewer": {MaxQueryLength: 10, Capabilities: []string{"delete"}}},
			errSubstr: "unknown capability",
		},
		{
			name:      "export flag without report capability",
			overrides: map[string]Policy{"analyst": {MaxQueryLength: 10, CanExportReport: true, Capabilities: []string{"search"}}},
			errSubstr: "can_export_report is true but the report capability is not granted",
		},
		{
			name:      "all capability without export flag",
			overrides: map[string]Policy{"analyst": {MaxQueryLength: 10, Capabilities: []string{"all"}}},
			errSubstr: "can_export_report is false but the report capability is granted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoad_YAMLRoundTrip(t *testing.T) {
	doc := `
viewer:
  max_query_length: 300
  restricted_topics: [gps, location]
  capabilities: [search]
`
	table, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 300, table.Lookup("viewer").MaxQueryLength)

	var buf bytes.Buffer
	require.NoError(t, table.WriteYAML(&buf))

	reloaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Policies(), reloaded.Policies())
}

func TestLoad_Empty(t *testing.T) {
	table, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicies(), table.Policies())
}

func TestTable_Roles(t *testing.T) {
	assert.Equal(t, []Role{RoleAdmin, RoleAnalyst, RoleInvestigator, RoleViewer}, DefaultTable().Roles())
}
