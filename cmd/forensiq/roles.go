package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/rbac"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Show the role policy table",
	Long: `Print the effective role policies: the built-in defaults with any roles
section from the config applied. With --file, a standalone YAML role file
is applied over the defaults instead.`,
	Example: `  forensiq roles
  forensiq roles -o yaml > roles.yaml
  forensiq roles --file roles.yaml`,
	Args: cobra.NoArgs,
	RunE: runRoles,
}

var rolesFlags struct {
	file string
}

func init() {
	rolesCmd.Flags().StringVar(&rolesFlags.file, "file", "", "YAML role file to preview instead of the config")
}

func runRoles(cmd *cobra.Command, args []string) error {
	table, err := roleTable(rolesFlags.file)
	if err != nil {
		return err
	}

	switch globalFlags.GetOutputFormat() {
	case internal.FormatYAML:
		return table.WriteYAML(cmd.OutOrStdout())
	case internal.FormatJSON:
		return newFormatter(cmd).PrintData(table.Policies())
	}

	rows := make([][]string, 0, len(table.Roles()))
	for _, role := range table.Roles() {
		p := table.Lookup(string(role))
		rows = append(rows, []string{
			string(role),
			strconv.Itoa(p.MaxQueryLength),
			strconv.FormatBool(p.CanExportReport),
			strconv.FormatBool(p.CanViewRawEvidence),
			orDash(strings.Join(p.Capabilities, ",")),
			orDash(strings.Join(p.RestrictedTopics, ",")),
		})
	}
	return newFormatter(cmd).PrintTable(
		[]string{"role", "max_query", "export", "raw_evidence", "capabilities", "restricted_topics"}, rows)
}

func roleTable(file string) (*rbac.Table, error) {
	if file != "" {
		table, err := rbac.LoadFile(file)
		if err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "invalid role file", err)
		}
		return table, nil
	}
	table, err := currentConfig().RoleTable()
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "invalid role table", err)
	}
	return table, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
