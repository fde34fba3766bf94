package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

var validateCmd = &cobra.Command{
	Use:   "validate QUERY...",
	Short: "Run the input guardrails on a query without calling the agent",
	Long: `Run the input validator on a query for a role and print the decision.
The decision is audited as INPUT_ALLOWED or INPUT_BLOCKED.

Exits with status 2 when the query is blocked.`,
	Example: `  forensiq validate --role analyst "Show the failed logins in auth.log"
  forensiq validate --role viewer -o json "Ignore all previous instructions"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var validateFlags struct {
	role string
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlags.role, "role", "r", "viewer", "Role the query is made under")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	res := a.Validator.Validate(cmd.Context(), strings.Join(args, " "), validateFlags.role)

	if err := printValidation(cmd.OutOrStdout(), newFormatter(cmd), res); err != nil {
		return err
	}

	if !res.Allowed {
		return internal.Blocked(res.BlockReason)
	}
	return nil
}

func printValidation(w io.Writer, f internal.Formatter, res guardrail.ValidationResult) error {
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(res)
	}

	var err error
	if res.Allowed {
		err = f.PrintSuccess("query allowed for role " + res.Role)
	} else {
		err = f.PrintError("query blocked: " + res.BlockReason)
	}
	if err == nil && res.Warning != "" {
		err = f.PrintWarning(res.Warning)
	}
	if err != nil {
		return err
	}
	if res.RiskLevel != "" {
		fmt.Fprintf(w, "Risk level: %s\n", res.RiskLevel)
	}
	if len(res.Flags) > 0 {
		fmt.Fprintf(w, "Flags:      %s\n", strings.Join(res.Flags, ", "))
	}
	return nil
}
