package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/pipeline"
	"github.com/zero-day-ai/forensiq/internal/rbac"
)

var askCmd = &cobra.Command{
	Use:   "ask QUERY...",
	Short: "Ask the investigation agent a question through the guarded pipeline",
	Long: `Run a query through input validation, the investigation agent and output
filtering. Evidence exported as JSON can be loaded into the case first.

With --export the full pipeline record is written as a JSON report; only
roles whose policy permits report export may do so.

Exits with status 2 when either guardrail stage blocks the request.`,
	Example: `  forensiq ask --role analyst --case case-7 --evidence export.json "Build a timeline of the intrusion"
  forensiq ask --role investigator --export report.json "Which hosts contacted 10.0.0.5?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var askFlags struct {
	role     string
	caseID   string
	evidence []string
	export   string
}

func init() {
	askCmd.Flags().StringVarP(&askFlags.role, "role", "r", "viewer", "Role the query is made under")
	askCmd.Flags().StringVar(&askFlags.caseID, "case", evidence.DefaultCaseID, "Case the evidence belongs to")
	askCmd.Flags().StringSliceVarP(&askFlags.evidence, "evidence", "e", nil, "Evidence JSON file to load into the case (repeatable)")
	askCmd.Flags().StringVar(&askFlags.export, "export", "", "Write the pipeline record as a JSON report to this path")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	if askFlags.export != "" {
		if err := checkExport(a.Roles, askFlags.role); err != nil {
			return err
		}
	}

	for _, path := range askFlags.evidence {
		records, err := a.Evidence.LoadFile(askFlags.caseID, path)
		if err != nil {
			return err
		}
		a.Logger.DebugContext(cmd.Context(), "evidence loaded", "path", path, "records", len(records), "case_id", askFlags.caseID)
	}

	res := a.Pipeline.Run(cmd.Context(), pipeline.Request{
		Query:  strings.Join(args, " "),
		Role:   askFlags.role,
		CaseID: askFlags.caseID,
	})

	if err := printResult(cmd.OutOrStdout(), newFormatter(cmd), res); err != nil {
		return err
	}

	if askFlags.export != "" && res.State == pipeline.StateDone {
		if err := writeReport(askFlags.export, res); err != nil {
			return err
		}
		if !globalFlags.IsQuiet() && !globalFlags.GetOutputFormat().Structured() {
			if err := newFormatter(cmd).PrintSuccess("report written to " + askFlags.export); err != nil {
				return err
			}
		}
	}

	return resultError(res)
}

// checkExport refuses report export for roles whose policy does not permit it.
func checkExport(roles *rbac.Table, role string) error {
	if roles.Lookup(role).CanExport() {
		return nil
	}
	return internal.NewCLIError(internal.ExitBlocked,
		fmt.Sprintf("role %q is not permitted to export reports", role))
}

func writeReport(path string, res pipeline.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return internal.WrapError(internal.ExitError, "failed to create report directory", err)
		}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return internal.WrapError(internal.ExitError, "failed to encode report", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return internal.WrapError(internal.ExitError, "failed to write report", err)
	}
	return nil
}

// resultError maps a terminal pipeline state to the command's error.
func resultError(res pipeline.Result) error {
	switch res.State {
	case pipeline.StateDone:
		return nil
	case pipeline.StateBlockedAtInput:
		if v := res.Stages.InputValidation; v != nil {
			return internal.Blocked(v.BlockReason)
		}
		return internal.Blocked("input validation failed")
	case pipeline.StateBlockedAtOutput:
		if f := res.Stages.OutputFiltering; f != nil {
			return internal.Blocked(f.BlockReason)
		}
		return internal.Blocked("output filtering failed")
	case pipeline.StateAgentError:
		if res.Err != nil {
			return res.Err
		}
		return internal.NewCLIError(internal.ExitError, "agent failed")
	default:
		return internal.NewCLIError(internal.ExitError, "pipeline ended in state "+res.State.String())
	}
}

func printResult(w io.Writer, f internal.Formatter, res pipeline.Result) error {
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(res)
	}

	fmt.Fprintf(w, "Request: %s\n", res.RequestID)
	fmt.Fprintf(w, "Role:    %s\n", res.Role)
	fmt.Fprintf(w, "Case:    %s\n", res.CaseID)
	fmt.Fprintf(w, "State:   %s\n", res.State)

	if ae := res.Stages.AgentExecution; ae != nil && len(ae.Sources) > 0 {
		names := make([]string, 0, len(ae.Sources))
		for _, s := range ae.Sources {
			names = append(names, s.Filename)
		}
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(w)

	var err error
	switch res.State {
	case pipeline.StateDone:
		err = f.PrintSuccess("response delivered")
	case pipeline.StateAgentError:
		err = f.PrintError("agent failed")
	default:
		err = f.PrintError("request blocked")
	}
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		if err := f.PrintWarning(warning); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n%s\n", res.FinalResponse)
	return err
}
