package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/app"
	"github.com/zero-day-ai/forensiq/internal/audit"
)

// statsWindow is how many recent entries audit stats reads.
const statsWindow = 10000

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the guardrail audit log",
	Long:  "Read the most recent guardrail decisions from the configured audit store.",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent audit entries",
	Example: `  forensiq audit tail -n 20
  forensiq audit tail --blocked --role viewer -o json`,
	Args: cobra.NoArgs,
	RunE: runAuditTail,
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent audit entries",
	Args:  cobra.NoArgs,
	RunE:  runAuditStats,
}

var auditFlags struct {
	limit   int
	event   string
	role    string
	blocked bool
	window  int
}

func init() {
	auditTailCmd.Flags().IntVarP(&auditFlags.limit, "limit", "n", audit.DefaultTailSize, "Number of entries to show")
	auditTailCmd.Flags().StringVar(&auditFlags.event, "event", "", "Only show entries of this event type")
	auditTailCmd.Flags().StringVar(&auditFlags.role, "role", "", "Only show entries for this role")
	auditTailCmd.Flags().BoolVar(&auditFlags.blocked, "blocked", false, "Only show blocked entries")

	auditStatsCmd.Flags().IntVar(&auditFlags.window, "window", statsWindow, "Number of recent entries to summarize")

	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditStatsCmd)
}

// auditFilter builds the tail filter, rejecting unknown event types.
func auditFilter(event, role string, blocked bool) (audit.Filter, error) {
	f := audit.Filter{Role: role, BlockedOnly: blocked}
	if event == "" {
		return f, nil
	}
	et := audit.EventType(event)
	if !et.IsValid() {
		names := make([]string, len(audit.EventTypes))
		for i, t := range audit.EventTypes {
			names[i] = string(t)
		}
		return f, internal.NewCLIError(internal.ExitError,
			fmt.Sprintf("unknown --event %q (must be one of: %s)", event, strings.Join(names, ", ")))
	}
	f.EventType = et
	return f, nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	if auditFlags.limit < 1 {
		return internal.NewCLIError(internal.ExitError, "--limit must be at least 1")
	}
	filter, err := auditFilter(auditFlags.event, auditFlags.role, auditFlags.blocked)
	if err != nil {
		return err
	}

	entries, err := readAudit(cmd, auditFlags.limit, filter)
	if err != nil {
		return err
	}

	f := newFormatter(cmd)
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(entries)
	}
	if len(entries) == 0 {
		return f.PrintWarning("no audit entries")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.InputPreview
		if e.BlockReason != nil {
			detail = *e.BlockReason
		}
		rows = append(rows, []string{
			e.Timestamp.Local().Format(time.DateTime),
			string(e.EventType),
			e.Role,
			strconv.FormatBool(e.Blocked),
			truncate(firstLine(detail), 72),
		})
	}
	return f.PrintTable([]string{"time", "event", "role", "blocked", "detail"}, rows)
}

func runAuditStats(cmd *cobra.Command, args []string) error {
	if auditFlags.window < 1 {
		return internal.NewCLIError(internal.ExitError, "--window must be at least 1")
	}
	entries, err := readAudit(cmd, auditFlags.window, audit.Filter{})
	if err != nil {
		return err
	}
	summary := audit.Summarize(entries)

	f := newFormatter(cmd)
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total:        %d\n", summary.Total)
	fmt.Fprintf(w, "Blocked:      %d\n", summary.Blocked)
	fmt.Fprintf(w, "Allowed:      %d\n", summary.Allowed)
	fmt.Fprintf(w, "Unique roles: %d\n\n", summary.UniqueRoles)

	rows := make([][]string, 0, len(audit.EventTypes))
	for _, et := range audit.EventTypes {
		rows = append(rows, []string{string(et), strconv.Itoa(summary.ByEvent[et])})
	}
	return f.PrintTable([]string{"event", "count"}, rows)
}

func readAudit(cmd *cobra.Command, n int, filter audit.Filter) ([]audit.Entry, error) {
	cfg := currentConfig()
	store, err := app.OpenAuditStore(cmd.Context(), cfg.Audit)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.Tail(cmd.Context(), n, filter)
}
