package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/evidence"
	"github.com/zero-day-ai/forensiq/internal/pipeline"
)

// DefaultBatchConcurrency is the number of queries run at once.
const DefaultBatchConcurrency = 4

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a file of queries through the guarded pipeline",
	Long: `Run every query in a file (one per line) through the pipeline under one
role and case. Blank lines and lines starting with # are skipped.

Blocked queries are reported in the summary and do not fail the command.`,
	Example: `  forensiq batch --role analyst --case case-7 --file queries.txt
  grep -v '^$' queries.txt | forensiq batch --role viewer --file - -o json`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

var batchFlags struct {
	role        string
	caseID      string
	file        string
	evidence    []string
	concurrency int
}

func init() {
	batchCmd.Flags().StringVarP(&batchFlags.role, "role", "r", "viewer", "Role the queries are made under")
	batchCmd.Flags().StringVar(&batchFlags.caseID, "case", evidence.DefaultCaseID, "Case the evidence belongs to")
	batchCmd.Flags().StringVarP(&batchFlags.file, "file", "f", "", "File of queries, one per line (- for stdin)")
	batchCmd.Flags().StringSliceVarP(&batchFlags.evidence, "evidence", "e", nil, "Evidence JSON file to load into the case (repeatable)")
	batchCmd.Flags().IntVarP(&batchFlags.concurrency, "concurrency", "c", DefaultBatchConcurrency, "Queries run concurrently")
	_ = batchCmd.MarkFlagRequired("file")
}

// batchSummary counts batch outcomes by terminal state.
type batchSummary struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Blocked   int `json:"blocked"`
	Failed    int `json:"failed"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchFlags.concurrency < 1 {
		return internal.NewCLIError(internal.ExitError, "--concurrency must be at least 1")
	}

	queries, err := openQueries(cmd.InOrStdin(), batchFlags.file)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return internal.NewCLIError(internal.ExitError, "no queries found in "+batchFlags.file)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	for _, path := range batchFlags.evidence {
		if _, err := a.Evidence.LoadFile(batchFlags.caseID, path); err != nil {
			return err
		}
	}

	reqs := make([]pipeline.Request, len(queries))
	for i, q := range queries {
		reqs[i] = pipeline.Request{Query: q, Role: batchFlags.role, CaseID: batchFlags.caseID}
	}

	results, err := runQueries(cmd.Context(), a.Pipeline, reqs, batchFlags.concurrency)
	if err != nil {
		return err
	}
	summary := summarizeResults(results)

	f := newFormatter(cmd)
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(map[string]any{
			"results": results,
			"summary": summary,
		})
	}

	rows := make([][]string, 0, len(results))
	for i, res := range results {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			res.State.String(),
			truncate(res.Query, 48),
			truncate(firstLine(res.FinalResponse), 64),
		})
	}
	if err := f.PrintTable([]string{"#", "state", "query", "response"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d queries: %d delivered, %d blocked, %d failed\n",
		summary.Total, summary.Delivered, summary.Blocked, summary.Failed)
	return nil
}

func openQueries(stdin io.Reader, path string) ([]string, error) {
	if path == "-" {
		return readQueries(stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, internal.WrapError(internal.ExitError, "failed to open query file", err)
	}
	defer file.Close()
	return readQueries(file)
}

// readQueries returns one query per non-blank line, skipping # comments.
func readQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, internal.WrapError(internal.ExitError, "failed to read queries", err)
	}
	return queries, nil
}

// runQueries runs reqs with at most limit in flight. Results keep the order
// of reqs. Only cancellation of ctx stops the batch early.
func runQueries(ctx context.Context, p *pipeline.Pipeline, reqs []pipeline.Request, limit int) ([]pipeline.Result, error) {
	results := make([]pipeline.Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.Run(gctx, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarizeResults(results []pipeline.Result) batchSummary {
	s := batchSummary{Total: len(results)}
	for _, res := range results {
		switch res.State {
		case pipeline.StateDone:
			s.Delivered++
		case pipeline.StateBlockedAtInput, pipeline.StateBlockedAtOutput:
			s.Blocked++
		default:
			s.Failed++
		}
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
