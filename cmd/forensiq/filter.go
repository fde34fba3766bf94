package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/guardrail"
)

var filterCmd = &cobra.Command{
	Use:   "filter [RESPONSE|-]",
	Short: "Run the output guardrails on an agent response",
	Long: `Run the output filter on a response produced for a query and print what
would reach the user. The response is read from standard input when it is
"-" or omitted and input is piped.

Exits with status 2 when the response is withheld.`,
	Example: `  forensiq filter --role viewer --query "who logged in?" "User 123-45-6789 logged in"
  cat answer.txt | forensiq filter --role analyst --query "summarize case 7"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

var filterFlags struct {
	role  string
	query string
}

func init() {
	filterCmd.Flags().StringVarP(&filterFlags.role, "role", "r", "viewer", "Role the response is delivered to")
	filterCmd.Flags().StringVar(&filterFlags.query, "query", "", "Query the response answers (used by the faithfulness review)")
}

func runFilter(cmd *cobra.Command, args []string) error {
	response, err := readResponse(cmd.InOrStdin(), args, stdinIsTerminal())
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	res := a.Filter.Filter(cmd.Context(), response, filterFlags.role, filterFlags.query)

	if err := printFilter(cmd.OutOrStdout(), newFormatter(cmd), res); err != nil {
		return err
	}

	if !res.Allowed {
		return internal.Blocked(res.BlockReason)
	}
	return nil
}

// readResponse returns the positional response, or stdin when the argument
// is "-" or absent with piped input.
func readResponse(stdin io.Reader, args []string, interactive bool) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 && interactive {
		return "", internal.NewCLIError(internal.ExitError, "no response given (pass it as an argument or pipe it on stdin)")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", internal.WrapError(internal.ExitError, "failed to read response from stdin", err)
	}
	response := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(response) == "" {
		return "", internal.NewCLIError(internal.ExitError, "response is empty")
	}
	return response, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func printFilter(w io.Writer, f internal.Formatter, res guardrail.FilterResult) error {
	if globalFlags.GetOutputFormat().Structured() {
		return f.PrintData(res)
	}

	var err error
	if res.Allowed {
		err = f.PrintSuccess("response delivered")
	} else {
		err = f.PrintError("response withheld: " + res.BlockReason)
	}
	if err != nil {
		return err
	}
	if res.HallucinationRisk != "" {
		fmt.Fprintf(w, "Hallucination risk: %s\n", res.HallucinationRisk)
	}
	if len(res.Flags) > 0 {
		fmt.Fprintf(w, "Flags:              %s\n", strings.Join(res.Flags, ", "))
	}
	for _, issue := range res.Issues {
		if err := f.PrintWarning(issue); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n%s\n", res.Response)
	return err
}
