package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.GetOutputFormat().Structured() {
			return newFormatter(cmd).PrintData(version.Info())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return err
	},
}
