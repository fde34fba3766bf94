package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
	EnvFile      string
	NoColor      bool
}

var globalFlags = &GlobalFlags{}

var outputFormats = []string{string(internal.FormatText), string(internal.FormatJSON), string(internal.FormatYAML)}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: $FORENSIQ_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&globalFlags.HomeDir, "home", "", "forensiq home directory (default: ~/.forensiq)")
	cmd.PersistentFlags().StringVar(&globalFlags.EnvFile, "env-file", ".env", "Environment file loaded before the config, if present")
	cmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "Disable coloured output")
}

// ParseGlobalFlags validates the global flags.
func ParseGlobalFlags(cmd *cobra.Command) (*GlobalFlags, error) {
	if !slices.Contains(outputFormats, globalFlags.OutputFormat) {
		return nil, internal.NewCLIError(internal.ExitError,
			fmt.Sprintf("invalid --output %q (must be one of: text, json, yaml)", globalFlags.OutputFormat))
	}

	if globalFlags.Verbose && globalFlags.Quiet {
		return nil, internal.NewCLIError(internal.ExitError, "--verbose and --quiet cannot be used together")
	}

	return globalFlags, nil
}

// GetOutputFormat returns the parsed OutputFormat enum
func (f *GlobalFlags) GetOutputFormat() internal.OutputFormat {
	return internal.OutputFormat(f.OutputFormat)
}

// IsVerbose returns true if verbose mode is enabled
func (f *GlobalFlags) IsVerbose() bool {
	return f.Verbose && !f.Quiet
}

// IsQuiet returns true if quiet mode is enabled
func (f *GlobalFlags) IsQuiet() bool {
	return f.Quiet
}
