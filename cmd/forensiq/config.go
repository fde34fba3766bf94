package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the forensiq configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write a configuration file populated with the defaults",
	Long: `Write a configuration file holding every default, including the built-in
role table, ready for editing. PATH defaults to config.yaml in the forensiq
home directory. An existing file is only replaced with --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after defaults, the config file and FORENSIQ_* overrides are merged.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configFlags struct {
	force bool
}

func init() {
	configInitCmd.Flags().BoolVar(&configFlags.force, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		home := globalFlags.HomeDir
		if home == "" {
			home = os.Getenv("FORENSIQ_HOME")
		}
		if home == "" {
			home = config.DefaultHomeDir()
		}
		path = config.DefaultConfigPath(home)
	}

	if err := writeTemplate(path, configFlags.force); err != nil {
		return err
	}
	if globalFlags.IsQuiet() {
		return nil
	}
	return newFormatter(cmd).PrintSuccess("configuration written to " + path)
}

// writeTemplate writes config.Template to path, refusing to replace an
// existing file unless force is set.
func writeTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return internal.NewCLIError(internal.ExitConfigError, path+" already exists (use --force to overwrite)")
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return internal.WrapError(internal.ExitConfigError, "failed to check config file", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to create config directory", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to create config file", err)
	}
	if err := config.WriteYAML(file, config.Template()); err != nil {
		file.Close()
		return internal.WrapError(internal.ExitConfigError, "failed to write config file", err)
	}
	if err := file.Close(); err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to write config file", err)
	}
	return nil
}

// runConfigShow always prints YAML, the only format the loader reads.
func runConfigShow(cmd *cobra.Command, args []string) error {
	return config.WriteYAML(cmd.OutOrStdout(), currentConfig())
}
