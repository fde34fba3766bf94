package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zero-day-ai/forensiq/cmd/forensiq/internal"
	"github.com/zero-day-ai/forensiq/internal/app"
	"github.com/zero-day-ai/forensiq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "forensiq",
	Short: "forensiq - guarded AI assistant for digital forensic investigations",
	Long: `forensiq runs investigator queries through a guarded pipeline:
input guardrails, the investigation agent, then output guardrails.
Every decision is written to an append-only audit log.

Roles (admin, investigator, analyst, viewer) decide query length limits,
restricted topics, raw evidence visibility and report export.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// loadedConfig is the configuration resolved by setup.
var loadedConfig *config.Config

// appOptions are passed to app.New; tests use them to substitute the oracle.
var appOptions []app.Option

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// setup is called before any command runs to load the environment file
// and the configuration.
func setup(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	if err := loadEnvFile(cmd, flags.EnvFile); err != nil {
		return err
	}

	if flags.NoColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	if !needsConfig(cmd) {
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	loadedConfig = cfg
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default file is ignored.
func loadEnvFile(cmd *cobra.Command, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if cmd.Flags().Changed("env-file") {
			return internal.WrapError(internal.ExitConfigError, "environment file not found", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load environment file", err)
	}
	return nil
}

// needsConfig reports whether cmd reads the configuration. Commands that
// create it, and cobra's help and completion commands, run without one.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "init", cobra.ShellCompRequestCmd, "completion":
			return false
		}
	}
	return true
}

func loadConfig(flags *GlobalFlags) (*config.Config, error) {
	homeDir := flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("FORENSIQ_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}

	loader := config.NewConfigLoader(config.NewValidator())

	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = loader.Load(flags.ConfigFile)
	} else {
		cfg, err = loader.LoadWithDefaults(config.DefaultConfigPath(homeDir))
	}
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "failed to load config", err)
	}

	switch {
	case flags.IsVerbose():
		cfg.Logging.Level = "debug"
	case flags.IsQuiet():
		cfg.Logging.Level = "error"
	}
	return cfg, nil
}

// currentConfig returns the configuration loaded by setup, or the defaults
// when setup was skipped.
func currentConfig() *config.Config {
	if loadedConfig == nil {
		return config.DefaultConfig()
	}
	return loadedConfig
}

// openApp wires the components for a command. Callers must closeApp it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), currentConfig(), appOptions...)
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(context.WithoutCancel(cmd.Context())); err != nil && globalFlags.IsVerbose() {
		cmd.PrintErrln("Warning: shutdown:", err)
	}
}

func newFormatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(globalFlags.GetOutputFormat(), cmd.OutOrStdout())
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
