package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/vehicle-select/internal/config"
	"github.com/WessleyAI/vehicle-select/internal/logging"
)

// Exit codes.
const (
	exitError   = 1
	exitUsage   = 2
	exitPartial = 3
	exitDiff    = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// app is populated by the root command before any subcommand runs.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cmd.PrintErrln("Error:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitError
}

func newRootCommand() *cobra.Command {
	var cfgFile string
	a := &app{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Build and manage vehicle selection catalogs",
		Long: `catalog resolves every model year against the NHTSA vPIC registry and
writes the filtered year -> make -> models tree as JSON or YAML. Catalog
files can be compared with diff and loaded into Neo4j with export.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}
			a.cfg = cfg
			a.log = logging.SetupWithWriter(cfg, cmd.ErrOrStderr())
			a.log.Debug("configuration loaded", "file", cfg.ConfigFile, "logLevel", cfg.LogLevel)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .vselect.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	cmd.AddCommand(
		newBuildCommand(a),
		newDiffCommand(a),
		newExportCommand(a),
		newStatsCommand(a),
		newQueryCommand(a),
	)
	return cmd
}
