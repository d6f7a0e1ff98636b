// Package main provides the interpeer management CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/terminal"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if !terminal.IsStderrTTY() {
		terminal.DisableColors()
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, config.OSLookup))
}

// app carries the streams and environment shared by every subcommand.
type app struct {
	stdout      io.Writer
	logger      *terminal.Logger
	lookup      config.LookupFunc
	projectRoot string
}

func (a *app) root() (string, error) {
	root, err := filepath.Abs(a.projectRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	return root, nil
}

func (a *app) store() (*config.Store, error) {
	root, err := a.root()
	if err != nil {
		return nil, err
	}
	return config.NewStore(root, a.lookup), nil
}

func run(args []string, stdout, stderr io.Writer, lookup config.LookupFunc) int {
	a := &app{
		stdout: stdout,
		logger: terminal.NewLoggerTo(stderr),
		lookup: lookup,
	}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := checkDuplicateFlags(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return domain.ExitUsage.Int()
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
			return domain.ExitUsage.Int()
		}
		return domain.ExitError.Int()
	}
	return domain.ExitOK.Int()
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "interpeer",
		Short: "Manage interpeer review agents",
		Long: `Inspect and edit the interpeer configuration for a project.

The configuration lives in .interpeer/interpeer.config.json under the project
root (INTERPEER_CONFIG_PATH overrides). Environment variables are applied on
top of the file when resolving.

Exit codes:
  0 - Success
  1 - Error
  2 - Invalid usage`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&a.projectRoot, "project-root", ".",
		"Project root containing the .interpeer directory")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(
		newListCmd(a),
		newListAgentsCmd(a),
		newSetDefaultCmd(a),
		newSetAgentCmd(a),
		newAddAgentCmd(a),
		newRemoveAgentCmd(a),
	)
	return rootCmd
}
