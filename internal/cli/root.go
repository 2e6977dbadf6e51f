// Package cli implements the macrorec command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"macrorec/internal/config"
	"macrorec/internal/input"
	"macrorec/internal/recorder"
)

// Version is set at build time with -ldflags "-X macrorec/internal/cli.Version=...".
var Version = "dev"

// Options overrides the platform input backends. Zero values use the
// platform hooks and SendInput.
type Options struct {
	Capture       recorder.CaptureFactory
	HotkeyCapture recorder.CaptureFactory
	Injector      input.Injector
}

// Execute runs the command line with the platform backends.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "macrorec",
		Short: "Record and replay keyboard and mouse macros",
	}
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (json, yaml or toml); defaults to the per-user config")

	loadConfig := func() (*config.Manager, error) {
		var mgr *config.Manager
		if configPath != "" {
			mgr = config.NewManagerAt(configPath)
		} else {
			var err error
			mgr, err = config.NewManager()
			if err != nil {
				return nil, fmt.Errorf("resolve config directory: %w", err)
			}
		}
		if err := mgr.Load(); err != nil {
			return nil, err
		}
		return mgr, nil
	}

	rootCmd.AddCommand(
		newServeCmd(loadConfig, opts),
		newPlayCmd(loadConfig, opts),
		newRecordCmd(loadConfig, opts),
		newValidateCmd(),
		newInfoCmd(),
		newWatchCmd(loadConfig),
		newAutostartCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print macrorec build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "macrorec %s\n", Version)
		},
	}
}
