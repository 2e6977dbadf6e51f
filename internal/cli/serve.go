package cli

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"macrorec/internal/app"
	"macrorec/internal/autostart"
	"macrorec/internal/osutils"
	"macrorec/internal/tray"
)

func newServeCmd(load configLoader, opts Options) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the recorder with its tray menu, hooks and API server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := load()
			if err != nil {
				return err
			}
			a := app.New(mgr, opts.appOptions()...)
			ctx := cmd.Context()
			if runtime.GOOS == "windows" && !osutils.IsAdmin() {
				log.Println("Warning: not elevated; input in administrator windows will not be recorded or replayed")
			}

			if headless {
				log.Println("macrorec running headless. Press Ctrl+C to stop.")
				return a.Run(ctx)
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			t := tray.New("macrorec", "macrorec")
			var loginID int
			loginID = t.AddMenuItem("Start at Login", func() {
				toggleAutostart()
				t.SetItemChecked(loginID, autostart.IsEnabled())
			})
			a.AttachMenu(t, t.Stop)
			go func() {
				<-t.Ready()
				t.SetItemChecked(loginID, autostart.IsEnabled())
			}()

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := a.Run(runCtx); err != nil {
					log.Printf("App: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				<-runCtx.Done()
				log.Println("Shutting down...")
				t.Stop()
			}()

			log.Println("macrorec running. Press Ctrl+C to stop.")
			t.Run()
			cancel()
			wg.Wait()
			return nil
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the tray icon")
	return cmd
}

func toggleAutostart() {
	var err error
	if autostart.IsEnabled() {
		err = autostart.Disable()
	} else {
		err = autostart.Enable()
	}
	if err != nil {
		log.Printf("Autostart: %v", err)
	}
}

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting macrorec serve at login",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Start macrorec serve at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := autostart.Enable(); err != nil {
					return fmt.Errorf("enable autostart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting macrorec at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := autostart.Disable(); err != nil {
					return fmt.Errorf("disable autostart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether autostart is enabled",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				state := "disabled"
				if autostart.IsEnabled() {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Autostart: %s\n", state)
			},
		},
	)
	return cmd
}
