package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"macrorec/internal/recorder"
)

func newRecordCmd(load configLoader, opts Options) *cobra.Command {
	var (
		duration time.Duration
		name     string
	)

	cmd := &cobra.Command{
		Use:     "record <file>",
		Aliases: []string{"r"},
		Short:   "Record a new section into a macro file",
		Long: "Record keyboard and mouse input into a new section appended to <file>.\n" +
			"Recording stops on Ctrl+C or when --duration elapses, then the file is saved.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration < 0 {
				return errors.New("duration cannot be negative")
			}
			a, err := headlessApp(load, args[0], opts)
			if err != nil {
				return err
			}
			if err := a.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			stopPump := pump(cmd.Context(), a.Core().Notifier(), recorder.Sinks(nil))
			defer stopPump()

			core := a.Core()
			section := core.AddSection(name)
			if err := a.StartRecording(section); err != nil {
				return fmt.Errorf("start recording: %w", err)
			}
			title := core.Snapshot().Sections[section].Name
			if duration > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Recording into %q for %s. Press Ctrl+C to stop early.\n", title, duration)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Recording into %q. Press Ctrl+C to stop.\n", title)
			}

			var timeout <-chan time.Time
			if duration > 0 {
				timer := time.NewTimer(duration)
				defer timer.Stop()
				timeout = timer.C
			}
			select {
			case <-cmd.Context().Done():
			case <-timeout:
			}
			a.StopRecording()

			if err := a.Save(); err != nil {
				return fmt.Errorf("save macro: %w", err)
			}
			snap := core.Snapshot()
			steps := 0
			if snap.ValidSection(section) {
				steps = len(snap.Sections[section].Steps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d step(s) to %s\n", steps, args[0])
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop recording after this long (for example: 30s)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Section name; defaults to the next numbered name")
	return cmd
}
