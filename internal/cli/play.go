package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"macrorec/internal/app"
	"macrorec/internal/protocol"
	"macrorec/internal/recorder"
)

// progressSink prints replay positions.
type progressSink struct {
	w io.Writer
}

func (p progressSink) StructureChanged() {}

func (p progressSink) PlaybackPosition(section, step int, entering bool) {
	if !entering {
		return
	}
	if step < 0 {
		fmt.Fprintf(p.w, "gap after section %d\n", section+1)
		return
	}
	fmt.Fprintf(p.w, "section %d step %d\n", section+1, step+1)
}

// pump runs the core's notifier until the returned stop function is called.
func pump(ctx context.Context, n *recorder.Notifier, sink recorder.Sink) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.Run(ctx, sink)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func newPlayCmd(load configLoader, opts Options) *cobra.Command {
	var progress bool

	cmd := &cobra.Command{
		Use:     "play <file>",
		Aliases: []string{"p"},
		Short:   "Replay a macro file; the interrupt hotkey stops it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := headlessApp(load, args[0], opts)
			if err != nil {
				return err
			}
			if err := a.Load(); err != nil {
				return err
			}

			var sink recorder.Sink = recorder.Sinks(nil)
			if progress {
				sink = progressSink{w: cmd.ErrOrStderr()}
			}
			stopPump := pump(cmd.Context(), a.Core().Notifier(), sink)
			defer stopPump()

			results, err := a.StartPlayback()
			if err != nil {
				return fmt.Errorf("start replay: %w", err)
			}
			st := a.Status()
			stopKey := a.InterruptHotkey()
			if stopKey == "" {
				stopKey = "Ctrl+C"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playing %d section(s), %d step(s). Press %s to stop.\n",
				st.Sections, st.Steps, stopKey)

			select {
			case res := <-results:
				return reportPlayback(cmd, res)
			case <-cmd.Context().Done():
				a.StopPlayback()
				return reportPlayback(cmd, <-results)
			}
		},
	}

	cmd.Flags().BoolVarP(&progress, "progress", "p", false, "Print each step to stderr as it is replayed")
	return cmd
}

func reportPlayback(cmd *cobra.Command, r app.PlaybackResult) error {
	switch r.State() {
	case protocol.PlaybackFailed:
		return fmt.Errorf("replay failed: %w", r.Err)
	case protocol.PlaybackInterrupted:
		fmt.Fprintln(cmd.OutOrStdout(), "Replay interrupted")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Replay finished")
	}
	return nil
}
