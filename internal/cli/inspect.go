package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"macrorec/internal/macro"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a macro file against the macro JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read macro: %w", err)
			}
			if err := macro.Validate(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize the sections, steps and timing of a macro file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read macro: %w", err)
			}
			m, err := macro.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSECTION\tSTEPS\tDURATION\tGAP AFTER")
			for i, s := range m.Sections {
				one := macro.Macro{Sections: []macro.Section{s}}
				gap := "-"
				if i < len(m.Gaps) {
					gap = fmt.Sprintf("%dms", m.Gaps[i])
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", i+1, s.Name, len(s.Steps), one.TotalDuration(), gap)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d section(s), %d step(s), %s\n",
				len(m.Sections), m.StepCount(), m.TotalDuration())
			return nil
		},
	}
}
