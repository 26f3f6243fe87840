package main

import (
	"fmt"
	"text/tabwriter"

	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List detected displays and their brightness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, registry := discover()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tDISPLAY\tBRIGHTNESS\tMAX")
			for _, m := range registry.Snapshot() {
				fmt.Fprintf(w, "%d\t%s\t%d%%\t%s\n", m.Index, m.Label, m.Brightness, formatMax(m))
			}
			return w.Flush()
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <index>",
		Short: "Print the brightness of a display in percent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			_, registry := discover()
			m, ok := registry.Get(index)
			if !ok {
				return errors.New().WithData(monitor.ErrNotFound, index)
			}

			fmt.Fprintln(cmd.OutOrStdout(), m.Brightness)
			return nil
		},
	}
}

func formatMax(m monitor.Monitor) string {
	if m.Max == 0 {
		return "?"
	}
	return fmt.Sprint(m.Max)
}
