package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List practice levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{})
		if err != nil {
			return err
		}
		defer svc.Close()

		var mastered map[string]bool
		if svc.cfg.User != "" {
			mastered, err = svc.tracker.MasteredKeys(cmd.Context(), svc.cfg.User)
			if err != nil {
				return fmt.Errorf("load mastery: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-14s  %-24s  %-3s  %-7s  %5s  %s\n", "ID", "Name", "Op", "Range", "Facts", "Mastered")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, l := range svc.catalog.All() {
			pct := "-"
			if mastered != nil {
				pct = fmt.Sprintf("%.0f%%", l.MasteryPercent(mastered))
			}
			fmt.Fprintf(out, "%-14s  %-24s  %-3s  %-7s  %5d  %s\n",
				l.ID, truncate(l.Name, 24), l.Operation.Symbol(),
				fmt.Sprintf("%d-%d", l.Min, l.Max), len(l.FactSpace()), pct)
		}
		return nil
	},
}
