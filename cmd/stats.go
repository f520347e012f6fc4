package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/badges"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streak, goal, badges and mastery for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{})
		if err != nil {
			return err
		}
		defer svc.Close()
		if err := requireUser(svc.cfg); err != nil {
			return err
		}

		ov, err := svc.progress.Load(cmd.Context(), svc.cfg.User, time.Now())
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ov)
		}
		printOverview(out, ov)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the overview as JSON")
}

func printOverview(w io.Writer, ov *progress.Overview) {
	sep := strings.Repeat("─", 48)

	fmt.Fprintf(w, "Learner:   %s\n", ov.UserID)
	fmt.Fprintf(w, "Streak:    %d days (best %d, next milestone %d)\n",
		ov.Streak.Current, ov.Streak.Longest, ov.Streak.NextMilestone)
	goal := fmt.Sprintf("%d/%d sessions", ov.Goal.Current, ov.Goal.Target)
	if ov.Goal.Completed() {
		goal += ", reached"
	}
	fmt.Fprintf(w, "Today:     %s\n", goal)
	fmt.Fprintf(w, "Answers:   %d (%.0f%% correct), %d facts seen, %d mastered\n",
		ov.Totals.Attempts, ov.Totals.Accuracy*100, ov.Totals.Facts, ov.Totals.Mastered)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Levels")
	fmt.Fprintln(w, sep)
	for _, lp := range ov.Levels {
		fmt.Fprintf(w, "%-24s  %4d/%-4d  %3.0f%%\n", lp.Level.Name, lp.Mastered, lp.Total, lp.Percent)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Badges")
	fmt.Fprintln(w, sep)
	for _, b := range ov.Badges {
		fmt.Fprintln(w, badgeLine(b))
	}

	if len(ov.Struggling) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Needs practice")
		fmt.Fprintln(w, sep)
		for _, r := range ov.Struggling {
			fmt.Fprintln(w, strugglingLine(r))
		}
	}
}

func badgeLine(b badges.Badge) string {
	mark := " "
	if b.Completed {
		mark = "✓"
	}
	line := fmt.Sprintf("%s %s %-20s %s", mark, badges.Glyph(b.Icon), b.Name, b.Description)
	if !b.Completed && b.Progress != nil {
		line += fmt.Sprintf(" (%d/%d)", b.Progress.Current, b.Progress.Total)
	}
	return line
}

func strugglingLine(r mastery.Record) string {
	return fmt.Sprintf("  %s = %d   %d wrong in a row", r.Fact, r.Answer, r.ConsecutiveIncorrect)
}
