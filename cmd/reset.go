package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's progress, streak, badges and goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{})
		if err != nil {
			return err
		}
		defer svc.Close()
		if err := requireUser(svc.cfg); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !yes {
			fmt.Fprintf(out, "Delete all progress for %q? [y/N] ", svc.cfg.User)
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if ans := strings.ToLower(strings.TrimSpace(line)); ans != "y" && ans != "yes" {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		if err := svc.store.Reset(cmd.Context(), svc.cfg.User); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		svc.log.Info("learner data reset", "user", svc.cfg.User)
		fmt.Fprintf(out, "Progress for %q deleted.\n", svc.cfg.User)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
