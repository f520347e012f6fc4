package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a learner's practice history to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{})
		if err != nil {
			return err
		}
		defer svc.Close()
		if err := requireUser(svc.cfg); err != nil {
			return err
		}

		recs, err := svc.store.PerformanceRepo().ListPerformance(cmd.Context(), svc.cfg.User)
		if err != nil {
			return fmt.Errorf("list performance: %w", err)
		}

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = fmt.Sprintf("mathdrill-%s.xlsx", svc.cfg.User)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}

		err = export.Write(f, export.Data{
			UserID:      svc.cfg.User,
			GeneratedAt: time.Now(),
			Catalog:     svc.catalog,
			Records:     recs,
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d facts to %s\n", len(recs), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "Output path (default mathdrill-<user>.xlsx)")
}
