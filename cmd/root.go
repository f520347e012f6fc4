package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mathdrill",
	Short: "Math fact drills for kids",
	Long: "mathdrill is a terminal app for practicing arithmetic facts. It tracks which\n" +
		"facts are mastered or need practice, keeps a daily streak and awards badges.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// Execute runs the root command with ctx, which is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "SQLite path or postgres:// DSN (overrides MATHDRILL_DB env var)")
	pf.String("user", "", "Learner id; progress is saved only for a named learner (overrides MATHDRILL_USER)")
	pf.String("config", "", "Path to a YAML config file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves settings and applies the persistent flags on top,
// so --db and --user win over the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{File: file})
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DB = v
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.User = v
	}
	return cfg, nil
}

// resolveDB returns the configured DSN, or the default XDG path.
func resolveDB(cfg config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// requireUser rejects commands that only make sense for a named learner.
func requireUser(cfg config.Config) error {
	if cfg.User == "" {
		return fmt.Errorf("no learner selected: pass --user or set MATHDRILL_USER")
	}
	return nil
}
