package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/screenwise/internal/config"
	"github.com/abhisek/screenwise/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "screenwise",
	Short: "Adaptive learning-difficulty screening",
	Long: "Screenwise runs short adaptive question sessions and flags possible dyslexia-,\n" +
		"dyscalculia- or attention-related risk from how a learner answers.\n\n" +
		"It is a screening aid, not a diagnosis.",
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return writeMetrics(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SCREENWISE_DB and config)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (overrides SCREENWISE_CONFIG)")
	rootCmd.PersistentFlags().String("metrics", "", "Write prometheus metrics to this file on exit")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (SCREENWISE_DB or the config file), then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// writeMetrics dumps the registry of the last runtime opened by the command.
func writeMetrics(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("metrics")
	if path == "" || lastRuntime == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()
	return lastRuntime.metrics.WriteText(f)
}
