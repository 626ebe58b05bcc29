package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lineupscout/festival-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "festival-cli",
	Short: "Festival research and CRM pipeline",
	Long:  "Researches festival organizers across the open web: official sites, company registries, LinkedIn, news, and festival calendars, with confidence-scored results persisted per festival.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
