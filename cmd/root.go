package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doutora-ia/questbank-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "questbank",
	Short: "Legal exam question bank builder",
	Long:  "Extracts multiple-choice questions from exam PDFs, text dumps, and legacy JSON exports, joins published answer keys, and deduplicates everything into one question bank.",
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
