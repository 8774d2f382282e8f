package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "price-scout",
	Short: "Product extraction and price-comparison engine",
	Long:  "Extracts product data from retailer pages via layered heuristics, direct retailer APIs, and AI-assisted parsing, then synthesizes competitor price listings.",
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
