package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/treasury-audit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "treasury-audit",
	Short: "Reconcile configured treasury metrics against authoritative sources",
	Long:  "Verifies configured company metrics (holdings, burn rate, shares, staking yield, offering terms) against ranked authoritative sources and reports drift, errors, and stale data.",
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
