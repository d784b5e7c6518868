package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "An A-share backtesting engine with exchange-accurate frictions",
	Long: `Advisor is a daily-bar backtesting engine for China A-share strategies.

It provides tools for:
  - Backtesting strategies under T+1 settlement and price-limit halts
  - Lot-level FIFO cost accounting with commission, stamp tax and slippage
  - Multi-level risk management (per-position stops, drawdown halt)
  - Volatility- and Kelly-based position sizing
  - Walk-forward validation and Monte Carlo trade resampling
  - Trade journals in CSV or SQLite

Complete documentation is available at https://github.com/Heilo-qaq/ai-stock-advisor`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
