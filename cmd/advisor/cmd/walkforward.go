package cmd

import (
	"fmt"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/Heilo-qaq/ai-stock-advisor/strategies"
	"github.com/spf13/cobra"
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Validate a strategy with rolling train/test windows",
	Long: `Walkforward slides a train/test window across the data, re-fitting
the strategy on each training slice and scoring it out of sample. The
per-period spread of returns shows whether the in-sample edge survives.

Example:
  advisor walkforward -d data/ -s momentum --train 120 --test 30 --step 30`,
	RunE: runWalkForward,
}

var (
	wfDataDir    string
	wfConfigPath string
	wfStrategy   string
	wfTrain      int
	wfTest       int
	wfStep       int
)

func init() {
	rootCmd.AddCommand(walkforwardCmd)

	walkforwardCmd.Flags().StringVarP(&wfDataDir, "data", "d", "", "directory of per-instrument daily CSVs (required)")
	walkforwardCmd.Flags().StringVarP(&wfConfigPath, "config", "c", "", "path to YAML/JSON config")
	walkforwardCmd.Flags().StringVarP(&wfStrategy, "strategy", "s", "momentum", "strategy name ("+strategies.Names()+")")
	walkforwardCmd.Flags().IntVar(&wfTrain, "train", 120, "training window in trading days")
	walkforwardCmd.Flags().IntVar(&wfTest, "test", 30, "test window in trading days")
	walkforwardCmd.Flags().IntVar(&wfStep, "step", 30, "window advance in trading days")

	walkforwardCmd.MarkFlagRequired("data")
}

func runWalkForward(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(wfConfigPath)
	if err != nil {
		return err
	}

	data, err := market.LoadDir(wfDataDir)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	strat, err := strategies.ByName(wfStrategy, cfg)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(strat, data, cfg)
	res, err := engine.RunWalkForward(wfTrain, wfTest, wfStep)
	if err != nil {
		return err
	}

	fmt.Printf("Walk-Forward Validation: %s (train %d / test %d / step %d)\n\n",
		wfStrategy, wfTrain, wfTest, wfStep)
	fmt.Printf("%-12s %-12s %10s %8s %8s %7s\n",
		"Test Start", "Test End", "Return", "Sharpe", "MaxDD", "Trades")
	for _, p := range res.Periods {
		fmt.Printf("%-12s %-12s %9.2f%% %8.2f %7.2f%% %7d\n",
			p.TestStart.Format("2006-01-02"), p.TestEnd.Format("2006-01-02"),
			p.Return*100, p.Sharpe, p.MaxDrawdown*100, p.Trades)
	}

	fmt.Printf("\nPeriods: %d (%d positive)\n", len(res.Periods), res.PositivePeriods)
	fmt.Printf("Avg Return: %.2f%% (std %.2f%%)\n", res.AvgReturn*100, res.StdReturn*100)
	fmt.Printf("Avg Sharpe: %.2f\n", res.AvgSharpe)
	return nil
}
