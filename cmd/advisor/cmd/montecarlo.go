package cmd

import (
	"fmt"
	"math/rand"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/journal"
	"github.com/spf13/cobra"
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Resample a trade log to estimate outcome dispersion",
	Long: `Montecarlo bootstraps the closed-trade returns of a previous run:
the per-trade P/L percentages are resampled with replacement and compounded
into synthetic equity paths, giving a distribution of terminal returns and
drawdowns rather than the single realized one.

The trade log is the CSV written by "advisor backtest --trades".

Example:
  advisor montecarlo --trades trades.csv -n 2000`,
	RunE: runMonteCarlo,
}

var (
	mcTradesPath string
	mcRuns       int
	mcSeed       int64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	montecarloCmd.Flags().StringVar(&mcTradesPath, "trades", "", "path to trade-log CSV (required)")
	montecarloCmd.Flags().IntVarP(&mcRuns, "runs", "n", 1000, "number of resampled paths")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "RNG seed (0 = fixed default)")

	montecarloCmd.MarkFlagRequired("trades")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	trades, err := journal.ReadTrades(mcTradesPath)
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}

	var rng *rand.Rand
	if mcSeed != 0 {
		rng = rand.New(rand.NewSource(mcSeed))
	}

	res, err := backtest.MonteCarlo(trades, mcRuns, rng)
	if err != nil {
		return err
	}

	fmt.Printf("Monte Carlo: %d paths over %d closed trades\n\n", res.Runs, res.Trades)
	fmt.Printf("Terminal Return\n")
	fmt.Printf("  Mean:   %8.2f%%   Median: %8.2f%%   Std: %7.2f%%\n",
		res.MeanReturn*100, res.MedianReturn*100, res.StdReturn*100)
	fmt.Printf("  5th:    %8.2f%%   25th:   %8.2f%%\n", res.Pct5*100, res.Pct25*100)
	fmt.Printf("  75th:   %8.2f%%   95th:   %8.2f%%\n", res.Pct75*100, res.Pct95*100)
	fmt.Printf("  P(positive): %.1f%%\n\n", res.ProbPositive*100)
	fmt.Printf("Max Drawdown\n")
	fmt.Printf("  Mean:   %8.2f%%   Median: %8.2f%%   95th: %7.2f%%\n",
		res.MeanMaxDrawdown*100, res.MedianMaxDrawdown*100, res.Pct95MaxDrawdown*100)
	return nil
}
