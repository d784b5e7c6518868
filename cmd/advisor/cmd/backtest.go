package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/internal/id"
	"github.com/Heilo-qaq/ai-stock-advisor/journal"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/Heilo-qaq/ai-stock-advisor/stats"
	"github.com/Heilo-qaq/ai-stock-advisor/strategies"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest over daily bar data",
	Long: `Backtest runs a strategy against daily OHLCV CSVs under A-share
market rules: T+1 settlement, price-limit halts and per-trade costs.

Supported strategies:
  - noop: does nothing (cost-model baseline)
  - open-once: buys each instrument once and holds
  - momentum: trailing-return ranking with breakout and trend filters

Example:
  advisor backtest -d data/ -s momentum --start 2023-01-01 --end 2024-12-31`,
	RunE: runBacktest,
}

var (
	btDataDir    string
	btConfigPath string
	btStrategy   string
	btStart      string
	btEnd        string
	btBenchmark  string
	btTradesOut  string
	btDBPath     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataDir, "data", "d", "", "directory of per-instrument daily CSVs (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to YAML/JSON config (default: built-in defaults)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "noop", "strategy name ("+strategies.Names()+")")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "first trading date, YYYY-MM-DD (default: first available)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "last trading date, YYYY-MM-DD (default: last available)")
	backtestCmd.Flags().StringVarP(&btBenchmark, "benchmark", "b", "", "CSV of benchmark index closes for alpha/beta stats")
	backtestCmd.Flags().StringVar(&btTradesOut, "trades", "", "write the trade log to this CSV path")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "record the run in this SQLite journal")

	backtestCmd.MarkFlagRequired("data")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return err
	}

	data, err := market.LoadDir(btDataDir)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	strat, err := strategies.ByName(btStrategy, cfg)
	if err != nil {
		return err
	}

	start, end, err := parseWindow(btStart, btEnd)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(strat, data, cfg)

	if btBenchmark != "" {
		bench, err := market.LoadCSV(btBenchmark, cfg.Backtest.Benchmark)
		if err != nil {
			return fmt.Errorf("load benchmark: %w", err)
		}
		engine.SetBenchmark(bench)
	}

	runID := id.New()
	jnl, err := openRunJournal(cfg, btDBPath, runID)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if jnl != nil {
		defer jnl.Close()
		engine.SetJournal(jnl)
		engine.SetRunID(runID)
	}

	fmt.Printf("Running backtest with strategy: %s\n", btStrategy)
	fmt.Printf("  Data: %s (%d instruments)\n\n", btDataDir, data.Len())

	res, err := engine.Run(start, end)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	stats.WriteReport(os.Stdout, res.Metrics)

	if sj, ok := jnl.(*journal.SQLiteJournal); ok {
		if err := recordRun(sj, res, btStrategy); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		fmt.Printf("\nRun %s journaled\n", res.RunID)
	}
	if btTradesOut != "" {
		if err := journal.ExportTrades(btTradesOut, res.Trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
		fmt.Printf("Trade log written to %s\n", btTradesOut)
	}
	return nil
}

// openRunJournal builds the journal a run persists into: an explicit --db
// flag wins, otherwise the journal block of the config decides. A nil
// journal means the run is not persisted.
func openRunJournal(cfg *config.Config, dbPath, runID string) (journal.Journal, error) {
	if dbPath == "" && cfg.Journal.Type == "sqlite" {
		dbPath = cfg.Journal.DBPath
	}
	if dbPath != "" {
		return journal.NewSQLite(dbPath, runID)
	}
	if cfg.Journal.Type == "csv" {
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}
	return nil, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = market.ParseDate(startStr); err != nil {
			return start, end, fmt.Errorf("bad start date %q: %w", startStr, err)
		}
	}
	if endStr != "" {
		if end, err = market.ParseDate(endStr); err != nil {
			return start, end, fmt.Errorf("bad end date %q: %w", endStr, err)
		}
	}
	return start, end, nil
}

func recordRun(sj *journal.SQLiteJournal, res *backtest.Result, strategy string) error {
	wins, losses := 0, 0
	for _, t := range res.Closed {
		if t.PnL > 0 {
			wins++
		} else {
			losses++
		}
	}
	return sj.RecordRun(journal.RunSummary{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Strategy:       strategy,
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.Summary.InitialCapital,
		FinalEquity:    res.Metrics.FinalEquity,
		TotalReturn:    res.Metrics.TotalReturn,
		MaxDrawdown:    res.Metrics.MaxDrawdown,
		Trades:         len(res.Closed),
		Wins:           wins,
		Losses:         losses,
	})
}
