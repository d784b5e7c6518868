package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// WriteReport prints a human-readable performance report.
func WriteReport(w io.Writer, m Metrics) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "            Backtest Performance Report")
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\nReturns")
	fmt.Fprintf(w, "  Total Return:      %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(w, "  Annual Return:     %.2f%%\n", m.AnnualReturn*100)
	fmt.Fprintf(w, "  Final Equity:      %.0f\n", m.FinalEquity)
	fmt.Fprintf(w, "  Trading Days:      %d\n", m.TradingDays)

	fmt.Fprintln(w, "\nRisk")
	fmt.Fprintf(w, "  Annual Volatility: %.2f%%\n", m.AnnualVolatility*100)
	fmt.Fprintf(w, "  Max Drawdown:      %.2f%%\n", m.MaxDrawdown*100)
	if m.MaxDrawdown > 0 {
		fmt.Fprintf(w, "  Drawdown Window:   %s -> %s (%d days)\n",
			m.MaxDrawdownStart.Format("2006-01-02"),
			m.MaxDrawdownEnd.Format("2006-01-02"),
			m.MaxDrawdownDays)
	}
	fmt.Fprintf(w, "  Best Day:          %.2f%%\n", m.BestDay*100)
	fmt.Fprintf(w, "  Worst Day:         %.2f%%\n", m.WorstDay*100)

	fmt.Fprintln(w, "\nRisk-Adjusted")
	fmt.Fprintf(w, "  Sharpe Ratio:      %.3f\n", m.Sharpe)
	fmt.Fprintf(w, "  Sortino Ratio:     %.3f\n", m.Sortino)
	fmt.Fprintf(w, "  Calmar Ratio:      %.3f\n", m.Calmar)

	if m.Trades != nil {
		ts := m.Trades
		fmt.Fprintln(w, "\nTrades")
		fmt.Fprintf(w, "  Closed Trades:     %d\n", ts.Total)
		fmt.Fprintf(w, "  Win Rate:          %.1f%%\n", ts.WinRate*100)
		fmt.Fprintf(w, "  Avg Win:           %.2f%%\n", ts.AvgWin*100)
		fmt.Fprintf(w, "  Avg Loss:          %.2f%%\n", ts.AvgLoss*100)
		if math.IsInf(ts.ProfitFactor, 1) {
			fmt.Fprintf(w, "  Profit Factor:     inf\n")
		} else {
			fmt.Fprintf(w, "  Profit Factor:     %.2f\n", ts.ProfitFactor)
		}
		fmt.Fprintf(w, "  Expectancy:        %.2f%%\n", ts.Expectancy*100)
		fmt.Fprintf(w, "  Avg Hold:          %.1f days\n", ts.AvgHoldDays)
		fmt.Fprintf(w, "  Longest Streaks:   %d wins / %d losses\n", ts.MaxWinStreak, ts.MaxLossStreak)
	}

	if m.Benchmark != nil {
		bm := m.Benchmark
		fmt.Fprintln(w, "\nBenchmark")
		fmt.Fprintf(w, "  Alpha:             %.2f%%\n", bm.Alpha*100)
		fmt.Fprintf(w, "  Beta:              %.3f\n", bm.Beta)
		fmt.Fprintf(w, "  Tracking Error:    %.2f%%\n", bm.TrackingError*100)
		fmt.Fprintf(w, "  Information Ratio: %.3f\n", bm.InformationRatio)
		fmt.Fprintf(w, "  Excess Return:     %.2f%%\n", bm.ExcessReturn*100)
	}

	if len(m.Yearly) > 0 {
		fmt.Fprintln(w, "\nYearly Returns")
		for _, y := range m.Yearly {
			fmt.Fprintf(w, "  %d: %+.2f%%\n", y.Year, y.Return*100)
		}
	}

	fmt.Fprintln(w, "\n"+rule)
}
