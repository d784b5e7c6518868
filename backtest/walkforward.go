package backtest

import (
	"fmt"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/stats"
)

// WalkForwardPeriod is the out-of-sample outcome of one rolling window.
type WalkForwardPeriod struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time

	Return      float64
	Sharpe      float64
	MaxDrawdown float64
	Trades      int
}

// WalkForwardResult aggregates all out-of-sample periods.
type WalkForwardResult struct {
	Periods []WalkForwardPeriod

	AvgReturn       float64
	StdReturn       float64
	AvgSharpe       float64
	PositivePeriods int
}

// RunWalkForward slides a train/test window across the dataset in steps of
// step trading days. Strategies implementing Optimizer are re-fit on each
// train slice before the out-of-sample run. Window sizes are in trading
// days; a window wider than the data is an error.
func (e *Engine) RunWalkForward(train, test, step int) (*WalkForwardResult, error) {
	if train <= 0 || test <= 0 || step <= 0 {
		return nil, fmt.Errorf("walkforward: train, test and step must be positive")
	}
	if e.data == nil || e.data.Len() == 0 {
		return nil, fmt.Errorf("walkforward: no instrument data supplied")
	}

	dates := e.data.TradingDates()
	if train+test > len(dates) {
		return nil, fmt.Errorf("walkforward: window %d+%d exceeds %d available dates",
			train, test, len(dates))
	}

	res := &WalkForwardResult{}
	for off := 0; off+train+test <= len(dates); off += step {
		trainStart := dates[off]
		trainEnd := dates[off+train-1]
		testStart := dates[off+train]
		testEnd := dates[off+train+test-1]

		if opt, ok := e.strategy.(Optimizer); ok {
			if err := opt.Optimize(e.data.Window(trainStart, trainEnd)); err != nil {
				return nil, fmt.Errorf("walkforward: optimize %s..%s: %w",
					trainStart.Format("2006-01-02"), trainEnd.Format("2006-01-02"), err)
			}
		}

		run, err := e.Run(testStart, testEnd)
		if err != nil {
			return nil, fmt.Errorf("walkforward: test %s..%s: %w",
				testStart.Format("2006-01-02"), testEnd.Format("2006-01-02"), err)
		}

		res.Periods = append(res.Periods, WalkForwardPeriod{
			TrainStart:  trainStart,
			TrainEnd:    trainEnd,
			TestStart:   testStart,
			TestEnd:     testEnd,
			Return:      run.Metrics.TotalReturn,
			Sharpe:      run.Metrics.Sharpe,
			MaxDrawdown: run.Metrics.MaxDrawdown,
			Trades:      len(run.Closed),
		})
	}

	summarizeWalkForward(res)
	return res, nil
}

func summarizeWalkForward(res *WalkForwardResult) {
	if len(res.Periods) == 0 {
		return
	}
	returns := make([]float64, len(res.Periods))
	for i, p := range res.Periods {
		returns[i] = p.Return
		res.AvgSharpe += p.Sharpe
		if p.Return > 0 {
			res.PositivePeriods++
		}
	}
	res.AvgReturn = stats.Mean(returns)
	res.StdReturn = stats.Stddev(returns)
	res.AvgSharpe /= float64(len(res.Periods))
}
