package backtest

import (
	"fmt"
	"math/rand"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/stats"
)

// MonteCarloResult is the distribution of terminal returns and drawdowns
// across resampled trade orderings.
type MonteCarloResult struct {
	Runs   int
	Trades int

	MeanReturn   float64
	MedianReturn float64
	StdReturn    float64
	Pct5         float64
	Pct25        float64
	Pct75        float64
	Pct95        float64
	ProbPositive float64

	MeanMaxDrawdown   float64
	MedianMaxDrawdown float64
	Pct95MaxDrawdown  float64
}

// MonteCarlo resamples the closed-trade return sequence with replacement n
// times and compounds each resample into a synthetic equity path. It answers
// how sensitive the realized result is to trade ordering and selection.
func MonteCarlo(trades []broker.TradeRecord, n int, rng *rand.Rand) (*MonteCarloResult, error) {
	var pnlPcts []float64
	for _, t := range trades {
		if t.Side == broker.Sell {
			pnlPcts = append(pnlPcts, t.PnLPct)
		}
	}
	if len(pnlPcts) == 0 {
		return nil, fmt.Errorf("montecarlo: no closed trades to resample")
	}
	if n <= 0 {
		n = 1000
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	finals := make([]float64, n)
	maxDDs := make([]float64, n)
	positive := 0
	for i := 0; i < n; i++ {
		equity := 1.0
		peak := 1.0
		maxDD := 0.0
		for j := 0; j < len(pnlPcts); j++ {
			equity *= 1 + pnlPcts[rng.Intn(len(pnlPcts))]
			if equity > peak {
				peak = equity
			}
			if dd := (peak - equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
		finals[i] = equity - 1
		maxDDs[i] = maxDD
		if finals[i] > 0 {
			positive++
		}
	}

	return &MonteCarloResult{
		Runs:   n,
		Trades: len(pnlPcts),

		MeanReturn:   stats.Mean(finals),
		MedianReturn: stats.Median(finals),
		StdReturn:    stats.Stddev(finals),
		Pct5:         stats.Percentile(finals, 5),
		Pct25:        stats.Percentile(finals, 25),
		Pct75:        stats.Percentile(finals, 75),
		Pct95:        stats.Percentile(finals, 95),
		ProbPositive: float64(positive) / float64(n),

		MeanMaxDrawdown:   stats.Mean(maxDDs),
		MedianMaxDrawdown: stats.Median(maxDDs),
		Pct95MaxDrawdown:  stats.Percentile(maxDDs, 95),
	}, nil
}
