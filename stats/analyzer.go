// Package stats turns an equity trajectory and closed-trade log into
// performance, risk and benchmark-relative metrics.
package stats

import (
	"math"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
)

const tradingDaysPerYear = 252

// Metrics is the full performance report of one run. Degenerate inputs
// (flat curves, zero trades, short benchmarks) yield zero-valued ratios and
// omitted optional blocks rather than errors.
type Metrics struct {
	TotalReturn  float64
	AnnualReturn float64
	TradingDays  int
	FinalEquity  float64

	AnnualVolatility float64
	MaxDrawdown      float64
	MaxDrawdownStart time.Time
	MaxDrawdownEnd   time.Time
	MaxDrawdownDays  int

	Sharpe  float64
	Sortino float64
	Calmar  float64

	Skewness     float64
	Kurtosis     float64
	BestDay      float64
	WorstDay     float64
	PositiveDays float64

	Monthly []MonthlyReturn
	Yearly  []YearlyReturn

	Trades    *TradeStats
	Benchmark *BenchmarkStats
}

// MonthlyReturn is one cell of the month-by-year return table.
type MonthlyReturn struct {
	Year   int
	Month  time.Month
	Return float64
}

// YearlyReturn is one row of the year-by-year return table.
type YearlyReturn struct {
	Year   int
	Return float64
}

// TradeStats summarizes the closed-trade log.
type TradeStats struct {
	Total         int
	WinRate       float64
	AvgWin        float64 // mean winning return
	AvgLoss       float64 // mean losing return, reported positive
	ProfitFactor  float64
	Expectancy    float64
	AvgHoldDays   float64
	MaxWinStreak  int
	MaxLossStreak int
}

// BenchmarkStats is the benchmark-relative block, present only when the
// two series share at least ten dates.
type BenchmarkStats struct {
	Alpha            float64
	Beta             float64
	TrackingError    float64
	InformationRatio float64
	BenchmarkReturn  float64
	ExcessReturn     float64
}

// Analyzer computes metrics against a configurable annual risk-free rate.
type Analyzer struct {
	RiskFreeRate float64
}

func NewAnalyzer(riskFreeRate float64) *Analyzer {
	return &Analyzer{RiskFreeRate: riskFreeRate}
}

// Analyze computes the full metric set. trades and benchmark are optional;
// a curve shorter than two points yields an empty report.
func (a *Analyzer) Analyze(curve Curve, trades []broker.TradeRecord, benchmark Curve) Metrics {
	if len(curve) < 2 {
		return Metrics{TradingDays: len(curve), FinalEquity: curve.Final()}
	}

	returns := curve.Returns()
	totalReturn := curve.Final()/curve.First() - 1
	dd := MaxDrawdown(curve)
	annual := AnnualReturn(totalReturn, len(curve))

	m := Metrics{
		TotalReturn:  totalReturn,
		AnnualReturn: annual,
		TradingDays:  len(curve),
		FinalEquity:  curve.Final(),

		AnnualVolatility: Stddev(returns) * math.Sqrt(tradingDaysPerYear),
		MaxDrawdown:      dd.Max,
		MaxDrawdownStart: dd.Start,
		MaxDrawdownEnd:   dd.End,
		MaxDrawdownDays:  dd.Days,

		Sharpe:  a.Sharpe(returns),
		Sortino: a.Sortino(returns),
		Calmar:  Calmar(annual, dd.Max),

		Skewness: skewness(returns),
		Kurtosis: kurtosis(returns),

		Monthly: monthlyReturns(curve),
		Yearly:  yearlyReturns(curve),
	}

	best, worst, positive := math.Inf(-1), math.Inf(1), 0
	for _, r := range returns {
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
		if r > 0 {
			positive++
		}
	}
	m.BestDay = best
	m.WorstDay = worst
	m.PositiveDays = float64(positive) / float64(len(returns))

	if len(trades) > 0 {
		ts := AnalyzeTrades(trades)
		m.Trades = &ts
	}
	if b := a.benchmarkStats(curve, benchmark); b != nil {
		m.Benchmark = b
	}
	return m
}

// AnnualReturn compounds a total return to a 252-trading-day year.
func AnnualReturn(totalReturn float64, days int) float64 {
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(days)) - 1
}

// Sharpe is the annualized mean excess daily return over its standard
// deviation. Flat or too-short series yield zero.
func (a *Analyzer) Sharpe(returns []float64) float64 {
	if len(returns) < 2 || Stddev(returns) == 0 {
		return 0
	}
	dailyRF := math.Pow(1+a.RiskFreeRate, 1.0/tradingDaysPerYear) - 1
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}
	return math.Sqrt(tradingDaysPerYear) * Mean(excess) / Stddev(excess)
}

// Sortino divides the same numerator by downside-only deviation.
func (a *Analyzer) Sortino(returns []float64) float64 {
	dailyRF := math.Pow(1+a.RiskFreeRate, 1.0/tradingDaysPerYear) - 1
	excess := make([]float64, len(returns))
	var downside []float64
	for i, r := range returns {
		excess[i] = r - dailyRF
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 || Stddev(downside) == 0 {
		return 0
	}
	return math.Sqrt(tradingDaysPerYear) * Mean(excess) / Stddev(downside)
}

// Calmar is annualized return over maximum drawdown.
func Calmar(annualReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return annualReturn / maxDrawdown
}

// AnalyzeTrades computes win/loss statistics from the closed-trade log.
// Trades with zero P&L count as losses.
func AnalyzeTrades(trades []broker.TradeRecord) TradeStats {
	ts := TradeStats{Total: len(trades)}
	if len(trades) == 0 {
		return ts
	}

	var winPcts, lossPcts []float64
	grossWin, grossLoss := 0.0, 0.0
	holdSum := 0.0
	winStreak, lossStreak := 0, 0
	for _, t := range trades {
		holdSum += float64(t.HoldDays)
		if t.PnL > 0 {
			winPcts = append(winPcts, t.PnLPct)
			grossWin += t.PnL
			winStreak++
			lossStreak = 0
			if winStreak > ts.MaxWinStreak {
				ts.MaxWinStreak = winStreak
			}
		} else {
			lossPcts = append(lossPcts, t.PnLPct)
			grossLoss += -t.PnL
			lossStreak++
			winStreak = 0
			if lossStreak > ts.MaxLossStreak {
				ts.MaxLossStreak = lossStreak
			}
		}
	}

	ts.WinRate = float64(len(winPcts)) / float64(len(trades))
	ts.AvgWin = Mean(winPcts)
	ts.AvgLoss = math.Abs(Mean(lossPcts))
	if grossLoss > 0 {
		ts.ProfitFactor = grossWin / grossLoss
	} else {
		ts.ProfitFactor = math.Inf(1)
	}
	ts.Expectancy = ts.WinRate*ts.AvgWin - (1-ts.WinRate)*ts.AvgLoss
	ts.AvgHoldDays = holdSum / float64(len(trades))
	return ts
}

// benchmarkStats aligns the two return series on shared dates and computes
// the benchmark-relative block. Fewer than ten shared dates omits the block.
func (a *Analyzer) benchmarkStats(curve, benchmark Curve) *BenchmarkStats {
	if len(benchmark) < 2 {
		return nil
	}

	stratRet := returnsByDate(curve)
	benchRet := returnsByDate(benchmark)

	var s, b []float64
	for _, p := range curve[1:] {
		br, ok := benchRet[p.Date]
		if !ok {
			continue
		}
		s = append(s, stratRet[p.Date])
		b = append(b, br)
	}
	if len(s) < 10 {
		return nil
	}

	varB := 0.0
	cov := 0.0
	meanS, meanB := Mean(s), Mean(b)
	for i := range s {
		cov += (s[i] - meanS) * (b[i] - meanB)
		varB += (b[i] - meanB) * (b[i] - meanB)
	}
	cov /= float64(len(s) - 1)
	varB /= float64(len(s) - 1)

	beta := 0.0
	if varB != 0 {
		beta = cov / varB
	}
	alpha := (meanS - beta*meanB) * tradingDaysPerYear

	excess := make([]float64, len(s))
	for i := range s {
		excess[i] = s[i] - b[i]
	}
	te := Stddev(excess) * math.Sqrt(tradingDaysPerYear)
	ir := 0.0
	if te > 0 {
		ir = Mean(excess) * tradingDaysPerYear / te
	}

	benchTotal := benchmark.Final()/benchmark.First() - 1
	stratTotal := curve.Final()/curve.First() - 1

	return &BenchmarkStats{
		Alpha:            alpha,
		Beta:             beta,
		TrackingError:    te,
		InformationRatio: ir,
		BenchmarkReturn:  benchTotal,
		ExcessReturn:     stratTotal - benchTotal,
	}
}

func returnsByDate(c Curve) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(c))
	for i := 1; i < len(c); i++ {
		if c[i-1].Value == 0 {
			out[c[i].Date] = 0
			continue
		}
		out[c[i].Date] = c[i].Value/c[i-1].Value - 1
	}
	return out
}

// monthlyReturns compounds month-end to month-end equity values.
func monthlyReturns(curve Curve) []MonthlyReturn {
	type ym struct {
		year  int
		month time.Month
	}
	var order []ym
	last := make(map[ym]float64)
	for _, p := range curve {
		k := ym{p.Date.Year(), p.Date.Month()}
		if _, ok := last[k]; !ok {
			order = append(order, k)
		}
		last[k] = p.Value
	}

	var out []MonthlyReturn
	for i := 1; i < len(order); i++ {
		prev := last[order[i-1]]
		if prev == 0 {
			continue
		}
		out = append(out, MonthlyReturn{
			Year:   order[i].year,
			Month:  order[i].month,
			Return: last[order[i]]/prev - 1,
		})
	}
	return out
}

func yearlyReturns(curve Curve) []YearlyReturn {
	var order []int
	last := make(map[int]float64)
	for _, p := range curve {
		y := p.Date.Year()
		if _, ok := last[y]; !ok {
			order = append(order, y)
		}
		last[y] = p.Value
	}

	var out []YearlyReturn
	for i := 1; i < len(order); i++ {
		prev := last[order[i-1]]
		if prev == 0 {
			continue
		}
		out = append(out, YearlyReturn{Year: order[i], Return: last[order[i]]/prev - 1})
	}
	return out
}

// skewness is the sample-adjusted (Fisher-Pearson G1) skewness.
func skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	m := Mean(values)
	m2, m3 := 0.0, 0.0
	for _, v := range values {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return math.Sqrt(n*(n-1)) / (n - 2) * g1
}

// kurtosis is the sample-adjusted excess kurtosis (G2).
func kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	m := Mean(values)
	m2, m4 := 0.0, 0.0
	for _, v := range values {
		d := v - m
		m2 += d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	g2 := m4/(m2*m2) - 3
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3))
}
