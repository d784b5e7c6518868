// Package backtest drives event-driven daily simulations of trading
// strategies under A-share market frictions: T+1 settlement, price-limit
// halts and lot-level cost accounting.
package backtest

import (
	"fmt"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/indicators"
	"github.com/Heilo-qaq/ai-stock-advisor/internal/id"
	"github.com/Heilo-qaq/ai-stock-advisor/journal"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/Heilo-qaq/ai-stock-advisor/risk"
	"github.com/Heilo-qaq/ai-stock-advisor/stats"
)

// atrPeriod sizes the trailing window used for the volatility stop.
const atrPeriod = 14

// Engine iterates trading dates, runs the risk sweep, delegates to the
// strategy and accumulates the equity trajectory. One Engine may Run many
// times; each Run starts from fresh account state.
type Engine struct {
	strategy Strategy
	data     *market.Dataset
	cfg      *config.Config

	benchmark *market.Series
	journal   journal.Journal
	runID     string

	brk       *broker.SimBroker
	rm        *risk.Manager
	journaled int
}

// Result is the frozen outcome of one run.
type Result struct {
	RunID   string
	Start   time.Time
	End     time.Time
	Equity  stats.Curve
	Bench   stats.Curve
	Trades  []broker.TradeRecord
	Closed  []broker.TradeRecord
	Orders  []broker.Order
	Summary broker.Summary
	Metrics stats.Metrics
}

func NewEngine(strategy Strategy, data *market.Dataset, cfg *config.Config) *Engine {
	return &Engine{strategy: strategy, data: data, cfg: cfg}
}

// SetBenchmark supplies an index close series for benchmark-relative
// statistics.
func (e *Engine) SetBenchmark(s *market.Series) { e.benchmark = s }

// SetJournal attaches a journal that receives every trade and daily equity
// snapshot as the run progresses.
func (e *Engine) SetJournal(j journal.Journal) { e.journal = j }

// SetRunID fixes the run identifier, so journal rows written during the run
// and the Result share one ID. A fresh ULID is generated when unset.
func (e *Engine) SetRunID(id string) { e.runID = id }

// Run executes the daily loop over [start, end]; zero bounds are open.
// It fails fast before any state mutation when no data is available.
func (e *Engine) Run(start, end time.Time) (*Result, error) {
	if e.data == nil || e.data.Len() == 0 {
		return nil, fmt.Errorf("backtest: no instrument data supplied")
	}

	var dates []time.Time
	for _, d := range e.data.TradingDates() {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("backtest: no trading dates in window")
	}

	e.brk = broker.NewSimBroker(e.cfg)
	e.rm = risk.NewManager(e.cfg, e.cfg.Backtest.InitialCapital)
	e.journaled = 0

	if init, ok := e.strategy.(Initializer); ok {
		if err := init.OnInit(); err != nil {
			return nil, fmt.Errorf("strategy init: %w", err)
		}
	}

	var curve stats.Curve
	for i, date := range dates {
		bars := make(map[string]market.Bar)
		for _, code := range e.data.Codes() {
			s, _ := e.data.Get(code)
			if b, ok := s.At(date); ok {
				bars[code] = b
			}
		}
		if len(bars) == 0 {
			continue
		}

		prices := make(map[string]float64, len(bars))
		for code, b := range bars {
			prices[code] = b.Close
		}

		e.brk.UpdateHighs(prices)
		e.sweepStops(bars, date)

		equity := e.brk.Equity(prices)
		dd := e.rm.CheckDrawdown(equity)

		positions := make(map[string]broker.PositionView)
		for _, v := range e.brk.Positions() {
			positions[v.Code] = v
		}

		ctx := &Context{
			Date:      date,
			Index:     i,
			Bars:      bars,
			Equity:    equity,
			Cash:      e.brk.Cash(),
			Positions: positions,
			Drawdown:  dd.Drawdown,
			Halted:    e.rm.Halted(),
			Broker:    e.brk,
			Risk:      e.rm,
			Data:      e.data,
		}
		if err := e.strategy.OnBar(ctx); err != nil {
			return nil, fmt.Errorf("strategy on %s: %w", date.Format("2006-01-02"), err)
		}

		// The recorded equity must reflect this date's own fills, so mark
		// to market again after the strategy has acted. The journaled
		// drawdown is recomputed from that same number.
		equity = e.brk.Equity(prices)
		curve = append(curve, stats.Point{Date: date, Value: equity})

		snapDD := 0.0
		if peak := e.rm.Peak(); equity < peak {
			snapDD = (peak - equity) / peak
		}
		if err := e.flushJournal(date, equity, snapDD); err != nil {
			return nil, err
		}
	}

	return e.finish(curve, dates)
}

// sweepStops evaluates the stop conditions of every open position that was
// not opened today and force-sells the triggered ones, tagged with the
// stop reason.
func (e *Engine) sweepStops(bars map[string]market.Bar, date time.Time) {
	type forced struct {
		code   string
		shares int
		bar    market.Bar
		reason string
	}
	var sells []forced

	for _, pos := range e.brk.Positions() {
		bar, ok := bars[pos.Code]
		if !ok {
			continue
		}
		if pos.EntryDate.Equal(date) {
			continue // T+1: bought today, not sellable
		}

		state := risk.PositionState{
			Code:         pos.Code,
			Name:         pos.Code,
			EntryPrice:   pos.AvgPrice,
			EntryDate:    pos.EntryDate,
			Shares:       pos.Shares,
			CurrentPrice: bar.Close,
			Highest:      pos.Highest,
			ATRAtEntry:   e.atrAt(pos.Code, date),
			Date:         date,
		}
		if sig := e.rm.CheckStop(state); sig.Triggered {
			sells = append(sells, forced{pos.Code, pos.Shares, bar, sig.Kind})
		}
	}

	for _, s := range sells {
		bar := s.bar
		e.brk.Submit(s.code, broker.Sell, s.shares, bar.Close, date, &bar, s.reason)
	}
}

// atrAt computes the ATR of the bars ending at date; zero when the history
// is too short, which disables the volatility stop for that position.
func (e *Engine) atrAt(code string, date time.Time) float64 {
	s, ok := e.data.Get(code)
	if !ok {
		return 0
	}
	loc, ok := s.Loc(date)
	if !ok || loc < atrPeriod {
		return 0
	}
	atr, err := indicators.ATR(s.Bars[loc-atrPeriod:loc+1], atrPeriod)
	if err != nil {
		return 0
	}
	return atr
}

func (e *Engine) flushJournal(date time.Time, equity, drawdown float64) error {
	if e.journal == nil {
		return nil
	}
	trades := e.brk.Trades()
	for ; e.journaled < len(trades); e.journaled++ {
		if err := e.journal.RecordTrade(trades[e.journaled]); err != nil {
			return fmt.Errorf("journal trade: %w", err)
		}
	}
	err := e.journal.RecordEquity(journal.EquitySnapshot{
		Date: date, Equity: equity, Cash: e.brk.Cash(), Drawdown: drawdown,
	})
	if err != nil {
		return fmt.Errorf("journal equity: %w", err)
	}
	return nil
}

func (e *Engine) finish(curve stats.Curve, dates []time.Time) (*Result, error) {
	closed := e.brk.ClosedTrades()

	bench := e.benchmarkCurve(curve)
	analyzer := stats.NewAnalyzer(e.cfg.Backtest.RiskFreeRate)
	metrics := analyzer.Analyze(curve, closed, bench)

	runID := e.runID
	if runID == "" {
		runID = id.New()
	}
	r := &Result{
		RunID:   runID,
		Start:   dates[0],
		End:     dates[len(dates)-1],
		Equity:  curve,
		Bench:   bench,
		Trades:  e.brk.Trades(),
		Closed:  closed,
		Orders:  e.brk.Orders(),
		Summary: e.brk.Summary(),
		Metrics: metrics,
	}
	return r, nil
}

// benchmarkCurve aligns the benchmark closes to the run's dates and
// normalizes them to the same starting capital. Fewer than ten shared
// dates yields no benchmark.
func (e *Engine) benchmarkCurve(curve stats.Curve) stats.Curve {
	if e.benchmark == nil || len(curve) == 0 {
		return nil
	}
	var aligned stats.Curve
	for _, p := range curve {
		if b, ok := e.benchmark.At(p.Date); ok {
			aligned = append(aligned, stats.Point{Date: p.Date, Value: b.Close})
		}
	}
	if len(aligned) <= 10 || aligned[0].Value == 0 {
		return nil
	}
	scale := e.cfg.Backtest.InitialCapital / aligned[0].Value
	for i := range aligned {
		aligned[i].Value *= scale
	}
	return aligned
}
