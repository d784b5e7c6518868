package strategies

import (
	"sort"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/indicators"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/Heilo-qaq/ai-stock-advisor/sizing"
)

// MomentumConfig tunes the momentum strategy. Zero values fall back to the
// defaults of NewMomentum.
type MomentumConfig struct {
	MomentumPeriod  int // lookback for the momentum score
	BreakoutPeriod  int // lookback for the high-breakout filter
	RebalancePeriod int // minimum trading days between entry scans
	TopN            int // candidates bought per rebalance
}

// Momentum is a trend-following strategy: it ranks instruments by trailing
// return, requires a near-breakout of the lookback high with the short MA
// above the long MA, and boosts the score when volume expands. Exits fire
// when price closes below the 20-day MA or after five straight down closes;
// everything else is left to the risk sweep.
type Momentum struct {
	MomentumConfig

	sizer         *sizing.Sizer
	lastRebalance int
}

func NewMomentum(cfg *config.Config) *Momentum {
	return &Momentum{
		MomentumConfig: MomentumConfig{
			MomentumPeriod:  20,
			BreakoutPeriod:  60,
			RebalancePeriod: 5,
			TopN:            3,
		},
		sizer:         sizing.New(cfg),
		lastRebalance: -999,
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) OnInit() error {
	m.lastRebalance = -999
	return nil
}

func (m *Momentum) OnBar(ctx *backtest.Context) error {
	if ctx.Halted {
		return nil
	}

	m.checkExits(ctx)

	if ctx.Index-m.lastRebalance < m.RebalancePeriod {
		return nil
	}
	m.lastRebalance = ctx.Index

	type candidate struct {
		code  string
		score float64
	}
	var ranked []candidate
	for code, bar := range ctx.Bars {
		score, ok := m.score(ctx, code, bar)
		if ok {
			ranked = append(ranked, candidate{code, score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].code < ranked[j].code
	})
	if len(ranked) > m.TopN {
		ranked = ranked[:m.TopN]
	}

	for _, c := range ranked {
		if ctx.HasPosition(c.code) {
			continue
		}
		gate := ctx.Risk.CanOpen(len(ctx.Positions), ctx.Equity, ctx.Cash)
		if !gate.Allowed {
			break
		}

		bar := ctx.Bars[c.code]
		shares := m.buyShares(ctx, c.code, bar)
		if shares >= broker.LotSize {
			ctx.Buy(c.code, shares, bar.Close, &bar)
		}
	}
	return nil
}

// score computes the entry score for one instrument, or ok=false when the
// filters reject it or the history is too short.
func (m *Momentum) score(ctx *backtest.Context, code string, bar market.Bar) (float64, bool) {
	s, ok := ctx.Data.Get(code)
	if !ok {
		return 0, false
	}
	loc, ok := s.Loc(ctx.Date)
	if !ok {
		return 0, false
	}
	need := m.MomentumPeriod
	if m.BreakoutPeriod > need {
		need = m.BreakoutPeriod
	}
	if loc < need {
		return 0, false
	}

	momentum := bar.Close/s.Bars[loc-m.MomentumPeriod].Close - 1
	if momentum <= 0 {
		return 0, false
	}

	periodHigh := 0.0
	for _, b := range s.Bars[loc-m.BreakoutPeriod : loc] {
		if b.High > periodHigh {
			periodHigh = b.High
		}
	}
	if bar.Close < periodHigh*0.98 {
		return 0, false
	}

	closes := s.Closes()
	ma5, err5 := indicators.SMA(closes[:loc+1], 5)
	ma20, err20 := indicators.SMA(closes[:loc+1], 20)
	if err5 != nil || err20 != nil || ma5 <= ma20 {
		return 0, false
	}

	score := momentum * 100
	if volRatio(s, loc) > 1.0 {
		score *= 1.2
	}
	return score, true
}

// volRatio is today's volume over its 20-day mean, 1 when unknown.
func volRatio(s *market.Series, loc int) float64 {
	start := loc - 19
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, b := range s.Bars[start : loc+1] {
		sum += b.Volume
	}
	avg := sum / float64(loc+1-start)
	if avg == 0 {
		return 1
	}
	return s.Bars[loc].Volume / avg
}

// buyShares sizes an entry: policy size, drawdown throttle, then a cash
// affordability cap with a small buffer for fees.
func (m *Momentum) buyShares(ctx *backtest.Context, code string, bar market.Bar) int {
	atr := m.entryATR(ctx, code)
	if atr == 0 {
		atr = bar.Close * 0.02
	}

	res := m.sizer.Size(sizing.Inputs{
		Equity: ctx.Equity,
		Price:  bar.Close,
		ATR:    atr,
	})
	ratio := m.sizer.AdjustForDrawdown(res.Ratio, ctx.Drawdown)

	shares := int(ctx.Equity*ratio/bar.Close/broker.LotSize) * broker.LotSize
	affordable := int(ctx.Cash*0.98/bar.Close/broker.LotSize) * broker.LotSize
	if shares > affordable {
		shares = affordable
	}
	if shares < 0 {
		shares = 0
	}
	return shares
}

func (m *Momentum) entryATR(ctx *backtest.Context, code string) float64 {
	s, ok := ctx.Data.Get(code)
	if !ok {
		return 0
	}
	loc, ok := s.Loc(ctx.Date)
	if !ok || loc < 14 {
		return 0
	}
	atr, err := indicators.ATR(s.Bars[loc-14:loc+1], 14)
	if err != nil {
		return 0
	}
	return atr
}

// checkExits sells holdings that close below the 20-day MA or fall five
// sessions in a row. Same-day entries are skipped; the engine enforces T+1
// regardless.
func (m *Momentum) checkExits(ctx *backtest.Context) {
	for code, pos := range ctx.Positions {
		if pos.EntryDate.Equal(ctx.Date) {
			continue
		}
		bar, ok := ctx.Bars[code]
		if !ok {
			continue
		}
		s, ok := ctx.Data.Get(code)
		if !ok {
			continue
		}
		loc, ok := s.Loc(ctx.Date)
		if !ok {
			continue
		}

		ma20, err := indicators.SMA(s.Closes()[:loc+1], 20)
		if err == nil && bar.Close < ma20 {
			ctx.Sell(code, pos.Shares, bar.Close, &bar, "")
			continue
		}

		if loc >= 5 && fallingStreak(s.Bars[loc-4:loc+1]) {
			ctx.Sell(code, pos.Shares, bar.Close, &bar, "")
		}
	}
}

// fallingStreak reports whether every close in bars is below the one before.
func fallingStreak(bars []market.Bar) bool {
	for i := 1; i < len(bars); i++ {
		if bars[i].Close >= bars[i-1].Close {
			return false
		}
	}
	return true
}
