package risk

import (
	"testing"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(config.Default(), 1_000_000)
}

func pos(entry, current, highest float64, heldDays int) PositionState {
	entryDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return PositionState{
		Code:         "600000",
		EntryPrice:   entry,
		EntryDate:    entryDate,
		Shares:       1000,
		CurrentPrice: current,
		Highest:      highest,
		Date:         entryDate.AddDate(0, 0, heldDays),
	}
}

func TestCheckStopHardStop(t *testing.T) {
	m := testManager(t)

	// a 9% loss breaches the 8% line
	sig := m.CheckStop(pos(10.00, 9.10, 10.00, 5))
	require.True(t, sig.Triggered)
	assert.Equal(t, HardStop, sig.Kind)
	assert.Equal(t, 1, sig.Priority)

	// a 7% loss does not
	sig = m.CheckStop(pos(10.00, 9.30, 10.00, 5))
	assert.False(t, sig.Triggered)
}

func TestCheckStopTrailingRequiresProfit(t *testing.T) {
	m := testManager(t)

	// up 8% after a 13% retrace from the high: still profitable, fires
	sig := m.CheckStop(pos(10.00, 10.80, 12.50, 5))
	require.True(t, sig.Triggered)
	assert.Equal(t, TrailingStop, sig.Kind)

	// same retrace but the position is under water: the trailing stop
	// stays quiet and the loss is not yet deep enough for the hard stop
	sig = m.CheckStop(pos(10.00, 9.50, 11.00, 5))
	assert.False(t, sig.Triggered)

	// small retrace on a profitable position: no trigger
	sig = m.CheckStop(pos(10.00, 11.90, 12.50, 5))
	assert.False(t, sig.Triggered)
}

func TestCheckStopVolatility(t *testing.T) {
	m := testManager(t)

	p := pos(10.00, 9.39, 10.00, 5)
	p.ATRAtEntry = 0.30 // stop line at 10.00 - 2*0.30 = 9.40
	sig := m.CheckStop(p)
	require.True(t, sig.Triggered)
	assert.Equal(t, VolatilityStop, sig.Kind)
	assert.Equal(t, 2, sig.Priority)

	// no ATR recorded at entry disables the check
	p.ATRAtEntry = 0
	sig = m.CheckStop(p)
	assert.False(t, sig.Triggered)
}

func TestCheckStopTime(t *testing.T) {
	m := testManager(t)

	// 20 days without profit
	sig := m.CheckStop(pos(10.00, 9.90, 10.00, 20))
	require.True(t, sig.Triggered)
	assert.Equal(t, TimeStop, sig.Kind)
	assert.Equal(t, 3, sig.Priority)

	// profitable positions are never timed out
	sig = m.CheckStop(pos(10.00, 10.50, 10.50, 40))
	assert.False(t, sig.Triggered)

	// held 19 days: not yet
	sig = m.CheckStop(pos(10.00, 9.90, 10.00, 19))
	assert.False(t, sig.Triggered)
}

func TestCheckStopPriorityOrdering(t *testing.T) {
	m := testManager(t)

	// hard stop outranks the others even when all would fire
	p := pos(10.00, 9.00, 10.00, 30)
	p.ATRAtEntry = 0.40
	sig := m.CheckStop(p)
	require.True(t, sig.Triggered)
	assert.Equal(t, HardStop, sig.Kind)

	// volatility stop outranks the time stop
	p = pos(10.00, 9.35, 10.00, 30)
	p.ATRAtEntry = 0.30 // stop line 9.40, current below it
	sig = m.CheckStop(p)
	require.True(t, sig.Triggered)
	assert.Equal(t, VolatilityStop, sig.Kind)

	// long-held but profitable: the trailing stop fires, the time stop not
	p = pos(10.00, 10.50, 12.00, 25)
	sig = m.CheckStop(p)
	require.True(t, sig.Triggered)
	assert.Equal(t, TrailingStop, sig.Kind)
}

func TestCheckDrawdownMonotonePeak(t *testing.T) {
	m := testManager(t)

	r := m.CheckDrawdown(1_050_000)
	assert.InDelta(t, 0, r.Drawdown, 1e-9)
	assert.InDelta(t, 1_050_000, r.Peak, 1e-9)

	r = m.CheckDrawdown(997_500) // 5% off the new peak
	assert.InDelta(t, 0.05, r.Drawdown, 1e-9)
	assert.False(t, r.Exceeded)

	// the peak never ratchets down
	r = m.CheckDrawdown(1_000_000)
	assert.InDelta(t, 1_050_000, r.Peak, 1e-9)
}

func TestCheckDrawdownHaltIsSticky(t *testing.T) {
	m := testManager(t)

	r := m.CheckDrawdown(840_000) // 16% below the seeded 1,000,000 peak
	require.True(t, r.Exceeded)
	assert.True(t, m.Halted())

	// recovery does not lift the halt
	r = m.CheckDrawdown(990_000)
	assert.False(t, r.Exceeded)
	assert.True(t, m.Halted())

	gate := m.CanOpen(0, 990_000, 990_000)
	assert.False(t, gate.Allowed)
	assert.Contains(t, gate.Reason, "halted")
}

func TestCheckDrawdownSeededWithInitialCapital(t *testing.T) {
	m := testManager(t)

	// first observation already below initial capital measures against it
	r := m.CheckDrawdown(900_000)
	assert.InDelta(t, 0.10, r.Drawdown, 1e-9)
}

func TestCanOpenGates(t *testing.T) {
	m := testManager(t)

	gate := m.CanOpen(3, 1_000_000, 500_000)
	require.True(t, gate.Allowed)
	assert.InDelta(t, 0.25, gate.MaxSize, 1e-9) // capped by max single position

	// max size shrinks to available cash fraction when lower
	gate = m.CanOpen(3, 1_000_000, 150_000)
	require.True(t, gate.Allowed)
	assert.InDelta(t, 0.15, gate.MaxSize, 1e-9)

	// position count cap
	gate = m.CanOpen(8, 1_000_000, 500_000)
	assert.False(t, gate.Allowed)

	// under 10% cash
	gate = m.CanOpen(3, 1_000_000, 90_000)
	assert.False(t, gate.Allowed)
}

func TestCheckPortfolioWarnings(t *testing.T) {
	m := testManager(t)
	equity := 1_000_000.0

	mk := func(code, sector string, value float64) PositionState {
		return PositionState{Code: code, Sector: sector, Shares: 1000, CurrentPrice: value / 1000}
	}

	t.Run("empty portfolio is low risk", func(t *testing.T) {
		r := m.CheckPortfolio(nil, equity)
		assert.Equal(t, "low", r.Level)
		assert.Empty(t, r.Warnings)
	})

	t.Run("single oversized position", func(t *testing.T) {
		r := m.CheckPortfolio([]PositionState{mk("600000", "bank", 300_000)}, equity)
		assert.Equal(t, "high", r.Level)
		require.Len(t, r.Warnings, 1)
		assert.Equal(t, "concentration", r.Warnings[0].Kind)
	})

	t.Run("sector over cap and concentration is critical", func(t *testing.T) {
		r := m.CheckPortfolio([]PositionState{
			mk("600000", "bank", 300_000),
			mk("601398", "bank", 150_000),
		}, equity)
		assert.Equal(t, "critical", r.Level)
	})

	t.Run("three same-sector holdings flag correlation", func(t *testing.T) {
		r := m.CheckPortfolio([]PositionState{
			mk("600000", "bank", 100_000),
			mk("601398", "bank", 100_000),
			mk("601288", "bank", 100_000),
		}, equity)
		assert.Equal(t, "medium", r.Level)
		var kinds []string
		for _, w := range r.Warnings {
			kinds = append(kinds, w.Kind)
		}
		assert.Contains(t, kinds, "high_correlation")
	})
}

func TestT1Sellable(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, T1Sellable(d1, d1))
	assert.True(t, T1Sellable(d1, d1.AddDate(0, 0, 1)))
}

func TestLimitPredicatesByBoard(t *testing.T) {
	// main board: 10% band around 10.00
	assert.True(t, LimitUp("600000", false, 11.00, 10.00))
	assert.False(t, LimitUp("600000", false, 10.99, 10.00))
	assert.True(t, LimitDown("600000", false, 9.00, 10.00))
	assert.False(t, LimitDown("600000", false, 9.01, 10.00))

	// ChiNext: 20% band, so 11.00 is nowhere near the limit
	assert.False(t, LimitUp("300750", false, 11.00, 10.00))
	assert.True(t, LimitUp("300750", false, 24.00, 20.00))
	assert.True(t, LimitDown("300750", false, 16.00, 20.00))

	// ST: 5% band
	assert.True(t, LimitUp("600000", true, 10.50, 10.00))
	assert.False(t, LimitDown("600000", true, 9.51, 10.00))
}
