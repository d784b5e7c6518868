package sizing

import (
	"math"
	"testing"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sizerWith(method string) *Sizer {
	cfg := config.Default()
	cfg.Sizing.Method = method
	return New(cfg)
}

func TestSizeATR(t *testing.T) {
	s := sizerWith("atr")

	// risk budget 2% of equity, 2xATR per-share risk:
	// value = 20000 / (2*0.50) * 10 = 200000, ratio 0.20
	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00, ATR: 0.50})
	assert.InDelta(t, 0.20, res.Ratio, 1e-9)
	assert.Equal(t, 20_000, res.Shares)
	assert.InDelta(t, 200_000, res.Value, 1e-6)

	// missing ATR falls back to the default fraction
	res = s.Size(Inputs{Equity: 1_000_000, Price: 10.00})
	assert.InDelta(t, defaultRatio, res.Ratio, 1e-9)
}

func TestSizeATRClampedToMaxPosition(t *testing.T) {
	s := sizerWith("atr")

	// a tiny ATR suggests an oversized position; the cap holds it at 25%
	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00, ATR: 0.05})
	assert.InDelta(t, 0.25, res.Ratio, 1e-9)
	assert.Equal(t, 25_000, res.Shares)
}

func TestSizeKelly(t *testing.T) {
	s := sizerWith("kelly")

	// p=0.6, b=2: f = (0.6*2 - 0.4)/2 = 0.4, quarter-kelly 0.10
	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00, WinRate: 0.6, AvgWin: 0.10, AvgLoss: 0.05})
	assert.InDelta(t, 0.10, res.Ratio, 1e-9)
	assert.Equal(t, 10_000, res.Shares)

	// negative edge sizes to zero
	res = s.Size(Inputs{Equity: 1_000_000, Price: 10.00, WinRate: 0.3, AvgWin: 0.05, AvgLoss: 0.05})
	assert.Zero(t, res.Ratio)
	assert.Zero(t, res.Shares)

	// no estimates yet: default fraction
	res = s.Size(Inputs{Equity: 1_000_000, Price: 10.00})
	assert.InDelta(t, defaultRatio, res.Ratio, 1e-9)
}

func TestSizeRiskParity(t *testing.T) {
	s := sizerWith("risk_parity")

	// per-stock budget 0.20/sqrt(8); vol 0.40
	want := targetPortfolioVol / math.Sqrt(8) / 0.40
	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00, Volatility: 0.40})
	assert.InDelta(t, want, res.Ratio, 1e-9)

	res = s.Size(Inputs{Equity: 1_000_000, Price: 10.00})
	assert.InDelta(t, defaultRatio, res.Ratio, 1e-9)
}

func TestSizeEqual(t *testing.T) {
	s := sizerWith("equal")

	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00})
	assert.InDelta(t, 1.0/8, res.Ratio, 1e-9)
	assert.Equal(t, 12_500, res.Shares)
}

func TestSizeLotRounding(t *testing.T) {
	s := sizerWith("equal")

	// 125000 / 33.30 = 3753.7 shares, rounded down to 3700
	res := s.Size(Inputs{Equity: 1_000_000, Price: 33.30})
	assert.Equal(t, 3700, res.Shares)
	assert.InDelta(t, 3700*33.30, res.Value, 1e-6)

	// price too high for even one lot
	res = s.Size(Inputs{Equity: 10_000, Price: 2000})
	assert.Zero(t, res.Shares)
	assert.Zero(t, res.Value)
}

func TestSizeRiskAmount(t *testing.T) {
	s := sizerWith("equal")

	// without ATR the hard stop bounds the loss estimate
	res := s.Size(Inputs{Equity: 1_000_000, Price: 10.00})
	assert.InDelta(t, res.Value*0.08, res.RiskAmount, 1e-6)
	assert.InDelta(t, res.RiskAmount/1_000_000, res.RiskPct, 1e-9)

	// a tight ATR stop takes over when it is narrower
	res = s.Size(Inputs{Equity: 1_000_000, Price: 10.00, ATR: 0.10})
	assert.InDelta(t, res.Value*(2*0.10/10.00), res.RiskAmount, 1e-6)
}

func TestAdjustForDrawdown(t *testing.T) {
	s := sizerWith("equal")

	tests := []struct {
		drawdown float64
		want     float64
	}{
		{0.00, 0.20},
		{0.04, 0.20},
		{0.07, 0.10},
		{0.12, 0.05},
		{0.20, 0.00},
	}
	for _, tt := range tests {
		got := s.AdjustForDrawdown(0.20, tt.drawdown)
		assert.InDelta(t, tt.want, got, 1e-9, "drawdown=%.2f", tt.drawdown)
	}
}

func TestScaleInPlan(t *testing.T) {
	s := sizerWith("atr")

	plan := s.ScaleInPlan(10.00, 0.50)
	require.Len(t, plan, 3)

	total := 0.0
	for _, tr := range plan {
		total += tr.Ratio
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	assert.InDelta(t, 0.4, plan[0].Ratio, 1e-9)
	assert.InDelta(t, 10.00, plan[0].PriceLow, 1e-9)

	// add-on legs bracket the entry by one ATR
	assert.InDelta(t, 9.50, plan[1].PriceLow, 1e-9)
	assert.InDelta(t, 10.50, plan[2].PriceHigh, 1e-9)
}

func TestScaleInPlanDefaultsATR(t *testing.T) {
	s := sizerWith("atr")

	// zero ATR falls back to 2% of price
	plan := s.ScaleInPlan(10.00, 0)
	assert.InDelta(t, 9.80, plan[1].PriceLow, 1e-9)
}
