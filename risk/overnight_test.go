package risk

import (
	"testing"

	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/stretchr/testify/assert"
)

func gapBars(n int, gapEvery int, gapPct float64) []market.Bar {
	bars := make([]market.Bar, n)
	price := 10.0
	for i := range bars {
		open := price
		if gapEvery > 0 && i > 0 && i%gapEvery == 0 {
			open = price * (1 + gapPct)
		}
		bars[i] = market.Bar{Open: open, High: open * 1.01, Low: open * 0.99, Close: price}
	}
	return bars
}

func TestAssessOvernightRiskNeedsHistory(t *testing.T) {
	r := AssessOvernightRisk(gapBars(59, 10, -0.02), 100_000)
	assert.Equal(t, "unknown", r.Level)
}

func TestAssessOvernightRiskNoGapsIsLow(t *testing.T) {
	r := AssessOvernightRisk(gapBars(80, 0, 0), 100_000)
	assert.Equal(t, "low", r.Level)
	assert.Zero(t, r.OvernightVaR)
}

func TestAssessOvernightRiskFlagsDeepGaps(t *testing.T) {
	r := AssessOvernightRisk(gapBars(120, 10, -0.06), 100_000)
	assert.Equal(t, "high", r.Level)
	assert.InDelta(t, -0.06, r.MaxNegGap, 1e-9)
	assert.Greater(t, r.OvernightVaR, 0.0)
}

func TestAssessOvernightRiskScalesVaRByValue(t *testing.T) {
	small := AssessOvernightRisk(gapBars(120, 10, -0.02), 100_000)
	large := AssessOvernightRisk(gapBars(120, 10, -0.02), 200_000)
	assert.InDelta(t, small.OvernightVaR*2, large.OvernightVaR, 1e-6)
}
