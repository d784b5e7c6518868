// Package sizing converts account state and volatility/edge estimates into
// lot-rounded trade sizes under several sizing policies.
package sizing

import (
	"math"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
)

// Method selects the sizing policy.
type Method string

const (
	Kelly      Method = "kelly"
	ATR        Method = "atr"
	RiskParity Method = "risk_parity"
	Equal      Method = "equal"
)

const (
	lotSize = 100

	// portfolio volatility budget distributed across max positions
	targetPortfolioVol = 0.20

	// fallback fraction when a policy lacks its inputs
	defaultRatio = 0.10
)

// Inputs carries the per-policy estimates; unused fields may stay zero.
type Inputs struct {
	Equity float64
	Price  float64

	ATR        float64 // volatility-budgeted sizing
	WinRate    float64 // kelly
	AvgWin     float64 // kelly, mean winning return
	AvgLoss    float64 // kelly, mean losing return (positive)
	Volatility float64 // risk parity, annualized
}

// Result is the sizing recommendation.
type Result struct {
	Method     Method
	Ratio      float64 // equity fraction after clamping
	Value      float64 // actual value of the rounded share count
	Shares     int     // lot-rounded share count
	RiskAmount float64
	RiskPct    float64
}

// Tranche is one leg of a staged-entry plan.
type Tranche struct {
	Batch     int
	Ratio     float64 // share of the total target size
	Trigger   string
	PriceLow  float64
	PriceHigh float64
}

// Sizer computes position sizes from one immutable configuration.
type Sizer struct {
	method        Method
	atrRisk       float64
	kellyFraction float64
	maxPosition   float64
	maxPositions  int
	hardStop      float64
}

func New(cfg *config.Config) *Sizer {
	return &Sizer{
		method:        Method(cfg.Sizing.Method),
		atrRisk:       cfg.Sizing.ATRRiskPerTrade,
		kellyFraction: cfg.Sizing.KellyFraction,
		maxPosition:   cfg.Risk.MaxSinglePosition,
		maxPositions:  cfg.Risk.MaxPositions,
		hardStop:      cfg.Risk.HardStop,
	}
}

// Size computes the policy fraction, clamps it to [0, max single position]
// and converts it to an affordable lot-rounded share count.
func (s *Sizer) Size(in Inputs) Result {
	var ratio float64
	switch s.method {
	case Kelly:
		ratio = s.kelly(in.WinRate, in.AvgWin, in.AvgLoss)
	case ATR:
		ratio = s.atr(in.Equity, in.Price, in.ATR)
	case RiskParity:
		ratio = s.riskParity(in.Volatility)
	default:
		ratio = s.equal()
	}

	if ratio > s.maxPosition {
		ratio = s.maxPosition
	}
	if ratio < 0 {
		ratio = 0
	}

	shares := 0
	if in.Price > 0 {
		shares = int(in.Equity*ratio/in.Price/lotSize) * lotSize
	}
	value := float64(shares) * in.Price

	// worst-case loss estimate for the rounded position
	riskFrac := s.hardStop
	if in.ATR > 0 && in.Price > 0 {
		if atrFrac := 2 * in.ATR / in.Price; atrFrac < riskFrac {
			riskFrac = atrFrac
		}
	}
	riskAmount := value * riskFrac

	r := Result{
		Method:     s.method,
		Ratio:      ratio,
		Value:      value,
		Shares:     shares,
		RiskAmount: riskAmount,
	}
	if in.Equity > 0 {
		r.RiskPct = riskAmount / in.Equity
	}
	return r
}

// kelly computes f = (p*b - q)/b scaled by the configured fraction.
// A non-positive edge sizes to zero; missing estimates fall back to the
// default fraction.
func (s *Sizer) kelly(winRate, avgWin, avgLoss float64) float64 {
	if winRate == 0 || avgWin == 0 || avgLoss == 0 {
		return defaultRatio
	}
	p := winRate
	q := 1 - p
	b := avgWin / avgLoss

	f := (p*b - q) / b
	if f <= 0 {
		return 0
	}
	return f * s.kellyFraction
}

// atr sizes so a 2xATR adverse move costs exactly the budgeted risk amount.
func (s *Sizer) atr(equity, price, atr float64) float64 {
	if atr == 0 || price == 0 || equity == 0 {
		return defaultRatio
	}
	riskAmount := equity * s.atrRisk
	value := riskAmount / (2 * atr) * price
	return value / equity
}

// riskParity allocates inversely to volatility against a fixed portfolio
// volatility budget.
func (s *Sizer) riskParity(volatility float64) float64 {
	if volatility == 0 {
		return defaultRatio
	}
	targetStockVol := targetPortfolioVol / math.Sqrt(float64(s.maxPositions))
	return targetStockVol / volatility
}

func (s *Sizer) equal() float64 {
	return 1.0 / float64(s.maxPositions)
}

// AdjustForDrawdown throttles a computed fraction by the account drawdown:
// full size below 5%, half to 10%, quarter to 15%, nothing beyond.
func (s *Sizer) AdjustForDrawdown(base, drawdown float64) float64 {
	switch {
	case drawdown <= 0.05:
		return base
	case drawdown <= 0.10:
		return base * 0.5
	case drawdown <= 0.15:
		return base * 0.25
	default:
		return 0
	}
}

// ScaleInPlan splits a target into three tranches (40/30/30) for staged
// entry, with ATR-derived price ranges for the add-on legs.
func (s *Sizer) ScaleInPlan(price, atr float64) []Tranche {
	if atr == 0 {
		atr = price * 0.02
	}
	return []Tranche{
		{Batch: 1, Ratio: 0.4, Trigger: "immediate", PriceLow: price, PriceHigh: price},
		{Batch: 2, Ratio: 0.3, Trigger: "add on confirmed support", PriceLow: price - atr, PriceHigh: price},
		{Batch: 3, Ratio: 0.3, Trigger: "add on breakout", PriceLow: price, PriceHigh: price + atr},
	}
}
