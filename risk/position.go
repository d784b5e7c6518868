package risk

import (
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// PositionState is the per-position snapshot the stop evaluators run on.
// It is assembled from the broker's flattened view plus the day's bar.
type PositionState struct {
	Code       string
	Name       string
	EntryPrice float64
	EntryDate  time.Time
	Shares     int

	CurrentPrice float64
	Highest      float64 // highest price observed since entry
	Sector       string
	ATRAtEntry   float64
	Date         time.Time // evaluation date
}

func (p PositionState) MarketValue() float64 {
	return float64(p.Shares) * p.CurrentPrice
}

func (p PositionState) CostValue() float64 {
	return float64(p.Shares) * p.EntryPrice
}

func (p PositionState) PnL() float64 {
	return p.MarketValue() - p.CostValue()
}

func (p PositionState) PnLPct() float64 {
	cost := p.CostValue()
	if cost == 0 {
		return 0
	}
	return p.PnL() / cost
}

// HoldDays is the calendar-day holding period as of the evaluation date.
func (p PositionState) HoldDays() int {
	return market.DayCount(p.EntryDate, p.Date)
}
