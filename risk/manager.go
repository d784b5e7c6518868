package risk

import (
	"fmt"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// Stop kinds, used as the stop-reason tags on forced sells.
const (
	HardStop       = "hard_stop"
	TrailingStop   = "trailing_stop"
	TimeStop       = "time_stop"
	VolatilityStop = "volatility_stop"
)

// StopSignal reports whether a position should be force-closed and why.
// Lower priority numbers are more urgent.
type StopSignal struct {
	Triggered bool
	Kind      string
	Reason    string
	Priority  int
}

// DrawdownReport is the account-level drawdown check result.
type DrawdownReport struct {
	Drawdown float64
	Peak     float64
	Exceeded bool
	Message  string
}

// Warning is a single portfolio-level risk flag.
type Warning struct {
	Level   string // "high" or "medium"
	Kind    string
	Message string
}

// PortfolioReport aggregates portfolio-level warnings into a qualitative
// risk level: low, medium, high or critical.
type PortfolioReport struct {
	Warnings []Warning
	Level    string
}

// OpenGate is the position-opening decision.
type OpenGate struct {
	Allowed bool
	Reason  string
	MaxSize float64 // maximum permissible equity fraction when allowed
}

// Manager evaluates per-position stops, portfolio concentration and the
// account drawdown red line. The halted flag is sticky: once the drawdown
// limit is breached no new positions open for the rest of the run.
type Manager struct {
	hardStop      float64
	trailingStop  float64
	timeStopDays  int
	volMultiplier float64

	maxDrawdownLimit  float64
	maxSinglePosition float64
	maxSectorExposure float64
	maxPositions      int

	peak   float64
	halted bool
}

// NewManager builds a manager from the run configuration. startEquity seeds
// the running peak so a drawdown from the very first date is measured
// against initial capital.
func NewManager(cfg *config.Config, startEquity float64) *Manager {
	return &Manager{
		hardStop:          cfg.Risk.HardStop,
		trailingStop:      cfg.Risk.TrailingStop,
		timeStopDays:      cfg.Risk.TimeStopDays,
		volMultiplier:     cfg.Risk.VolatilityMultiplier,
		maxDrawdownLimit:  cfg.Risk.MaxDrawdownLimit,
		maxSinglePosition: cfg.Risk.MaxSinglePosition,
		maxSectorExposure: cfg.Risk.MaxSectorExposure,
		maxPositions:      cfg.Risk.MaxPositions,
		peak:              startEquity,
	}
}

func (m *Manager) Halted() bool { return m.halted }
func (m *Manager) Peak() float64 { return m.peak }

// CheckStop runs the four stop evaluators against one position and returns
// the most urgent trigger. Evaluation order breaks priority ties: the hard
// stop beats everything, the trailing stop beats the volatility stop.
func (m *Manager) CheckStop(p PositionState) StopSignal {
	best := StopSignal{}

	consider := func(s StopSignal) {
		if !best.Triggered || s.Priority < best.Priority {
			best = s
		}
	}

	if p.PnLPct() <= -m.hardStop {
		consider(StopSignal{
			Triggered: true,
			Kind:      HardStop,
			Reason:    fmt.Sprintf("hard stop: loss %.1f%% >= %.0f%%", -p.PnLPct()*100, m.hardStop*100),
			Priority:  1,
		})
	}

	// Trailing stop only protects gains: it fires while the position is
	// still net profitable.
	if p.Highest > 0 && p.CurrentPrice > 0 {
		retrace := (p.Highest - p.CurrentPrice) / p.Highest
		if retrace >= m.trailingStop && p.PnLPct() > 0 {
			consider(StopSignal{
				Triggered: true,
				Kind:      TrailingStop,
				Reason:    fmt.Sprintf("trailing stop: %.1f%% retracement from high %.2f", retrace*100, p.Highest),
				Priority:  2,
			})
		}
	}

	if p.ATRAtEntry > 0 {
		atrStop := p.EntryPrice - m.volMultiplier*p.ATRAtEntry
		if p.CurrentPrice <= atrStop {
			consider(StopSignal{
				Triggered: true,
				Kind:      VolatilityStop,
				Reason:    fmt.Sprintf("volatility stop: price below ATR line %.2f", atrStop),
				Priority:  2,
			})
		}
	}

	if p.HoldDays() >= m.timeStopDays && p.PnLPct() <= 0 {
		consider(StopSignal{
			Triggered: true,
			Kind:      TimeStop,
			Reason:    fmt.Sprintf("time stop: held %d days without profit", p.HoldDays()),
			Priority:  3,
		})
	}

	return best
}

// CheckDrawdown updates the monotone running peak, measures the drawdown
// from it and trips the sticky halted flag when the red line is breached.
func (m *Manager) CheckDrawdown(equity float64) DrawdownReport {
	if equity > m.peak {
		m.peak = equity
	}
	if m.peak == 0 {
		return DrawdownReport{}
	}

	dd := (m.peak - equity) / m.peak
	exceeded := dd >= m.maxDrawdownLimit
	if exceeded {
		m.halted = true
	}

	msg := fmt.Sprintf("drawdown %.1f%%", dd*100)
	if exceeded {
		msg += fmt.Sprintf(", %.0f%% limit breached, position opening halted", m.maxDrawdownLimit*100)
	}
	return DrawdownReport{Drawdown: dd, Peak: m.peak, Exceeded: exceeded, Message: msg}
}

// CheckPortfolio flags concentration, sector exposure, position count and
// same-sector correlation risks. Advisory only; it never blocks orders.
func (m *Manager) CheckPortfolio(positions []PositionState, totalEquity float64) PortfolioReport {
	var warnings []Warning
	if len(positions) == 0 || totalEquity <= 0 {
		return PortfolioReport{Level: "low"}
	}

	for _, p := range positions {
		weight := p.MarketValue() / totalEquity
		if weight > m.maxSinglePosition {
			warnings = append(warnings, Warning{
				Level: "high",
				Kind:  "concentration",
				Message: fmt.Sprintf("%s weight %.1f%% exceeds cap %.0f%%",
					p.Code, weight*100, m.maxSinglePosition*100),
			})
		}
	}

	sectorExposure := make(map[string]float64)
	sectorCount := make(map[string]int)
	for _, p := range positions {
		sector := p.Sector
		if sector == "" {
			sector = "unknown"
		}
		sectorExposure[sector] += p.MarketValue() / totalEquity
		sectorCount[sector]++
	}
	for sector, exposure := range sectorExposure {
		if exposure > m.maxSectorExposure {
			warnings = append(warnings, Warning{
				Level: "high",
				Kind:  "sector_concentration",
				Message: fmt.Sprintf("sector %s exposure %.1f%% exceeds cap %.0f%%",
					sector, exposure*100, m.maxSectorExposure*100),
			})
		}
	}

	if len(positions) > m.maxPositions {
		warnings = append(warnings, Warning{
			Level:   "medium",
			Kind:    "too_many_positions",
			Message: fmt.Sprintf("%d positions exceed the %d maximum", len(positions), m.maxPositions),
		})
	}

	for sector, count := range sectorCount {
		if count >= 3 {
			warnings = append(warnings, Warning{
				Level:   "medium",
				Kind:    "high_correlation",
				Message: fmt.Sprintf("%d holdings in sector %s are highly correlated", count, sector),
			})
		}
	}

	high := 0
	for _, w := range warnings {
		if w.Level == "high" {
			high++
		}
	}
	level := "low"
	switch {
	case high >= 2:
		level = "critical"
	case high >= 1:
		level = "high"
	case len(warnings) > 0:
		level = "medium"
	}
	return PortfolioReport{Warnings: warnings, Level: level}
}

// CanOpen gates new positions on the halted flag, the position-count cap
// and a 10% minimum of uninvested equity.
func (m *Manager) CanOpen(openPositions int, totalEquity, cash float64) OpenGate {
	if m.halted {
		return OpenGate{Reason: "drawdown limit breached, trading halted"}
	}
	if openPositions >= m.maxPositions {
		return OpenGate{Reason: fmt.Sprintf("already at maximum of %d positions", m.maxPositions)}
	}

	available := 0.0
	if totalEquity > 0 {
		available = cash / totalEquity
	}
	if available < 0.1 {
		return OpenGate{Reason: fmt.Sprintf("available equity %.1f%% below 10%%", available*100)}
	}

	size := available
	if m.maxSinglePosition < size {
		size = m.maxSinglePosition
	}
	return OpenGate{
		Allowed: true,
		MaxSize: size,
		Reason:  fmt.Sprintf("open allowed, max size %.1f%%", size*100),
	}
}

// LimitUp reports whether price sits at or above the daily limit-up for
// code's board.
func LimitUp(code string, st bool, price, prevClose float64) bool {
	up, _ := market.LimitPrices(code, st, prevClose)
	return price >= up
}

// LimitDown reports whether price sits at or below the daily limit-down for
// code's board.
func LimitDown(code string, st bool, price, prevClose float64) bool {
	_, down := market.LimitPrices(code, st, prevClose)
	return price <= down
}

// T1Sellable reports whether shares bought on entryDate may be sold on date.
func T1Sellable(entryDate, date time.Time) bool {
	return date.After(entryDate)
}
