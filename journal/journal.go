// Package journal persists the trade log and equity trajectory of a run.
// The CSV trade log is the externally durable artifact: its column set and
// order are fixed and must round-trip losslessly.
package journal

import (
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
)

// EquitySnapshot is one daily account observation.
type EquitySnapshot struct {
	Date     time.Time
	Equity   float64
	Cash     float64
	Drawdown float64
}

// RunSummary is the per-run header row stored alongside trades and equity.
type RunSummary struct {
	RunID          string
	Created        time.Time
	Strategy       string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64
	MaxDrawdown    float64
	Trades         int
	Wins           int
	Losses         int
}

// Journal records trades and equity snapshots as a run progresses.
type Journal interface {
	RecordTrade(broker.TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
