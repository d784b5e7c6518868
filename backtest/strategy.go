package backtest

import (
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/Heilo-qaq/ai-stock-advisor/risk"
)

// Strategy is called once per trading date with the assembled daily context.
// Implementations live outside the core and are swapped without touching it.
type Strategy interface {
	Name() string
	OnBar(ctx *Context) error
}

// Initializer is an optional hook invoked once before the first date.
type Initializer interface {
	OnInit() error
}

// Optimizer is an optional parameter-refit hook invoked per training window
// in walk-forward mode.
type Optimizer interface {
	Optimize(train *market.Dataset) error
}

// Context is the daily snapshot handed to the strategy. The account state
// it exposes is observed, never mutated, by the strategy; mutation happens
// only through Buy/Sell, which forward to the broker.
type Context struct {
	Date  time.Time
	Index int // position of Date in the run's date sequence

	Bars      map[string]market.Bar
	Equity    float64
	Cash      float64
	Positions map[string]broker.PositionView
	Drawdown  float64
	Halted    bool

	Broker *broker.SimBroker
	Risk   *risk.Manager
	Data   *market.Dataset
}

// Buy submits a buy intent for the context's date.
func (c *Context) Buy(code string, shares int, price float64, bar *market.Bar) broker.Order {
	return c.Broker.Submit(code, broker.Buy, shares, price, c.Date, bar, "")
}

// Sell submits a sell intent; stopReason tags risk-forced exits.
func (c *Context) Sell(code string, shares int, price float64, bar *market.Bar, stopReason string) broker.Order {
	return c.Broker.Submit(code, broker.Sell, shares, price, c.Date, bar, stopReason)
}

// Position looks up the flattened view of one holding.
func (c *Context) Position(code string) (broker.PositionView, bool) {
	v, ok := c.Positions[code]
	return v, ok
}

// HasPosition reports whether the account holds an instrument.
func (c *Context) HasPosition(code string) bool {
	_, ok := c.Positions[code]
	return ok
}
