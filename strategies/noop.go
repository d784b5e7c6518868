package strategies

import "github.com/Heilo-qaq/ai-stock-advisor/backtest"

// Noop does nothing. Useful for exercising the engine and cost model in
// isolation.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnBar(*backtest.Context) error { return nil }
