package strategies

import (
	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/sizing"
)

// OpenOnce buys a sized position in every instrument on the first date it
// sees and then holds, leaving exits entirely to the risk sweep. It is the
// smallest strategy that produces fills.
type OpenOnce struct {
	sizer  *sizing.Sizer
	opened map[string]bool
}

func NewOpenOnce(cfg *config.Config) *OpenOnce {
	return &OpenOnce{
		sizer:  sizing.New(cfg),
		opened: make(map[string]bool),
	}
}

func (o *OpenOnce) Name() string { return "open-once" }

func (o *OpenOnce) OnBar(ctx *backtest.Context) error {
	for code, bar := range ctx.Bars {
		if o.opened[code] {
			continue
		}
		gate := ctx.Risk.CanOpen(len(ctx.Positions), ctx.Equity, ctx.Cash)
		if !gate.Allowed {
			return nil
		}

		res := o.sizer.Size(sizing.Inputs{Equity: ctx.Equity, Price: bar.Close})
		if res.Shares <= 0 {
			continue
		}
		b := bar
		order := ctx.Buy(code, res.Shares, bar.Close, &b)
		if order.Status == broker.Filled {
			o.opened[code] = true
		}
	}
	return nil
}
