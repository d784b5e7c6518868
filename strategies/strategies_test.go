package strategies

import (
	"testing"
	"time"

	"github.com/Heilo-qaq/ai-stock-advisor/backtest"
	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(date time.Time, open, close float64) market.Bar {
	return market.Bar{Date: date, Open: open, High: close * 1.01, Low: open * 0.99, Close: close, Volume: 1e6}
}

// flatSeries is n sessions pinned at price.
func flatSeries(code string, n int, price float64) *market.Dataset {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = bar(market.Day(2024, 1, 2).AddDate(0, 0, i), price, price)
	}
	ds := market.NewDataset()
	ds.Add(market.NewSeries(code, bars))
	return ds
}

// trendSeries rises half a percent per session for rise sessions, then falls
// one percent per session for the rest.
func trendSeries(code string, n, rise int) *market.Dataset {
	bars := make([]market.Bar, n)
	prev := 10.0
	for i := range bars {
		close := prev * 1.005
		if i > rise {
			close = prev * 0.99
		}
		bars[i] = bar(market.Day(2024, 1, 2).AddDate(0, 0, i), prev, close)
		prev = close
	}
	ds := market.NewDataset()
	ds.Add(market.NewSeries(code, bars))
	return ds
}

func TestByName(t *testing.T) {
	cfg := config.Default()

	for _, name := range []string{"noop", "open-once", "momentum", "MOMENTUM", " noop "} {
		s, err := ByName(name, cfg)
		require.NoError(t, err, name)
		require.NotNil(t, s)
	}

	_, err := ByName("bogus", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown strategy "bogus"`)
	assert.Contains(t, err.Error(), "momentum, noop, open-once")
}

func TestNoopNeverTrades(t *testing.T) {
	e := backtest.NewEngine(Noop{}, flatSeries("600000", 5, 10.0), config.Default())

	res, err := e.Run(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.InDelta(t, 1_000_000, res.Equity.Final(), 1e-6)
}

func TestOpenOnceBuysEachInstrumentOnce(t *testing.T) {
	cfg := config.Default()
	e := backtest.NewEngine(NewOpenOnce(cfg), flatSeries("600000", 5, 10.0), cfg)

	res, err := e.Run(time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	buy := res.Trades[0]
	assert.Equal(t, broker.Buy, buy.Side)
	assert.Equal(t, "600000", buy.Code)
	assert.True(t, buy.Date.Equal(market.Day(2024, 1, 2)))
	assert.Equal(t, 1, res.Summary.OpenPositions)
}

func TestMomentumEntersAfterBreakout(t *testing.T) {
	cfg := config.Default()
	// 70 straight sessions of gains: enough history for the 60-day
	// breakout filter, first passing rebalance at session 60
	e := backtest.NewEngine(NewMomentum(cfg), trendSeries("600000", 70, 70), cfg)

	res, err := e.Run(time.Time{}, time.Time{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	buy := res.Trades[0]
	assert.Equal(t, broker.Buy, buy.Side)
	assert.True(t, buy.Date.Equal(market.Day(2024, 1, 2).AddDate(0, 0, 60)))
	assert.GreaterOrEqual(t, buy.Shares, broker.LotSize)
	assert.Equal(t, 1, res.Summary.OpenPositions)
	assert.Empty(t, res.Closed)
}

func TestMomentumExitsWhenTrendBreaks(t *testing.T) {
	cfg := config.Default()
	// the uptrend rolls over after session 64: the strategy exit (MA break
	// or five straight down closes) should close the position
	e := backtest.NewEngine(NewMomentum(cfg), trendSeries("600000", 75, 64), cfg)

	res, err := e.Run(time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, res.Closed, 1)
	sell := res.Closed[0]
	assert.Equal(t, broker.Sell, sell.Side)
	assert.Empty(t, sell.StopReason)
	assert.Equal(t, 0, res.Summary.OpenPositions)
}

func TestMomentumIgnoresFlatMarkets(t *testing.T) {
	cfg := config.Default()
	e := backtest.NewEngine(NewMomentum(cfg), flatSeries("600000", 70, 10.0), cfg)

	res, err := e.Run(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}
