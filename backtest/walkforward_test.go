package backtest

import (
	"testing"

	"github.com/Heilo-qaq/ai-stock-advisor/config"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optStrategy counts Optimize calls and the train slices it was handed.
type optStrategy struct {
	scriptedStrategy
	optimized  int
	trainSizes []int
}

func (s *optStrategy) Optimize(train *market.Dataset) error {
	s.optimized++
	s.trainSizes = append(s.trainSizes, len(train.TradingDates()))
	return nil
}

func walkDataset(days int) *market.Dataset {
	bars := make([]market.Bar, days)
	for i := range bars {
		d := market.Day(2024, 1, 2).AddDate(0, 0, i)
		bars[i] = flatBar(d, 10.0, 10.0)
	}
	return dataset("600000", bars...)
}

func TestRunWalkForwardSlidesWindows(t *testing.T) {
	strat := &optStrategy{}
	e := NewEngine(strat, walkDataset(10), config.Default())

	res, err := e.RunWalkForward(4, 2, 2)
	require.NoError(t, err)

	// offsets 0, 2 and 4 fit; 6 would need dates past the end
	require.Len(t, res.Periods, 3)
	assert.Equal(t, 3, strat.optimized)
	assert.Equal(t, []int{4, 4, 4}, strat.trainSizes)

	p := res.Periods[0]
	assert.True(t, p.TrainStart.Equal(market.Day(2024, 1, 2)))
	assert.True(t, p.TrainEnd.Equal(market.Day(2024, 1, 5)))
	assert.True(t, p.TestStart.Equal(market.Day(2024, 1, 6)))
	assert.True(t, p.TestEnd.Equal(market.Day(2024, 1, 7)))
	assert.True(t, res.Periods[1].TrainStart.Equal(market.Day(2024, 1, 4)))

	// flat prices, idle strategy: every period is a zero-return run
	assert.Zero(t, res.AvgReturn)
	assert.Zero(t, res.StdReturn)
	assert.Zero(t, res.PositivePeriods)
	for _, p := range res.Periods {
		assert.Zero(t, p.Trades)
	}
}

func TestRunWalkForwardErrors(t *testing.T) {
	e := NewEngine(&scriptedStrategy{}, walkDataset(10), config.Default())

	_, err := e.RunWalkForward(0, 2, 2)
	assert.ErrorContains(t, err, "must be positive")

	_, err = e.RunWalkForward(8, 4, 2)
	assert.ErrorContains(t, err, "window 8+4 exceeds 10 available dates")

	e = NewEngine(&scriptedStrategy{}, market.NewDataset(), config.Default())
	_, err = e.RunWalkForward(4, 2, 2)
	assert.ErrorContains(t, err, "no instrument data")
}
