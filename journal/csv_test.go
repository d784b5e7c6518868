package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrades() []broker.TradeRecord {
	return []broker.TradeRecord{
		{
			Code: "600000", Side: broker.Buy, Price: 10.01, Shares: 500,
			Date: market.Day(2024, 1, 2), Commission: 5, TotalCost: 10.005,
		},
		{
			Code: "600000", Side: broker.Sell, Price: 10.99, Shares: 500,
			Date: market.Day(2024, 1, 10), Commission: 5, StampTax: 5.495,
			TotalCost: 15.99, PnL: 474.01, PnLPct: 0.0947, HoldDays: 8,
			StopReason: "trailing_stop",
		},
	}
}

func TestCSVJournalWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	for _, tr := range sampleTrades() {
		require.NoError(t, j.RecordTrade(tr))
	}
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Date: market.Day(2024, 1, 2), Equity: 999_990, Cash: 994_985, Drawdown: 0.00001,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 3)
	assert.Equal(t, tradeHeader, rows[0])
	assert.Equal(t, "buy", rows[1][2])
	assert.Equal(t, "", rows[1][8], "buys carry no pnl")
	assert.Equal(t, "trailing_stop", rows[2][11])

	rows = readCSV(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, equityHeader, rows[0])
	assert.Equal(t, "2024-01-02", rows[1][0])
}

func TestExportReadTradesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := sampleTrades()

	require.NoError(t, ExportTrades(path, trades))
	got, err := ReadTrades(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, trades[0].Code, got[0].Code)
	assert.Equal(t, trades[0].Side, got[0].Side)
	assert.Equal(t, trades[0].Shares, got[0].Shares)
	assert.True(t, got[0].Date.Equal(trades[0].Date))
	assert.Zero(t, got[0].PnL)

	assert.InDelta(t, trades[1].PnL, got[1].PnL, 1e-6)
	assert.InDelta(t, trades[1].PnLPct, got[1].PnLPct, 1e-6)
	assert.Equal(t, trades[1].HoldDays, got[1].HoldDays)
	assert.Equal(t, trades[1].StopReason, got[1].StopReason)
}

func TestReadTradesRejectsForeignFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := ReadTrades(path)
	assert.ErrorContains(t, err, "not a trade-log export")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}
