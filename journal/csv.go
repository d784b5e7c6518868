package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// tradeHeader is the fixed column order of the trade-log export.
var tradeHeader = []string{
	"date", "code", "direction", "price", "shares",
	"commission", "stamp_tax", "total_cost",
	"pnl", "pnl_pct", "hold_days", "stop_reason",
}

var equityHeader = []string{"date", "equity", "cash", "drawdown"}

// CSVJournal streams trades and equity snapshots to two CSV files.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := ew.Write(equityHeader); err != nil {
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSVJournal) RecordTrade(t broker.TradeRecord) error {
	if err := j.trades.Write(tradeRow(t)); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Date.Format("2006-01-02"),
		f(e.Equity),
		f(e.Cash),
		f(e.Drawdown),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

// ExportTrades writes a complete trade log to a single CSV file.
func ExportTrades(path string, trades []broker.TradeRecord) error {
	tf, err := os.Create(path)
	if err != nil {
		return err
	}
	defer tf.Close()

	w := csv.NewWriter(tf)
	if err := w.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write(tradeRow(t)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadTrades loads a trade-log export back into records, inverting
// ExportTrades exactly.
func ReadTrades(path string) ([]broker.TradeRecord, error) {
	tf, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	rows, err := csv.NewReader(tf).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) != len(tradeHeader) {
		return nil, fmt.Errorf("%s: not a trade-log export", path)
	}

	var out []broker.TradeRecord
	for _, row := range rows[1:] {
		date, err := market.ParseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad trade date %q: %w", row[0], err)
		}
		shares, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("bad share count %q: %w", row[4], err)
		}
		t := broker.TradeRecord{
			Code:       row[1],
			Side:       broker.Side(row[2]),
			Date:       date,
			Shares:     shares,
			StopReason: row[11],
		}
		if t.Price, err = strconv.ParseFloat(row[3], 64); err != nil {
			return nil, err
		}
		if t.Commission, err = strconv.ParseFloat(row[5], 64); err != nil {
			return nil, err
		}
		if t.StampTax, err = strconv.ParseFloat(row[6], 64); err != nil {
			return nil, err
		}
		if t.TotalCost, err = strconv.ParseFloat(row[7], 64); err != nil {
			return nil, err
		}
		if t.Side == broker.Sell {
			if t.PnL, err = strconv.ParseFloat(row[8], 64); err != nil {
				return nil, err
			}
			if t.PnLPct, err = strconv.ParseFloat(row[9], 64); err != nil {
				return nil, err
			}
			if t.HoldDays, err = strconv.Atoi(row[10]); err != nil {
				return nil, err
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func tradeRow(t broker.TradeRecord) []string {
	row := []string{
		t.Date.Format("2006-01-02"),
		t.Code,
		string(t.Side),
		f(t.Price),
		strconv.Itoa(t.Shares),
		f(t.Commission),
		f(t.StampTax),
		f(t.TotalCost),
		"", "", "",
		t.StopReason,
	}
	if t.Side == broker.Sell {
		row[8] = f(t.PnL)
		row[9] = f(t.PnLPct)
		row[10] = strconv.Itoa(t.HoldDays)
	}
	return row
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
