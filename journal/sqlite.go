package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Heilo-qaq/ai-stock-advisor/broker"
	"github.com/Heilo-qaq/ai-stock-advisor/market"
)

// SQLiteJournal persists trades, equity and run summaries keyed by run id.
type SQLiteJournal struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path, runID string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db, runID: runID}, nil
}

func (j *SQLiteJournal) RecordTrade(t broker.TradeRecord) error {
	var pnl, pnlPct sql.NullFloat64
	var holdDays sql.NullInt64
	if t.Side == broker.Sell {
		pnl = sql.NullFloat64{Float64: t.PnL, Valid: true}
		pnlPct = sql.NullFloat64{Float64: t.PnLPct, Valid: true}
		holdDays = sql.NullInt64{Int64: int64(t.HoldDays), Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, date, code, direction, price, shares, commission, stamp_tax, total_cost, pnl, pnl_pct, hold_days, stop_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, t.Date.Format("2006-01-02"), t.Code, string(t.Side),
		t.Price, t.Shares, t.Commission, t.StampTax, t.TotalCost,
		pnl, pnlPct, holdDays, t.StopReason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, date, equity, cash, drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		j.runID, e.Date.Format("2006-01-02"), e.Equity, e.Cash, e.Drawdown,
	)
	return err
}

func (j *SQLiteJournal) RecordRun(r RunSummary) error {
	created := r.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, strategy, start_date, end_date, initial_capital, final_equity, total_return, max_drawdown, trades, wins, losses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, created, r.Strategy,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
		r.InitialCapital, r.FinalEquity, r.TotalReturn, r.MaxDrawdown,
		r.Trades, r.Wins, r.Losses,
	)
	return err
}

func (j *SQLiteJournal) GetRun(runID string) (RunSummary, error) {
	var r RunSummary
	var start, end string
	err := j.db.QueryRow(`
		SELECT run_id, created, strategy, start_date, end_date, initial_capital,
		       final_equity, total_return, max_drawdown, trades, wins, losses
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Strategy, &start, &end, &r.InitialCapital,
		&r.FinalEquity, &r.TotalReturn, &r.MaxDrawdown, &r.Trades, &r.Wins, &r.Losses,
	)
	if err != nil {
		return RunSummary{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	if r.Start, err = market.ParseDate(start); err != nil {
		return RunSummary{}, err
	}
	if r.End, err = market.ParseDate(end); err != nil {
		return RunSummary{}, err
	}
	return r, nil
}

// ListTradesByRun returns the run's trade log in insertion order.
func (j *SQLiteJournal) ListTradesByRun(runID string) ([]broker.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT date, code, direction, price, shares, commission, stamp_tax, total_cost, pnl, pnl_pct, hold_days, stop_reason
		FROM trades WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []broker.TradeRecord
	for rows.Next() {
		var t broker.TradeRecord
		var date, direction string
		var pnl, pnlPct sql.NullFloat64
		var holdDays sql.NullInt64
		if err := rows.Scan(&date, &t.Code, &direction, &t.Price, &t.Shares,
			&t.Commission, &t.StampTax, &t.TotalCost, &pnl, &pnlPct, &holdDays, &t.StopReason); err != nil {
			return nil, err
		}
		if t.Date, err = market.ParseDate(date); err != nil {
			return nil, err
		}
		t.Side = broker.Side(direction)
		t.PnL = pnl.Float64
		t.PnLPct = pnlPct.Float64
		t.HoldDays = int(holdDays.Int64)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquityByRun returns the run's equity trajectory in date order.
func (j *SQLiteJournal) ListEquityByRun(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT date, equity, cash, drawdown
		FROM equity WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		var date string
		if err := rows.Scan(&date, &e.Equity, &e.Cash, &e.Drawdown); err != nil {
			return nil, err
		}
		if e.Date, err = market.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
