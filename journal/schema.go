package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	code TEXT NOT NULL,
	direction TEXT NOT NULL,
	price REAL NOT NULL,
	shares INTEGER NOT NULL,
	commission REAL NOT NULL,
	stamp_tax REAL NOT NULL,
	total_cost REAL NOT NULL,
	pnl REAL,
	pnl_pct REAL,
	hold_days INTEGER,
	stop_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	drawdown REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, date);
`
