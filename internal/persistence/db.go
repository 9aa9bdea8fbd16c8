// Package persistence implements every internal/ports repository
// interface against a single sqlite database file, using the pure-Go
// modernc.org/sqlite driver (spec §6 persistence layout), grounded on
// the teacher's internal/database.DB wrapper and its WAL-mode dsn.
package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the single sqlite connection every repository in this
// package shares.
type DB struct {
	conn *sql.DB
}

// Open creates the database directory if needed, opens a WAL-mode
// connection, and creates every table this engine needs if absent
// (spec §6: orders, candles, risk_state, strategies,
// performance_snapshots, plus the supplemented optimization_history and
// reoptimization_triggers tables).
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persistence: create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("persistence: open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("persistence: ping database: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn exposes the underlying *sql.DB for callers outside this package
// that need PRAGMA-level access (internal/reliability's integrity
// checks and checkpoints).
func (db *DB) Conn() *sql.DB { return db.conn }

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price TEXT NOT NULL,
	quantity TEXT NOT NULL,
	order_type TEXT NOT NULL,
	status TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
CREATE INDEX IF NOT EXISTS idx_orders_timestamp ON orders(timestamp);

CREATE TABLE IF NOT EXISTS candles (
	symbol TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	open TEXT NOT NULL,
	high TEXT NOT NULL,
	low TEXT NOT NULL,
	close TEXT NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, timestamp)
);

CREATE TABLE IF NOT EXISTS risk_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload BLOB NOT NULL,
	reference_date TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS strategies (
	symbol TEXT PRIMARY KEY,
	strategy_mode TEXT NOT NULL,
	config_json TEXT NOT NULL,
	is_active INTEGER NOT NULL,
	last_updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS performance_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	equity TEXT NOT NULL,
	drawdown_pct REAL NOT NULL,
	sharpe_rolling_30d REAL NOT NULL,
	win_rate_rolling_30d REAL NOT NULL,
	regime TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_perf_symbol_ts ON performance_snapshots(symbol, timestamp);

CREATE TABLE IF NOT EXISTS optimization_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	run_json TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opthist_symbol ON optimization_history(symbol);

CREATE TABLE IF NOT EXISTS reoptimization_triggers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	reason TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	handled INTEGER NOT NULL DEFAULT 0
);
`

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("persistence: migrate schema: %w", err)
	}
	return nil
}
