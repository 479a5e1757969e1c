// Package analytics provides the SQLite-backed secondary store: ledger
// mutation history, gambling statistics, tax revenue, and prediction-market
// state. Ledger, stat and tax writes mirror committed balance mutations
// best-effort; market lifecycle state lives here authoritatively.
package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"bursar/service"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    mutation_type TEXT NOT NULL,
    from_account TEXT,
    to_account TEXT,
    amount INTEGER NOT NULL,
    balance_before INTEGER,
    balance_after INTEGER,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_from ON ledger_entries(from_account);
CREATE INDEX IF NOT EXISTS idx_ledger_to ON ledger_entries(to_account);

CREATE TABLE IF NOT EXISTS gambling_stats (
    account_id TEXT NOT NULL,
    game TEXT NOT NULL,
    games INTEGER NOT NULL DEFAULT 0,
    wins INTEGER NOT NULL DEFAULT 0,
    losses INTEGER NOT NULL DEFAULT 0,
    wagered INTEGER NOT NULL DEFAULT 0,
    won INTEGER NOT NULL DEFAULT 0,
    lost INTEGER NOT NULL DEFAULT 0,
    biggest_win INTEGER NOT NULL DEFAULT 0,
    biggest_loss INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (account_id, game)
);

CREATE TABLE IF NOT EXISTS tax_revenue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    amount INTEGER NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS markets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    winning_option INTEGER,
    created_at TIMESTAMP NOT NULL,
    resolved_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS market_options (
    market_id INTEGER NOT NULL REFERENCES markets(id),
    option_index INTEGER NOT NULL,
    option_text TEXT NOT NULL,
    PRIMARY KEY (market_id, option_index)
);

CREATE TABLE IF NOT EXISTS market_bets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id INTEGER NOT NULL REFERENCES markets(id),
    account_id TEXT NOT NULL,
    option_index INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bets_market ON market_bets(market_id);
`

// Store is the embedded analytics store
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the analytics database at path.
// Pass ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &service.StoreUnavailableError{Store: "analytics", Cause: err}
	}

	// SQLite allows one writer; serialize access through a single
	// connection instead of surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure analytics store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create analytics schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the analytics database
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing if fn returns nil and
// rolling back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &service.StoreUnavailableError{Store: "analytics", Cause: err}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analytics transaction: %w", err)
	}

	return nil
}
