package crank

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	events "github.com/0x5487/orderbook-events"
)

const sinkSchema = `
CREATE TABLE IF NOT EXISTS fills (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	taker_side     TEXT    NOT NULL,
	maker_order_id TEXT    NOT NULL,
	quote_size     INTEGER NOT NULL,
	asset_size     INTEGER NOT NULL,
	maker_callback BLOB,
	taker_callback BLOB,
	created_at     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	side       TEXT    NOT NULL,
	order_id   TEXT    NOT NULL,
	asset_size INTEGER NOT NULL,
	callback   BLOB,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fills_maker ON fills(maker_order_id);
`

// SQLiteSink records drained events in a local SQLite database, one row per
// event. It gives operators a queryable trail of everything that left the
// queue without standing up external infrastructure.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sink database: %w", err)
	}
	if _, err := db.Exec(sinkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sink schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Publish writes the batch in a single transaction. Implements
// PublishEvents; failures are logged rather than returned, and the queue
// side redelivers because the batch was never acknowledged downstream.
func (s *SQLiteSink) Publish(evs ...events.Event) {
	if len(evs) == 0 {
		return
	}
	if err := s.insert(evs); err != nil {
		logger.Error("sqlite sink insert failed", "events", len(evs), "error", err)
	}
}

func (s *SQLiteSink) insert(evs []events.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fillStmt, err := tx.Prepare(
		"INSERT INTO fills(taker_side, maker_order_id, quote_size, asset_size, maker_callback, taker_callback, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer fillStmt.Close()

	outStmt, err := tx.Prepare(
		"INSERT INTO outs(side, order_id, asset_size, callback, created_at) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer outStmt.Close()

	now := time.Now().UnixNano()
	for _, ev := range evs {
		switch e := ev.(type) {
		case *events.Fill:
			// sizes go through int64: sqlite has no unsigned column type
			_, err = fillStmt.Exec(e.TakerSide.String(), e.MakerOrderID.String(),
				int64(e.QuoteSize), int64(e.AssetSize), e.MakerCallbackInfo, e.TakerCallbackInfo, now)
		case *events.Out:
			_, err = outStmt.Exec(e.Side.String(), e.OrderID.String(),
				int64(e.AssetSize), e.CallbackInfo, now)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FillCount returns the number of recorded fills.
func (s *SQLiteSink) FillCount() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM fills").Scan(&n)
	return n, err
}

// OutCount returns the number of recorded outs.
func (s *SQLiteSink) OutCount() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM outs").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
