package txlog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"macrosim.com/pkg/logger"
)

const tradeSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	market_id INTEGER NOT NULL,
	buyer_id INTEGER NOT NULL,
	seller_id INTEGER NOT NULL,
	initiator_id INTEGER NOT NULL,
	amount INTEGER NOT NULL,
	price INTEGER NOT NULL,
	sim_time REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(run_id, market_id);
`

const insertTrade = `INSERT INTO trades
(run_id, market_id, buyer_id, seller_id, initiator_id, amount, price, sim_time)
VALUES (:run_id, :market_id, :buyer_id, :seller_id, :initiator_id, :amount, :price, :sim_time)`

// tradeRow mirrors the trades table for sqlx named binding.
type tradeRow struct {
	RunID       string  `db:"run_id"`
	MarketID    int64   `db:"market_id"`
	BuyerID     int64   `db:"buyer_id"`
	SellerID    int64   `db:"seller_id"`
	InitiatorID int64   `db:"initiator_id"`
	Amount      int64   `db:"amount"`
	Price       int64   `db:"price"`
	SimTime     float64 `db:"sim_time"`
}

// SQLiteSink archives trades into a sqlite database. Rows are buffered and
// written one transaction per Flush, so the driver never waits on disk
// inside the matching path.
type SQLiteSink struct {
	runID   string
	db      *sqlx.DB
	pending []tradeRow
	flushAt int
}

// OpenSQLiteSink opens or creates the archive at path. flushAt is the
// buffered row count that triggers an automatic flush.
func OpenSQLiteSink(path, runID string, flushAt int) (*SQLiteSink, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open trade archive: %w", err)
	}
	if _, err := db.Exec(tradeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate trade archive: %w", err)
	}
	if flushAt <= 0 {
		flushAt = 256
	}
	return &SQLiteSink{runID: runID, db: db, flushAt: flushAt}, nil
}

func (s *SQLiteSink) LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64) {
	s.pending = append(s.pending, tradeRow{
		RunID:       s.runID,
		MarketID:    marketID,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		InitiatorID: initiatorID,
		Amount:      amount,
		Price:       price,
		SimTime:     simTime,
	})
	if len(s.pending) >= s.flushAt {
		if err := s.Flush(); err != nil {
			logger.Error(context.Background(), "trade archive flush failed", zap.Error(err))
		}
	}
}

// Flush writes all buffered rows in one transaction.
func (s *SQLiteSink) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, row := range s.pending {
		if _, err := tx.NamedExec(insertTrade, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *SQLiteSink) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// TradesForRun loads the archived tape for one run, oldest first.
func (s *SQLiteSink) TradesForRun(runID string) ([]Trade, error) {
	var rows []tradeRow
	err := s.db.Select(&rows, `SELECT run_id, market_id, buyer_id, seller_id,
		initiator_id, amount, price, sim_time FROM trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trade archive: %w", err)
	}
	out := make([]Trade, len(rows))
	for i, r := range rows {
		out[i] = Trade{
			RunID:       r.RunID,
			MarketID:    r.MarketID,
			BuyerID:     r.BuyerID,
			SellerID:    r.SellerID,
			InitiatorID: r.InitiatorID,
			Amount:      r.Amount,
			Price:       r.Price,
			SimTime:     r.SimTime,
		}
	}
	return out, nil
}

// MultiSink fans one tape out to several sinks.
type MultiSink []Sink

func (m MultiSink) LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64) {
	for _, s := range m {
		s.LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price, simTime)
	}
}

func (m MultiSink) Flush() error {
	var first error
	for _, s := range m {
		if err := s.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
