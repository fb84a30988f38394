// Package txlog persists the trade tape. Every fill from every market flows
// through a Sink; the write-ahead log sink is the durable record for crash
// recovery and replay, and the sqlite sink is the queryable archive for
// post-run analysis.
package txlog

import (
	"github.com/google/uuid"
)

// Trade is one fill as reported by a market.
type Trade struct {
	RunID       string
	MarketID    int64
	BuyerID     int64
	SellerID    int64
	InitiatorID int64
	Amount      int64
	Price       int64
	SimTime     float64
}

// Sink receives the trade tape. LogTransaction must not block the driver;
// buffering is the sink's responsibility.
type Sink interface {
	LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64)
	Flush() error
	Close() error
}

// NewRunID returns the identifier stamped on every trade of a run, so
// archives spanning several runs stay separable.
func NewRunID() string { return uuid.NewString() }
