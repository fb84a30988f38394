// Package matching implements the price/time-priority order book used by the
// commodity markets. The book only moves order quantities around; every
// balance change is delegated to the accounting callback, so the ledger stays
// the single authority on cash and inventory.
package matching

import (
	"macrosim.com/pkg/xerr"
)

type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Op is the accounting operation reported for an order.
type Op uint8

const (
	// OpAdd: the order enters the market; reserve cash (buy) or pledge
	// inventory (sell) for the full amount at the order's limit price.
	OpAdd Op = iota + 1
	// OpFill: a trade happened; settle amount units at the trade price.
	OpFill
	// OpRemove: the order leaves the market; release the reservation for
	// the remaining unfilled amount.
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpFill:
		return "fill"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Order is a resting or incoming limit order. Amount is decremented by
// partial fills; the order leaves the book when it reaches zero.
type Order struct {
	ID      int64 // negative, allocated by IDSource
	Side    Side
	Price   int64
	Amount  int64
	AgentID int64

	// KeepInQueue=false marks "do not rest in book": any unfilled
	// remainder is discarded (and its reservation released) instead of
	// being queued.
	KeepInQueue bool
}

// IDSource allocates order ids in the negative space, disjoint from the
// non-negative entity ids. Owned by the simulation so ids stay unique across
// every book in a run.
type IDSource struct {
	last int64
}

// Next returns the next order id: -1, -2, ...
func (s *IDSource) Next() int64 {
	s.last--
	return s.last
}

// NewOrder validates and builds an order. A non-positive amount is a
// validation error raised here, never deferred to matching time.
func NewOrder(ids *IDSource, side Side, price, amount, agentID int64) (*Order, error) {
	if amount <= 0 {
		return nil, xerr.New(xerr.RequestParamsError, "order amount must be strictly positive")
	}
	return &Order{
		ID:          ids.Next(),
		Side:        side,
		Price:       price,
		Amount:      amount,
		AgentID:     agentID,
		KeepInQueue: true,
	}, nil
}

// Accounting receives every balance-affecting order event. Implementations
// must validate-then-mutate so a returned error leaves all state unchanged.
type Accounting interface {
	// OnOrder reports op for the order. For OpFill, amount and price are
	// the traded quantity and the resting order's price; for OpAdd and
	// OpRemove they are the (remaining) order amount and the order's own
	// limit price.
	OnOrder(o *Order, op Op, amount, price int64) error
}

// TradeLog is the optional per-fill log sink. A nil sink skips logging.
type TradeLog interface {
	LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64)
}
