package matching

import (
	"macrosim.com/pkg/xerr"
)

// namedKey identifies an agent's labelled order slot. At most one open order
// exists per slot; resubmitting under the same label cancels the old order
// first, so recurring decision events can repost without tracking ids.
type namedKey struct {
	agentID int64
	name    string
	side    Side
}

// Book is the order book for one commodity at one location. It holds the two
// priority queues and the last-trade marker; the accounting callback owns
// every cash and inventory consequence.
type Book struct {
	MarketID    int64
	CommodityID int64
	LocationID  int64

	buys  *OrderQueue
	sells *OrderQueue

	acct Accounting
	log  TradeLog
	now  func() float64

	lastPrice int64
	lastTime  float64
	hasTraded bool

	named map[namedKey]int64
	byID  map[int64]namedKey
}

// NewBook builds a book. now supplies simulation time for the last-trade
// marker and the trade log; log may be nil.
func NewBook(marketID, commodityID, locationID int64, acct Accounting, log TradeLog, now func() float64) *Book {
	if now == nil {
		now = func() float64 { return 0 }
	}
	return &Book{
		MarketID:    marketID,
		CommodityID: commodityID,
		LocationID:  locationID,
		buys:        NewOrderQueue(Buy),
		sells:       NewOrderQueue(Sell),
		acct:        acct,
		log:         log,
		now:         now,
		named:       make(map[namedKey]int64),
		byID:        make(map[int64]namedKey),
	}
}

func (b *Book) Buys() *OrderQueue  { return b.buys }
func (b *Book) Sells() *OrderQueue { return b.sells }

// BestBid returns the highest resting buy price.
func (b *Book) BestBid() (int64, bool) {
	if o := b.buys.Front(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// BestAsk returns the lowest resting sell price.
func (b *Book) BestAsk() (int64, bool) {
	if o := b.sells.Front(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// LastTrade returns the price and simulation time of the most recent fill.
// ok is false until the book has traded at least once.
func (b *Book) LastTrade() (price int64, t float64, ok bool) {
	return b.lastPrice, b.lastTime, b.hasTraded
}

// Submit routes the order to the matching loop for its side.
func (b *Book) Submit(o *Order) error {
	switch o.Side {
	case Buy:
		return b.SubmitBuy(o)
	case Sell:
		return b.SubmitSell(o)
	default:
		return xerr.New(xerr.RequestParamsError, "order side is not set")
	}
}

// SubmitBuy runs the matching algorithm for an incoming buy order:
// reserve at the limit price, trade against the ask queue at each resting
// order's price while the prices cross, then rest (or discard) the
// remainder. Self-trading is not special-cased; an agent crossing its own
// resting order settles as an ordinary fill.
func (b *Book) SubmitBuy(o *Order) error {
	if o.Side != Buy {
		return xerr.New(xerr.RequestParamsError, "SubmitBuy needs a buy order")
	}
	return b.match(o, b.sells, b.buys, func(incoming, resting int64) bool {
		return incoming >= resting // buy crosses when bid >= best ask
	})
}

// SubmitSell is the mirror image of SubmitBuy.
func (b *Book) SubmitSell(o *Order) error {
	if o.Side != Sell {
		return xerr.New(xerr.RequestParamsError, "SubmitSell needs a sell order")
	}
	return b.match(o, b.buys, b.sells, func(incoming, resting int64) bool {
		return incoming <= resting // sell crosses when ask <= best bid
	})
}

func (b *Book) match(o *Order, opposite, own *OrderQueue, crosses func(incoming, resting int64) bool) error {
	if err := b.acct.OnOrder(o, OpAdd, o.Amount, o.Price); err != nil {
		return err
	}
	for o.Amount > 0 {
		resting := opposite.Front()
		if resting == nil || !crosses(o.Price, resting.Price) {
			break
		}
		// Trade at the resting order's price: the aggressor gets the
		// price improvement, never the book.
		price := resting.Price
		fill := o.Amount
		if resting.Amount < fill {
			fill = resting.Amount
		}
		if err := b.acct.OnOrder(resting, OpFill, fill, price); err != nil {
			return err
		}
		if err := b.acct.OnOrder(o, OpFill, fill, price); err != nil {
			return err
		}
		resting.Amount -= fill
		o.Amount -= fill
		b.lastPrice = price
		b.lastTime = b.now()
		b.hasTraded = true
		if b.log != nil {
			buyer, seller := o.AgentID, resting.AgentID
			if o.Side == Sell {
				buyer, seller = resting.AgentID, o.AgentID
			}
			b.log.LogTransaction(b.MarketID, buyer, seller, o.AgentID, fill, price, b.lastTime)
		}
		if resting.Amount == 0 {
			opposite.PopFront()
			b.forget(resting.ID)
		}
	}
	if o.Amount > 0 {
		if !o.KeepInQueue {
			// Do-not-rest order: release the reservation made above for
			// whatever did not fill.
			return b.acct.OnOrder(o, OpRemove, o.Amount, o.Price)
		}
		own.Insert(o)
	}
	return nil
}

// Remove cancels a resting order by id and releases its remaining
// reservation. An unknown id is a no-op: the order may have filled since the
// caller last saw it, and a stale id is not an error.
func (b *Book) Remove(orderID int64) error {
	o := b.buys.Remove(orderID)
	if o == nil {
		o = b.sells.Remove(orderID)
	}
	if o == nil {
		return nil
	}
	b.forget(orderID)
	return b.acct.OnOrder(o, OpRemove, o.Amount, o.Price)
}

// SubmitNamed submits an order under a label, cancelling any previous order
// the agent holds under the same (label, side) slot first.
func (b *Book) SubmitNamed(name string, o *Order) error {
	key := namedKey{agentID: o.AgentID, name: name, side: o.Side}
	if oldID, ok := b.named[key]; ok {
		if err := b.Remove(oldID); err != nil {
			return err
		}
	}
	if err := b.Submit(o); err != nil {
		return err
	}
	if o.Amount > 0 && o.KeepInQueue {
		b.named[key] = o.ID
		b.byID[o.ID] = key
	}
	return nil
}

func (b *Book) forget(orderID int64) {
	if key, ok := b.byID[orderID]; ok {
		delete(b.byID, orderID)
		delete(b.named, key)
	}
}
