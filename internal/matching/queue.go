package matching

import "sort"

// OrderQueue is one side of a book, kept sorted by price priority with FIFO
// order among equal prices. Buys sort by descending price, sells ascending.
// Insertion goes after every equal-priced order, which is what gives the
// time-priority tiebreak without a separate sequence field.
type OrderQueue struct {
	side   Side
	orders []*Order
}

func NewOrderQueue(side Side) *OrderQueue {
	return &OrderQueue{side: side}
}

func (q *OrderQueue) Len() int { return len(q.orders) }

// At returns the order at position i (0 = best priority).
func (q *OrderQueue) At(i int) *Order { return q.orders[i] }

// Front returns the highest-priority order, or nil when empty.
func (q *OrderQueue) Front() *Order {
	if len(q.orders) == 0 {
		return nil
	}
	return q.orders[0]
}

// before reports whether a takes strict priority over b on this side.
func (q *OrderQueue) before(a, b *Order) bool {
	if q.side == Buy {
		return a.Price > b.Price
	}
	return a.Price < b.Price
}

// Insert places the order at its sorted position, after any existing order
// of equal price.
func (q *OrderQueue) Insert(o *Order) {
	i := sort.Search(len(q.orders), func(i int) bool {
		return q.before(o, q.orders[i])
	})
	q.orders = append(q.orders, nil)
	copy(q.orders[i+1:], q.orders[i:])
	q.orders[i] = o
}

// PopFront removes and returns the best-priority order.
func (q *OrderQueue) PopFront() *Order {
	o := q.orders[0]
	copy(q.orders, q.orders[1:])
	q.orders[len(q.orders)-1] = nil
	q.orders = q.orders[:len(q.orders)-1]
	return o
}

// Remove deletes the order with the given id, returning it or nil if the id
// is not resting here.
func (q *OrderQueue) Remove(orderID int64) *Order {
	for i, o := range q.orders {
		if o.ID == orderID {
			copy(q.orders[i:], q.orders[i+1:])
			q.orders[len(q.orders)-1] = nil
			q.orders = q.orders[:len(q.orders)-1]
			return o
		}
	}
	return nil
}
