package ledger

import (
	"macrosim.com/pkg/xerr"
)

// InventoryLot tracks one agent's holding of one commodity: units on hand,
// the capitalized cost basis of those units, and how many units are pledged
// to outstanding sell orders.
type InventoryLot struct {
	CommodityID int64
	Amount      int64
	Cost        int64
	Reserved    int64
}

// Add places units into the lot. A zero-amount call is a pure cost
// adjustment (used to capitalize wages before any unit is finished).
func (l *InventoryLot) Add(amount, cost int64) error {
	if amount < 0 || cost < 0 {
		return xerr.New(xerr.RequestParamsError, "inventory add amounts must be non-negative")
	}
	l.Amount += amount
	l.Cost += cost
	return nil
}

// Remove takes units out of the lot and returns the cost of goods sold.
// COGS is the proportional share of the cost basis, rounded half-up
// (cost*amount + lot/2 over lot in integer arithmetic); removing the final
// units releases the remaining basis exactly, so repeated partial removals
// always sum back to the original cost.
//
// Units pledged to a sell order are protected: a plain removal may only take
// free units, and fromReserved removals only draw down the pledge.
func (l *InventoryLot) Remove(amount int64, fromReserved bool) (int64, error) {
	if amount < 0 {
		return 0, xerr.New(xerr.RequestParamsError, "inventory removal must be non-negative")
	}
	if amount > l.Amount {
		return 0, xerr.Newf(xerr.InventoryShortfall, "removing %d of %d units", amount, l.Amount)
	}
	if fromReserved {
		if amount > l.Reserved {
			return 0, xerr.Newf(xerr.InventoryShortfall, "removing %d reserved of %d pledged", amount, l.Reserved)
		}
	} else {
		if amount > l.Amount-l.Reserved {
			return 0, xerr.Newf(xerr.InventoryShortfall, "removing %d free units of %d unpledged", amount, l.Amount-l.Reserved)
		}
	}
	var cogs int64
	if amount == l.Amount {
		cogs = l.Cost
	} else {
		cogs = (l.Cost*amount + l.Amount/2) / l.Amount
	}
	l.Amount -= amount
	l.Cost -= cogs
	if fromReserved {
		l.Reserved -= amount
	}
	return cogs, nil
}

// ChangeReserve adjusts the pledged unit count. Like the cash reserves, the
// pledge can never exceed the units on hand or go negative.
func (l *InventoryLot) ChangeReserve(delta int64) error {
	next := l.Reserved + delta
	if next < 0 {
		return xerr.Newf(xerr.InventoryReserveError, "reserve %d cannot release %d", l.Reserved, -delta)
	}
	if next > l.Amount {
		return xerr.Newf(xerr.InventoryReserveError, "reserve %d exceeds %d units on hand", next, l.Amount)
	}
	l.Reserved = next
	return nil
}

// Free is the number of units not pledged to a sell order.
func (l *InventoryLot) Free() int64 { return l.Amount - l.Reserved }

// Inventory is the per-commodity lot map for one agent. Lots are created
// lazily on first access.
type Inventory struct {
	lots map[int64]*InventoryLot
}

// Lot returns the lot for a commodity, creating an empty one if needed.
func (inv *Inventory) Lot(commodityID int64) *InventoryLot {
	if inv.lots == nil {
		inv.lots = make(map[int64]*InventoryLot, 4)
	}
	lot, ok := inv.lots[commodityID]
	if !ok {
		lot = &InventoryLot{CommodityID: commodityID}
		inv.lots[commodityID] = lot
	}
	return lot
}

// Lots returns the existing lots. Callers must not assume ordering.
func (inv *Inventory) Lots() map[int64]*InventoryLot { return inv.lots }
