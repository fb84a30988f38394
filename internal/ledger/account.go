// Package ledger implements the money and inventory accounting for agents.
// All currency amounts are integer; every mutation method validates fully
// before touching state, so a rejected call has zero side effects.
package ledger

import (
	"macrosim.com/pkg/xerr"
)

// ReserveType selects one of the cash reservation buckets. Reservations
// earmark cash for an obligation (an open buy order, the wage bill, accrued
// tax) so a multi-step transaction cannot be invalidated by the agent
// spending the same cash elsewhere before settlement.
type ReserveType uint8

const (
	ReserveNone ReserveType = iota
	ReserveOrders
	ReserveWages
	ReserveTax
)

func (r ReserveType) String() string {
	switch r {
	case ReserveNone:
		return "none"
	case ReserveOrders:
		return "orders"
	case ReserveWages:
		return "wages"
	case ReserveTax:
		return "tax"
	default:
		return "unknown"
	}
}

// Account is an agent's cash position. ReserveMoney is always the sum of the
// three buckets, and for ordinary agents ReserveMoney <= Money. The monetary
// authority is exempt: it issues the unit of account and may run an unbounded
// negative balance, with the system-wide identity sum(Money) == 0.
type Account struct {
	Money         int64
	ReserveMoney  int64
	ReserveOrders int64
	ReserveWages  int64
	ReserveTax    int64

	// MonetaryAuthority disables every reserve and solvency check.
	MonetaryAuthority bool
}

// Receive credits the account. A negative amount delegates to Spend so the
// insolvency checks still apply.
func (a *Account) Receive(amount int64) error {
	if amount < 0 {
		return a.Spend(-amount, ReserveNone)
	}
	a.Money += amount
	return nil
}

// Spend debits the account. With ReserveNone the spend must not dip into
// reserved cash; with a specific bucket the amount is taken out of that
// bucket (and the aggregate) as it is spent.
func (a *Account) Spend(amount int64, from ReserveType) error {
	if a.MonetaryAuthority {
		a.Money -= amount
		return nil
	}
	if amount < 0 {
		if from != ReserveNone {
			return xerr.New(xerr.RequestParamsError, "spending a negative amount from a reserve")
		}
		return a.Receive(-amount)
	}
	if amount > a.Money {
		return xerr.Newf(xerr.InsufficientFunds, "spend %d exceeds balance %d", amount, a.Money)
	}
	switch from {
	case ReserveNone:
		if amount+a.ReserveMoney > a.Money {
			return xerr.Newf(xerr.InsufficientFreeFunds, "spend %d dips into reserves", amount)
		}
		a.Money -= amount
		return nil
	case ReserveOrders:
		if amount > a.ReserveOrders {
			return xerr.Newf(xerr.InsufficientFreeFunds, "order spend %d exceeds reserve %d", amount, a.ReserveOrders)
		}
		a.ReserveOrders -= amount
	case ReserveWages:
		if amount > a.ReserveWages {
			return xerr.Newf(xerr.InsufficientFreeFunds, "wage spend %d exceeds reserve %d", amount, a.ReserveWages)
		}
		a.ReserveWages -= amount
	case ReserveTax:
		if amount > a.ReserveTax {
			return xerr.Newf(xerr.InsufficientFreeFunds, "tax spend %d exceeds reserve %d", amount, a.ReserveTax)
		}
		a.ReserveTax -= amount
	default:
		return xerr.New(xerr.RequestParamsError, "invalid reserve type")
	}
	a.Money -= amount
	a.ReserveMoney -= amount
	return nil
}

// ChangeReserve moves cash into (delta > 0) or out of (delta < 0) a bucket.
// The mutation is atomic: either both the bucket and the aggregate move, or
// nothing changes.
func (a *Account) ChangeReserve(delta int64, rt ReserveType) error {
	if rt == ReserveNone {
		return xerr.New(xerr.RequestParamsError, "must specify a reserve bucket")
	}
	if delta == 0 {
		return nil
	}
	bucket := a.bucket(rt)
	if bucket == nil {
		return xerr.New(xerr.RequestParamsError, "invalid reserve type")
	}
	if delta > 0 {
		if !a.MonetaryAuthority && delta+a.ReserveMoney > a.Money {
			return xerr.Newf(xerr.InsufficientFreeFunds, "reserve %d exceeds balance %d", delta+a.ReserveMoney, a.Money)
		}
	} else {
		if *bucket < -delta {
			return xerr.Newf(xerr.NegativeReserve, "%s reserve %d cannot release %d", rt, *bucket, -delta)
		}
	}
	*bucket += delta
	a.ReserveMoney += delta
	return nil
}

// FreeMoney is the cash not pledged to any bucket.
func (a *Account) FreeMoney() int64 {
	return a.Money - a.ReserveMoney
}

func (a *Account) bucket(rt ReserveType) *int64 {
	switch rt {
	case ReserveOrders:
		return &a.ReserveOrders
	case ReserveWages:
		return &a.ReserveWages
	case ReserveTax:
		return &a.ReserveTax
	default:
		return nil
	}
}
