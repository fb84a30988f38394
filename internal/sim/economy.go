package sim

import (
	"fmt"

	"macrosim.com/internal/entity"
	"macrosim.com/internal/ledger"
	"macrosim.com/internal/matching"
	"macrosim.com/pkg/xerr"
)

// KindLocation and friends are the entity kinds the economy layer creates.
const (
	KindLocation  = "location"
	KindCommodity = "commodity"
	KindMarket    = "market"
	KindAgent     = "agent"
)

// Location is a place agents live and markets sit. Factors scales the
// productivity of each commodity produced here; absent entries default to 1.
type Location struct {
	entity.Base
	Factors map[entity.ID]float64
}

// NewLocation builds a location with no productivity adjustments.
func NewLocation(name string) *Location {
	return &Location{
		Base:    entity.Base{Name: name, Kind: KindLocation},
		Factors: make(map[entity.ID]float64),
	}
}

// Factor returns the local productivity multiplier for a commodity.
func (l *Location) Factor(commodityID entity.ID) float64 {
	if f, ok := l.Factors[commodityID]; ok {
		return f
	}
	return 1.0
}

// Commodity is a tradable good with a base units-per-worker productivity.
type Commodity struct {
	entity.Base
	Productivity float64
}

// NewCommodity builds a commodity.
func NewCommodity(name string, productivity float64) *Commodity {
	return &Commodity{
		Base:         entity.Base{Name: name, Kind: KindCommodity},
		Productivity: productivity,
	}
}

// Market trades one commodity at one location. The order book owns matching;
// the market wires its accounting and trade log back into the simulation.
type Market struct {
	entity.Base
	LocationID  entity.ID
	CommodityID entity.ID
	Book        *matching.Book
}

// LastPrice returns the most recent traded price, or fallback when the
// market has never traded.
func (m *Market) LastPrice(fallback int64) int64 {
	if p, _, ok := m.Book.LastTrade(); ok {
		return p
	}
	return fallback
}

// Agent is an economic actor with money, inventory and decision scratch
// space. An agent with DelegateTo set books all money movements against the
// delegate's account instead of its own.
type Agent struct {
	entity.Base
	Account    ledger.Account
	Inventory  ledger.Inventory
	LocationID entity.ID
	IsEmployer bool
	DelegateTo entity.ID
	scratch    Scratch
}

// NewAgent builds an agent at a location with an opening money balance.
func NewAgent(name string, locationID entity.ID, money int64) *Agent {
	return &Agent{
		Base:       entity.Base{Name: name, Kind: KindAgent},
		Account:    ledger.Account{Money: money},
		LocationID: locationID,
		DelegateTo: entity.None,
	}
}

// ActionScratch exposes the agent's staging area to the driver.
func (a *Agent) ActionScratch() *Scratch { return &a.scratch }

// AgentState lets types that embed Agent expose the ledger side of
// themselves to the driver.
func (a *Agent) AgentState() *Agent { return a }

// Ledgered is any entity carrying an agent ledger, either an Agent itself or
// a behaviour type embedding one.
type Ledgered interface {
	entity.Entity
	AgentState() *Agent
}

// DelegateAccountTo routes the agent's money operations to another agent's
// account. Used by public-sector arms that spend against the treasury.
func (a *Agent) DelegateAccountTo(id entity.ID) { a.DelegateTo = id }

// AgentByID resolves an entity id to an agent.
func (s *Simulation) AgentByID(id entity.ID) (*Agent, error) {
	e, err := s.Registry.Get(id)
	if err != nil {
		return nil, err
	}
	l, ok := e.(Ledgered)
	if !ok {
		return nil, xerr.Newf(xerr.RequestParamsError, "entity %d (%s) is not an agent", id, e.EntityKind())
	}
	return l.AgentState(), nil
}

// AccountFor returns the ledger account an agent's money movements book
// against, following at most one level of delegation.
func (s *Simulation) AccountFor(a *Agent) (*ledger.Account, error) {
	if a.DelegateTo == entity.None {
		return &a.Account, nil
	}
	d, err := s.AgentByID(a.DelegateTo)
	if err != nil {
		return nil, fmt.Errorf("resolve account delegate for %q: %w", a.EntityName(), err)
	}
	return &d.Account, nil
}

// Productivity returns units produced per worker for a commodity at a
// location.
func (s *Simulation) Productivity(commodityID, locationID entity.ID) (float64, error) {
	ce, err := s.Registry.Get(commodityID)
	if err != nil {
		return 0, err
	}
	c, ok := ce.(*Commodity)
	if !ok {
		return 0, xerr.Newf(xerr.RequestParamsError, "entity %d is not a commodity", commodityID)
	}
	le, err := s.Registry.Get(locationID)
	if err != nil {
		return 0, err
	}
	l, ok := le.(*Location)
	if !ok {
		return 0, xerr.Newf(xerr.RequestParamsError, "entity %d is not a location", locationID)
	}
	return c.Productivity * l.Factor(commodityID), nil
}

// bookAccounting bridges order book events into the ledger. Bids pledge
// money into the orders bucket at their limit price; asks pledge inventory
// units. Fills trade at the resting price: the buyer releases the pledge at
// its own limit, spends at the traded price and takes delivery at cost,
// while the seller surrenders reserved units and receives the proceeds.
type bookAccounting struct {
	s           *Simulation
	commodityID entity.ID
}

func (b bookAccounting) OnOrder(o *matching.Order, op matching.Op, amount, price int64) error {
	a, err := b.s.AgentByID(entity.ID(o.AgentID))
	if err != nil {
		return fmt.Errorf("order %d accounting (%s): %w", o.ID, op, err)
	}
	acct, err := b.s.AccountFor(a)
	if err != nil {
		return err
	}
	lot := a.Inventory.Lot(int64(b.commodityID))

	switch op {
	case matching.OpAdd:
		if o.Side == matching.Buy {
			return acct.ChangeReserve(amount*price, ledger.ReserveOrders)
		}
		return lot.ChangeReserve(amount)
	case matching.OpRemove:
		if o.Side == matching.Buy {
			return acct.ChangeReserve(-amount*price, ledger.ReserveOrders)
		}
		return lot.ChangeReserve(-amount)
	case matching.OpFill:
		if o.Side == matching.Buy {
			if err := acct.ChangeReserve(-amount*o.Price, ledger.ReserveOrders); err != nil {
				return err
			}
			if err := acct.Spend(amount*price, ledger.ReserveNone); err != nil {
				return err
			}
			return lot.Add(amount, amount*price)
		}
		if _, err := lot.Remove(amount, true); err != nil {
			return err
		}
		return acct.Receive(amount * price)
	}
	return xerr.Newf(xerr.ServerCommonError, "unknown order accounting op %d", op)
}
