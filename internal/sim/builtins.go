package sim

import (
	"macrosim.com/internal/entity"
	"macrosim.com/internal/ledger"
	"macrosim.com/internal/matching"
	"macrosim.com/pkg/xerr"
)

// Built-in data request kinds.
const (
	DataProductivity = "productivity"
	DataCommodityID  = "commodity_id"
	DataMarketPrice  = "market_price"
)

func (s *Simulation) registerBuiltins() {
	s.RegisterActionType(ActionPayWages, handlePayWages)
	s.RegisterActionType(ActionProduceFromLabour, handleProduce)
	s.RegisterActionType(ActionNamedBuy, handleNamedBuy)
	s.RegisterActionType(ActionNamedSell, handleNamedSell)
	s.RegisterActionType(ActionDiscardBuy, handleDiscardBuy)
	s.RegisterActionType(ActionDiscardSell, handleDiscardSell)
	s.RegisterActionType(ActionScheduleCallback, handleScheduleCallback)
	s.RegisterActionType(ActionScheduleDecision, handleScheduleDecision)

	s.RegisterDataKind(DataProductivity, []string{"commodity"}, provideProductivity)
	s.RegisterDataKind(DataCommodityID, []string{"name"}, provideCommodityID)
	s.RegisterDataKind(DataMarketPrice, []string{"commodity", "fallback"}, provideMarketPrice)
}

func actingAgent(s *Simulation, e entity.Entity) (*Agent, error) {
	l, ok := e.(Ledgered)
	if !ok {
		return nil, xerr.Newf(xerr.RequestParamsError, "entity %q (%s) has no ledger", e.EntityName(), e.EntityKind())
	}
	return l.AgentState(), nil
}

func handlePayWages(s *Simulation, e entity.Entity, act Action) error {
	pw := act.(PayWages)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	hhID, ok := s.households[a.LocationID]
	if !ok {
		return xerr.Newf(xerr.RecordNotFound, "no household sector at location %d", a.LocationID)
	}
	hh, err := s.AgentByID(hhID)
	if err != nil {
		return err
	}
	acct, err := s.AccountFor(a)
	if err != nil {
		return err
	}
	// Draw the wage reservation down first, topping up from free cash.
	fromWages := pw.Payment
	if fromWages > acct.ReserveWages {
		fromWages = acct.ReserveWages
	}
	if fromWages > 0 {
		if err := acct.Spend(fromWages, ledger.ReserveWages); err != nil {
			return err
		}
	}
	if rest := pw.Payment - fromWages; rest > 0 {
		if err := acct.Spend(rest, ledger.ReserveNone); err != nil {
			return err
		}
	}
	return hh.Account.Receive(pw.Payment)
}

func handleProduce(s *Simulation, e entity.Entity, act Action) error {
	pr := act.(ProduceFromLabour)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	prod, err := s.Productivity(pr.CommodityID, a.LocationID)
	if err != nil {
		return err
	}
	units := int64(prod * float64(pr.Workers))
	return a.Inventory.Lot(int64(pr.CommodityID)).Add(units, pr.Payment)
}

func submitOrder(s *Simulation, a *Agent, commodityID entity.ID, side matching.Side, price, amount int64, name string, keep bool) error {
	m, err := s.MarketFor(a.LocationID, commodityID)
	if err != nil {
		return err
	}
	o, err := matching.NewOrder(&s.orderIDs, side, price, amount, int64(a.EntityID()))
	if err != nil {
		return err
	}
	o.KeepInQueue = keep
	if name != "" {
		return m.Book.SubmitNamed(name, o)
	}
	return m.Book.Submit(o)
}

func handleNamedBuy(s *Simulation, e entity.Entity, act Action) error {
	nb := act.(PlaceNamedBuy)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	return submitOrder(s, a, nb.CommodityID, matching.Buy, nb.Price, nb.Amount, nb.Name, true)
}

func handleNamedSell(s *Simulation, e entity.Entity, act Action) error {
	ns := act.(PlaceNamedSell)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	return submitOrder(s, a, ns.CommodityID, matching.Sell, ns.Price, ns.Amount, ns.Name, true)
}

func handleDiscardBuy(s *Simulation, e entity.Entity, act Action) error {
	db := act.(PlaceDiscardBuy)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	return submitOrder(s, a, db.CommodityID, matching.Buy, db.Price, db.Amount, "", false)
}

func handleDiscardSell(s *Simulation, e entity.Entity, act Action) error {
	ds := act.(PlaceDiscardSell)
	a, err := actingAgent(s, e)
	if err != nil {
		return err
	}
	return submitOrder(s, a, ds.CommodityID, matching.Sell, ds.Price, ds.Amount, "", false)
}

func handleScheduleCallback(s *Simulation, e entity.Entity, act Action) error {
	sc := act.(ScheduleCallback)
	s.ScheduleOnce(e.EntityID(), sc.Callback, sc.Delay, sc.Payload)
	return nil
}

func handleScheduleDecision(s *Simulation, e entity.Entity, act Action) error {
	sd := act.(ScheduleDecision)
	s.ScheduleDecisionOnce(e.EntityID(), sd.Callback, sd.Delay, sd.Requests)
	return nil
}

func provideProductivity(s *Simulation, e entity.Entity, params map[string]interface{}) (interface{}, error) {
	a, err := actingAgent(s, e)
	if err != nil {
		return nil, err
	}
	comID, ok := params["commodity"].(entity.ID)
	if !ok {
		return nil, xerr.New(xerr.RequestParamsError, "parameter commodity must be an entity id")
	}
	return s.Productivity(comID, a.LocationID)
}

func provideCommodityID(s *Simulation, e entity.Entity, params map[string]interface{}) (interface{}, error) {
	name, ok := params["name"].(string)
	if !ok {
		return nil, xerr.New(xerr.RequestParamsError, "parameter name must be a string")
	}
	for _, id := range s.commodities {
		c, err := s.Registry.Get(id)
		if err != nil {
			return nil, err
		}
		if c.EntityName() == name {
			return id, nil
		}
	}
	return nil, xerr.Newf(xerr.RecordNotFound, "no commodity named %q", name)
}

func provideMarketPrice(s *Simulation, e entity.Entity, params map[string]interface{}) (interface{}, error) {
	a, err := actingAgent(s, e)
	if err != nil {
		return nil, err
	}
	comID, ok := params["commodity"].(entity.ID)
	if !ok {
		return nil, xerr.New(xerr.RequestParamsError, "parameter commodity must be an entity id")
	}
	fallback, ok := params["fallback"].(int64)
	if !ok {
		return nil, xerr.New(xerr.RequestParamsError, "parameter fallback must be an int64")
	}
	m, err := s.MarketFor(a.LocationID, comID)
	if err != nil {
		return nil, err
	}
	return m.LastPrice(fallback), nil
}
