package agents

import (
	"macrosim.com/internal/entity"
	"macrosim.com/internal/sim"
	"macrosim.com/pkg/xerr"
)

// ProducerLabour is a firm whose output depends only on labour. Wages are
// not expensed: they are capitalised into the inventory cost of the day's
// production and recovered through cost-of-goods-sold as units sell.
type ProducerLabour struct {
	sim.Agent
	OutputID entity.ID

	// Wage and TargetWorkers are set by the hiring decision; WorkersActual
	// is moved by the labour market pass.
	Wage          int64
	TargetWorkers int64
	WorkersActual int64
	WorkersMax    int64
}

// NewProducerLabour builds a producer at a location with an opening balance.
func NewProducerLabour(name string, money int64, locationID, outputID entity.ID) *ProducerLabour {
	p := &ProducerLabour{
		Agent:      *sim.NewAgent(name, locationID, money),
		OutputID:   outputID,
		WorkersMax: 40,
	}
	p.IsEmployer = true
	return p
}

// Workforce reports the current and desired headcount.
func (p *ProducerLabour) Workforce() (actual, target int64) {
	return p.WorkersActual, p.TargetWorkers
}

// SetWorkforce is called by the labour market pass.
func (p *ProducerLabour) SetWorkforce(actual int64) { p.WorkersActual = actual }

// RegisterEvents schedules the daily hiring, production and sales cycle.
// The hiring stage needs the local job guarantee wage as input, so add the
// job guarantee before any producers.
func (p *ProducerLabour) RegisterEvents(s *sim.Simulation) []sim.ScheduledEvent {
	hiring := sim.NewActionEvent(entity.None, p.eventHiring, 0, 1)
	hiring.AddRequest(s.MustDataRequest("JGWage", DataJGWage, map[string]interface{}{}))
	production := sim.NewActionEvent(entity.None, p.eventProduction, 0, 1)
	sales := sim.NewActionEvent(entity.None, p.eventSales, 0, 1)
	return []sim.ScheduledEvent{
		{Event: hiring, WindowLo: 0, WindowHi: 0.2},
		{Event: production, WindowLo: 0.21, WindowHi: 0.5},
		{Event: sales, WindowLo: 0.02, WindowHi: 0.99},
	}
}

// eventHiring offers a 10% premium over the job guarantee wage and sizes
// the workforce so six days of wages stay covered by free cash.
func (p *ProducerLabour) eventHiring(s *sim.Simulation, ev *sim.Event) error {
	jgWage, ok := p.ActionScratch().Value("JGWage").(int64)
	if !ok || jgWage <= 0 {
		return xerr.Newf(xerr.RequestParamsError, "bad job guarantee wage for %q", p.EntityName())
	}
	p.Wage = (11 * jgWage) / 10
	acct, err := s.AccountFor(&p.Agent)
	if err != nil {
		return err
	}
	target := acct.FreeMoney() / (6 * p.Wage)
	if target > p.WorkersMax {
		target = p.WorkersMax
	}
	if target < 0 {
		target = 0
	}
	p.TargetWorkers = target
	return nil
}

// eventProduction pays the day's wage bill and books the output.
func (p *ProducerLabour) eventProduction(s *sim.Simulation, ev *sim.Event) error {
	payment := p.WorkersActual * p.Wage
	s.SeriesSet(p.EntityName()+".wage_payment", float64(payment))
	sc := p.ActionScratch()
	sc.AddAction(sim.PayWages{Payment: payment})
	sc.AddAction(sim.ProduceFromLabour{CommodityID: p.OutputID, Workers: p.WorkersActual, Payment: payment})
	return nil
}

// eventSales refreshes the standing ask: nearly the whole inventory at a
// 10% margin over unit cost.
func (p *ProducerLabour) eventSales(s *sim.Simulation, ev *sim.Event) error {
	acct, err := s.AccountFor(&p.Agent)
	if err != nil {
		return err
	}
	s.SeriesSet(p.EntityName()+".money", float64(acct.Money))
	lot := p.Inventory.Lot(int64(p.OutputID))
	if lot.Amount == 0 {
		return nil
	}
	unitCost := (lot.Cost + lot.Amount/2) / lot.Amount
	amount := (lot.Amount*99 + 99) / 100
	if amount == 0 {
		return nil
	}
	p.ActionScratch().AddAction(sim.PlaceNamedSell{
		Name:        "production",
		CommodityID: p.OutputID,
		Price:       (unitCost * 11) / 10,
		Amount:      amount,
	})
	return nil
}
