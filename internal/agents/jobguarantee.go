// Package agents holds the behaviour types that drive the base economy: the
// job guarantee (employer of last resort), labour-only producers and the
// household consumption sector. Each registers its standing events with the
// simulation and makes its decisions through the action pipeline.
package agents

import (
	"math"

	"macrosim.com/internal/entity"
	"macrosim.com/internal/sim"
	"macrosim.com/pkg/xerr"
)

// DataJGWage resolves to the job guarantee wage at the requesting agent's
// location. Producers anchor their own wage offers to it.
const DataJGWage = "jg_wage"

// Employer is implemented by agents whose workforce the labour market moves.
type Employer interface {
	sim.Ledgered
	Workforce() (actual, target int64)
	SetWorkforce(actual int64)
}

// JobGuarantee is the employer of last resort at one location. It pays a
// fixed wage, absorbs fired workers instantly, releases them gradually to
// hiring employers, and stabilises the goods market with standing orders.
// All its money movements book against the central government account.
type JobGuarantee struct {
	sim.Agent
	CommodityID   entity.ID
	Wage          int64
	WorkersActual int64

	employers []entity.ID
}

// NewJobGuarantee builds the job guarantee for a location, producing the
// given commodity and starting with workers on the rolls.
func NewJobGuarantee(locationID, commodityID, govID entity.ID, wage, workers int64) *JobGuarantee {
	jg := &JobGuarantee{
		Agent:         *sim.NewAgent("job_guarantee", locationID, 0),
		CommodityID:   commodityID,
		Wage:          wage,
		WorkersActual: workers,
	}
	jg.IsEmployer = true
	jg.DelegateAccountTo(govID)
	return jg
}

// RegisterEvents schedules the daily production/payment cycle and the
// labour market pass, and installs the wage data kind.
func (jg *JobGuarantee) RegisterEvents(s *sim.Simulation) []sim.ScheduledEvent {
	s.RegisterDataKind(DataJGWage, nil, provideJGWage)
	return []sim.ScheduledEvent{
		{Event: sim.NewActionEvent(entity.None, jg.eventProduction, 0, 1), WindowLo: 0.04, WindowHi: 0.1},
		{Event: sim.NewActionEvent(entity.None, jg.eventLabourMarket, 0, 1), WindowLo: 0, WindowHi: 0.038},
	}
}

func provideJGWage(s *sim.Simulation, e entity.Entity, params map[string]interface{}) (interface{}, error) {
	l, ok := e.(sim.Ledgered)
	if !ok {
		return nil, xerr.Newf(xerr.RequestParamsError, "entity %q has no location", e.EntityName())
	}
	var wage int64 = -1
	s.Registry.Each(func(ent entity.Entity) {
		if jg, ok := ent.(*JobGuarantee); ok && jg.LocationID == l.AgentState().LocationID {
			wage = jg.Wage
		}
	})
	if wage < 0 {
		return nil, xerr.Newf(xerr.RecordNotFound, "no job guarantee at location %d", l.AgentState().LocationID)
	}
	return wage, nil
}

// eventProduction pays the day's wage bill, books the resulting output, and
// schedules the order-setting stage once fresh productivity data is in.
func (jg *JobGuarantee) eventProduction(s *sim.Simulation, ev *sim.Event) error {
	payment := jg.WorkersActual * jg.Wage
	sc := jg.ActionScratch()
	sc.AddAction(sim.PayWages{Payment: payment})
	sc.AddAction(sim.ProduceFromLabour{CommodityID: jg.CommodityID, Workers: jg.WorkersActual, Payment: payment})
	sc.AddAction(sim.ScheduleDecision{
		Callback: jg.eventSetOrders,
		Delay:    0.1,
		Requests: []sim.DataRequest{
			s.MustDataRequest("Productivity", sim.DataProductivity, map[string]interface{}{"commodity": jg.CommodityID}),
		},
	})
	return nil
}

// eventSetOrders refreshes the three standing orders: a floor bid, the main
// production ask at a 10% markup, and an emergency ask for the remainder at
// a 50% markup.
func (jg *JobGuarantee) eventSetOrders(s *sim.Simulation, ev *sim.Event) error {
	productivity, ok := jg.ActionScratch().Value("Productivity").(float64)
	if !ok || productivity <= 0 {
		return xerr.Newf(xerr.RequestParamsError, "bad productivity for job guarantee at location %d", jg.LocationID)
	}
	productionPrice := float64(jg.Wage) / productivity
	sc := jg.ActionScratch()

	sc.AddAction(sim.PlaceNamedBuy{
		Name:        "floor",
		CommodityID: jg.CommodityID,
		Price:       int64(productionPrice * 0.95),
		Amount:      300,
	})

	lot := jg.Inventory.Lot(int64(jg.CommodityID))
	available := lot.Free()
	productionAmount := int64(float64(available) * 0.7)
	productionAsk := int64(productionPrice * 1.1)
	if productionAmount > 0 {
		sc.AddAction(sim.PlaceNamedSell{
			Name:        "production",
			CommodityID: jg.CommodityID,
			Price:       productionAsk,
			Amount:      productionAmount,
		})
	}
	s.SeriesSet("jg_production_offer", float64(productionAsk*productionAmount))

	remainder := available - productionAmount
	emergencyAsk := int64(productionPrice * 1.5)
	if remainder > 0 {
		sc.AddAction(sim.PlaceNamedSell{
			Name:        "emergency",
			CommodityID: jg.CommodityID,
			Price:       emergencyAsk,
			Amount:      remainder,
		})
	}
	s.SeriesSet("jg_emergency_offer", float64(emergencyAsk*remainder))
	return nil
}

// eventLabourMarket runs the deterministic drift pass: fired workers return
// to the job guarantee immediately, and up to a third of its pool (rounded
// up) drifts out to hiring employers each day, assigned proportionally in
// employer order.
func (jg *JobGuarantee) eventLabourMarket(s *sim.Simulation, ev *sim.Event) error {
	if len(jg.employers) == 0 {
		jg.findEmployers(s)
	}
	totalPopulation := jg.WorkersActual
	var hiring []Employer
	var totalHires int64
	for _, id := range jg.employers {
		e, err := s.Registry.Get(id)
		if err != nil {
			// Employer died since the scan; rebuild next pass.
			jg.employers = nil
			continue
		}
		emp, ok := e.(Employer)
		if !ok {
			continue
		}
		actual, target := emp.Workforce()
		totalPopulation += actual
		hires := target - actual
		switch {
		case hires < 0:
			if target < 0 {
				return xerr.Newf(xerr.RequestParamsError, "employer %q has negative worker target", e.EntityName())
			}
			jg.WorkersActual -= hires
			emp.SetWorkforce(target)
		case hires > 0:
			hiring = append(hiring, emp)
			totalHires += hires
		}
	}

	actualHires := int64(math.Ceil(float64(jg.WorkersActual) / 3.0))
	if totalHires < actualHires {
		actualHires = totalHires
	}
	if actualHires > 0 {
		// Not every employer gets its full ask: hand out rounded-up shares
		// in order, so employers at the end absorb the shortfall.
		fraction := float64(actualHires) / float64(totalHires)
		for _, emp := range hiring {
			actual, target := emp.Workforce()
			hired := int64(math.Ceil(fraction * float64(target-actual)))
			if hired > actualHires {
				hired = actualHires
			}
			actualHires -= hired
			emp.SetWorkforce(actual + hired)
			jg.WorkersActual -= hired
		}
	}

	if totalPopulation > 0 {
		s.SeriesSet("unemployment", float64(jg.WorkersActual)/float64(totalPopulation))
	}
	return nil
}

// findEmployers scans the registry for employers sharing the job
// guarantee's location. Called lazily so it picks up agents added after it.
func (jg *JobGuarantee) findEmployers(s *sim.Simulation) {
	jg.employers = jg.employers[:0]
	s.Registry.Each(func(e entity.Entity) {
		if e.EntityID() == jg.EntityID() {
			return
		}
		emp, ok := e.(Employer)
		if !ok {
			return
		}
		if st := emp.AgentState(); st.IsEmployer && st.LocationID == jg.LocationID {
			jg.employers = append(jg.employers, e.EntityID())
		}
	})
}
