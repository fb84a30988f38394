package agents

import (
	"testing"

	"macrosim.com/internal/sim"
)

func newSimWithJG(t *testing.T, jgWorkers int64) (*sim.Simulation, *JobGuarantee) {
	t.Helper()
	s := sim.New(sim.TimeModeSim)
	locID := s.AddLocation(sim.NewLocation("station"))
	comID := s.AddCommodity(sim.NewCommodity("food", 15))
	jg := NewJobGuarantee(locID, comID, s.GovernmentID, 100, jgWorkers)
	if _, err := s.AddAgent(jg); err != nil {
		t.Fatalf("add jg: %v", err)
	}
	hh := NewHouseholdSector(locID, comID, 100000, 10)
	hhID, err := s.AddAgent(hh)
	if err != nil {
		t.Fatalf("add household: %v", err)
	}
	s.SetHousehold(locID, hhID)
	return s, jg
}

func addProducer(t *testing.T, s *sim.Simulation, jg *JobGuarantee, name string, money int64) *ProducerLabour {
	t.Helper()
	p := NewProducerLabour(name, money, jg.LocationID, jg.CommodityID)
	if _, err := s.AddAgent(p); err != nil {
		t.Fatalf("add producer: %v", err)
	}
	return p
}

func TestLabourMarketConservesWorkers(t *testing.T) {
	s, jg := newSimWithJG(t, 90)
	firing := addProducer(t, s, jg, "firing", 0)
	firing.WorkersActual = 10
	firing.TargetWorkers = 4
	hiring := addProducer(t, s, jg, "hiring", 0)
	hiring.TargetWorkers = 30

	before := jg.WorkersActual + firing.WorkersActual + hiring.WorkersActual
	if err := jg.eventLabourMarket(s, nil); err != nil {
		t.Fatalf("labour market: %v", err)
	}
	after := jg.WorkersActual + firing.WorkersActual + hiring.WorkersActual
	if before != after {
		t.Fatalf("workers not conserved: %d -> %d", before, after)
	}
	if firing.WorkersActual != 4 {
		t.Fatalf("fired employer holds %d, want 4", firing.WorkersActual)
	}
	// Fired workers land in the pool the same day; the pool covers the
	// full ask of 30.
	if hiring.WorkersActual != 30 {
		t.Fatalf("hiring employer holds %d, want 30", hiring.WorkersActual)
	}
	if jg.WorkersActual != 66 {
		t.Fatalf("pool = %d, want 66", jg.WorkersActual)
	}
}

func TestLabourMarketThrottlesHiring(t *testing.T) {
	s, jg := newSimWithJG(t, 9)
	hiring := addProducer(t, s, jg, "hiring", 0)
	hiring.TargetWorkers = 100

	if err := jg.eventLabourMarket(s, nil); err != nil {
		t.Fatalf("labour market: %v", err)
	}
	// Only a third of the pool, rounded up, can leave per day.
	if hiring.WorkersActual != 3 || jg.WorkersActual != 6 {
		t.Fatalf("hired %d, pool %d, want 3/6", hiring.WorkersActual, jg.WorkersActual)
	}
}

func TestLabourMarketRejectsNegativeTarget(t *testing.T) {
	s, jg := newSimWithJG(t, 10)
	bad := addProducer(t, s, jg, "bad", 0)
	bad.WorkersActual = 5
	bad.TargetWorkers = -1
	if err := jg.eventLabourMarket(s, nil); err == nil {
		t.Fatalf("negative target must be fatal")
	}
}

func TestProducerHiringFollowsJGWage(t *testing.T) {
	s, jg := newSimWithJG(t, 0)
	p := addProducer(t, s, jg, "factory", 250000)

	sc := p.ActionScratch()
	sc.Reset()
	sc.Data["JGWage"] = int64(100)
	if err := p.eventHiring(s, nil); err != nil {
		t.Fatalf("hiring: %v", err)
	}
	if p.Wage != 110 {
		t.Fatalf("wage = %d, want 110", p.Wage)
	}
	// Free cash covers far more than the technological ceiling.
	if p.TargetWorkers != p.WorkersMax {
		t.Fatalf("target = %d, want clamp at %d", p.TargetWorkers, p.WorkersMax)
	}

	poor := addProducer(t, s, jg, "poor", 1400)
	sc = poor.ActionScratch()
	sc.Reset()
	sc.Data["JGWage"] = int64(100)
	if err := poor.eventHiring(s, nil); err != nil {
		t.Fatalf("hiring: %v", err)
	}
	// 1400 / (6 * 110) = 2.
	if poor.TargetWorkers != 2 {
		t.Fatalf("target = %d, want 2", poor.TargetWorkers)
	}
}

func TestJobGuaranteeProductionQueuesFullCycle(t *testing.T) {
	s, jg := newSimWithJG(t, 50)
	sc := jg.ActionScratch()
	sc.Reset()
	if err := jg.eventProduction(s, nil); err != nil {
		t.Fatalf("production: %v", err)
	}
	if len(sc.Queue) != 3 {
		t.Fatalf("queued %d actions, want 3", len(sc.Queue))
	}
	pay, ok := sc.Queue[0].(sim.PayWages)
	if !ok || pay.Payment != 50*100 {
		t.Fatalf("first action = %#v, want wage bill 5000", sc.Queue[0])
	}
	prod, ok := sc.Queue[1].(sim.ProduceFromLabour)
	if !ok || prod.Workers != 50 || prod.Payment != 5000 {
		t.Fatalf("second action = %#v", sc.Queue[1])
	}
	if _, ok := sc.Queue[2].(sim.ScheduleDecision); !ok {
		t.Fatalf("third action = %#v, want the order-setting follow-up", sc.Queue[2])
	}
}

type tradeCounter struct {
	count int
}

func (c *tradeCounter) LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64) {
	c.count++
}

func runDays(t *testing.T, s *sim.Simulation, days float64) {
	t.Helper()
	for s.Time < days {
		worked, err := s.Step()
		if err != nil {
			t.Fatalf("step at t=%g: %v", s.Time, err)
		}
		if !worked {
			if !s.AdvanceToNextEvent() {
				return
			}
		}
	}
}

func TestEconomyRunsThirtyDays(t *testing.T) {
	s, jg := newSimWithJG(t, 120)
	addProducer(t, s, jg, "factory_one", 250000)
	addProducer(t, s, jg, "factory_two", 250000)
	if err := s.GenerateMarkets(); err != nil {
		t.Fatalf("markets: %v", err)
	}
	tape := &tradeCounter{}
	s.TradeSink = tape

	runDays(t, s, 30)

	if total := s.TotalMoney(); total != 0 {
		t.Fatalf("system money drifted to %d", total)
	}
	if tape.count == 0 {
		t.Fatalf("no trades in thirty days")
	}
	if pts := s.Series.Get("unemployment"); len(pts) == 0 {
		t.Fatalf("unemployment series never written")
	}
}

func TestIdenticalSetupsProduceIdenticalRuns(t *testing.T) {
	build := func() *sim.Simulation {
		s, jg := newSimWithJG(t, 120)
		addProducer(t, s, jg, "factory_one", 250000)
		addProducer(t, s, jg, "factory_two", 250000)
		if err := s.GenerateMarkets(); err != nil {
			t.Fatalf("markets: %v", err)
		}
		return s
	}
	a, b := build(), build()
	runDays(t, a, 20)
	runDays(t, b, 20)

	ua, ub := a.Series.Get("unemployment"), b.Series.Get("unemployment")
	if len(ua) == 0 || len(ua) != len(ub) {
		t.Fatalf("series lengths differ: %d vs %d", len(ua), len(ub))
	}
	for i := range ua {
		if ua[i] != ub[i] {
			t.Fatalf("runs diverged at sample %d: %+v vs %+v", i, ua[i], ub[i])
		}
	}
	if a.TotalMoney() != b.TotalMoney() || a.Time != b.Time {
		t.Fatalf("final states differ")
	}
}
