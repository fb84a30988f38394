// Package sim runs the discrete-event driver: a deterministic event queue,
// the simulation clock, client command handling and the gather/decide/apply
// pipeline that turns agent decisions into ledger and order book mutations.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"macrosim.com/internal/entity"
	"macrosim.com/internal/matching"
	"macrosim.com/pkg/logger"
	"macrosim.com/pkg/metrics"
	"macrosim.com/pkg/xerr"
)

const (
	// MinRepeat is the smallest legal repeat period. A shorter period is a
	// runaway self-rescheduling bug and is treated as fatal.
	MinRepeat = 0.01
	// MaxActionLimit caps actions applied per decision event. Hitting it
	// means a handler is queueing actions faster than they drain.
	MaxActionLimit = 100
)

// ScheduledEvent pairs an event with the window its first firing is drawn
// from. The driver picks the concrete time inside the window so that run
// order stays deterministic and entities added in the same order always get
// the same schedule.
type ScheduledEvent struct {
	Event    *Event
	WindowLo float64
	WindowHi float64
}

// EventRegistrar is implemented by entities that want standing events. The
// driver fills in the target id and the concrete first firing time.
type EventRegistrar interface {
	RegisterEvents(s *Simulation) []ScheduledEvent
}

type marketKey struct {
	location  entity.ID
	commodity entity.ID
}

// Simulation owns all mutable world state. It is single-threaded: every
// mutation happens on the driver goroutine via Step; other goroutines talk
// to it only through the command mailbox.
type Simulation struct {
	entity.Base

	Registry *entity.Registry
	Series   *TimeSeries

	Time      float64
	DayLength float64

	// GovernmentID is the monetary authority's entity id. Its negative
	// balance offsets all private money so the system sums to zero.
	GovernmentID entity.ID

	TradeSink matching.TradeLog

	timeMode TimeMode
	paused   bool
	lastTick time.Time

	queue    eventQueue
	jitter   jitterSource
	orderIDs matching.IDSource

	dataKinds      map[string]*dataKind
	actionHandlers map[string]ActionHandler

	locations   []entity.ID
	commodities []entity.ID
	agents      []*Agent
	markets     map[marketKey]*Market
	households  map[entity.ID]entity.ID

	clients      map[int64]*Client
	nextClientID int64
	commands     chan Command
	messages     []queuedMessage

	ctx context.Context
}

// New builds an empty world with its monetary authority in place.
func New(mode TimeMode) *Simulation {
	s := &Simulation{
		Base:           entity.Base{Name: "simulation", Kind: "simulation"},
		Registry:       entity.NewRegistry(),
		Series:         NewTimeSeries(),
		DayLength:      DefaultDayLength,
		timeMode:       mode,
		lastTick:       time.Now(),
		dataKinds:      make(map[string]*dataKind),
		actionHandlers: make(map[string]ActionHandler),
		markets:        make(map[marketKey]*Market),
		households:     make(map[entity.ID]entity.ID),
		clients:        make(map[int64]*Client),
		commands:       make(chan Command, commandMailboxSize),
		ctx:            context.Background(),
	}
	s.Registry.Add(s)

	gov := NewAgent("central_government", entity.None, 0)
	gov.Account.MonetaryAuthority = true
	s.GovernmentID, _ = s.AddAgent(gov)

	s.registerBuiltins()
	return s
}

func (s *Simulation) setTime(t float64) {
	s.Time = t
	metrics.SimTime.Set(t)
}

// AddEntity registers an entity and schedules its standing events. The
// first firing of each event is drawn deterministically from its window,
// then shifted forward by whole days if it would land in the past.
func (s *Simulation) AddEntity(e entity.Entity) entity.ID {
	id := s.Registry.Add(e)
	if reg, ok := e.(EventRegistrar); ok {
		for _, se := range reg.RegisterEvents(s) {
			t := s.jitter.next(se.WindowLo, se.WindowHi)
			for t < s.Time {
				t += 1
			}
			se.Event.TargetID = id
			se.Event.CallTime = t
			s.queue.Push(se.Event)
		}
	}
	return id
}

// AddAgent registers an agent (or a behaviour type embedding one). A
// nonzero opening balance is debited from the monetary authority so total
// money in the system stays zero.
func (s *Simulation) AddAgent(l Ledgered) (entity.ID, error) {
	id := s.AddEntity(l)
	a := l.AgentState()
	s.agents = append(s.agents, a)
	if a.Account.Money != 0 && !a.Account.MonetaryAuthority {
		gov, err := s.AgentByID(s.GovernmentID)
		if err != nil {
			return entity.None, err
		}
		gov.Account.Money -= a.Account.Money
	}
	return id, nil
}

// AddLocation registers a location.
func (s *Simulation) AddLocation(l *Location) entity.ID {
	id := s.AddEntity(l)
	s.locations = append(s.locations, id)
	return id
}

// AddCommodity registers a commodity.
func (s *Simulation) AddCommodity(c *Commodity) entity.ID {
	id := s.AddEntity(c)
	s.commodities = append(s.commodities, id)
	return id
}

// SetHousehold records the household sector agent for a location. Wage
// payments at that location are credited to it.
func (s *Simulation) SetHousehold(locationID, agentID entity.ID) {
	s.households[locationID] = agentID
}

// GenerateMarkets creates one market per location/commodity pair. Call
// after all locations and commodities are registered.
func (s *Simulation) GenerateMarkets() error {
	for _, locID := range s.locations {
		for _, comID := range s.commodities {
			key := marketKey{location: locID, commodity: comID}
			if _, ok := s.markets[key]; ok {
				continue
			}
			loc, err := s.Registry.Get(locID)
			if err != nil {
				return err
			}
			com, err := s.Registry.Get(comID)
			if err != nil {
				return err
			}
			m := &Market{
				Base:        entity.Base{Name: fmt.Sprintf("%s@%s", com.EntityName(), loc.EntityName()), Kind: KindMarket},
				LocationID:  locID,
				CommodityID: comID,
			}
			id := s.AddEntity(m)
			m.Book = matching.NewBook(int64(id), int64(comID), int64(locID),
				bookAccounting{s: s, commodityID: comID}, s, func() float64 { return s.Time })
			s.markets[key] = m
		}
	}
	return nil
}

// MarketFor returns the market trading a commodity at a location.
func (s *Simulation) MarketFor(locationID, commodityID entity.ID) (*Market, error) {
	m, ok := s.markets[marketKey{location: locationID, commodity: commodityID}]
	if !ok {
		return nil, xerr.Newf(xerr.RecordNotFound, "no market for commodity %d at location %d", commodityID, locationID)
	}
	return m, nil
}

// OrderIDs exposes the shared order id source so collaborators can build
// orders by hand.
func (s *Simulation) OrderIDs() *matching.IDSource { return &s.orderIDs }

// LogTransaction receives every trade from every book. It feeds metrics and
// forwards to the configured persistent sink, if any.
func (s *Simulation) LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price int64, simTime float64) {
	metrics.TradesMatchedTotal.Inc()
	if s.TradeSink != nil {
		s.TradeSink.LogTransaction(marketID, buyerID, sellerID, initiatorID, amount, price, simTime)
	}
}

// ScheduleOnce queues a single plain event Delay days from now.
func (s *Simulation) ScheduleOnce(target entity.ID, cb Callback, delay float64, payload map[string]interface{}) {
	ev := NewEvent(target, cb, s.Time+delay, 0)
	ev.Payload = payload
	s.queue.Push(ev)
}

// ScheduleDecisionOnce queues a single decision event Delay days from now.
func (s *Simulation) ScheduleDecisionOnce(target entity.ID, cb Callback, delay float64, reqs []DataRequest) {
	ev := NewActionEvent(target, cb, s.Time+delay, 0)
	ev.Requests = reqs
	s.queue.Push(ev)
}

// QueueDepth reports pending scheduled events.
func (s *Simulation) QueueDepth() int { return s.queue.Len() }

// Step performs one unit of driver work and reports whether anything was
// done. Priority order: one client command, then one queued message, then
// the earliest ready event. An error return is fatal to the run.
func (s *Simulation) Step() (bool, error) {
	select {
	case cmd := <-s.commands:
		return true, cmd.Execute(s)
	default:
	}
	if len(s.messages) > 0 {
		qm := s.messages[0]
		s.messages = s.messages[1:]
		if c, ok := s.clients[qm.clientID]; ok {
			qm.msg.Deliver(c)
		}
		return true, nil
	}
	ev := s.queue.PopReady(s.Time)
	if ev == nil {
		return false, nil
	}
	return true, s.fire(ev)
}

func (s *Simulation) fire(ev *Event) error {
	metrics.EventQueueDepth.Set(float64(s.queue.Len()))
	e, err := s.Registry.Get(ev.TargetID)
	if err != nil {
		if entity.IsGone(err) {
			// The target died between scheduling and firing. Drop the
			// event, repeater included.
			metrics.EventsDroppedTotal.Inc()
			logger.Debug(s.ctx, "dropping event for gone entity",
				zap.Int64("target", int64(ev.TargetID)), zap.Float64("call_time", ev.CallTime))
			return nil
		}
		return err
	}
	metrics.EventsFiredTotal.WithLabelValues(e.EntityKind()).Inc()

	if ev.Action {
		err = s.runPipeline(e, ev)
	} else {
		err = ev.Callback(s, ev)
	}
	if err != nil {
		return err
	}

	if ev.Repeat > 0 {
		if ev.Repeat < MinRepeat {
			return xerr.Newf(xerr.RequestParamsError, "repeat period %g below minimum %g", ev.Repeat, MinRepeat)
		}
		next := *ev
		next.CallTime = ev.CallTime + ev.Repeat
		s.queue.Push(&next)
	}
	return nil
}

// runPipeline is the gather/decide/apply cycle for one decision event:
// clear the scratch, resolve the event's data requests into it, run the
// callback, then drain the action queue in FIFO order.
func (s *Simulation) runPipeline(e entity.Entity, ev *Event) error {
	actor, ok := e.(Actor)
	if !ok {
		return xerr.Newf(xerr.RequestParamsError, "entity %q (%s) cannot process decision events", e.EntityName(), e.EntityKind())
	}
	sc := actor.ActionScratch()
	sc.Reset()
	for _, req := range ev.Requests {
		v, err := s.resolveData(e, req)
		if err != nil {
			return fmt.Errorf("resolve %q for %q: %w", req.Name, e.EntityName(), err)
		}
		sc.Data[req.Name] = v
	}
	if err := ev.Callback(s, ev); err != nil {
		return err
	}
	count := 0
	for len(sc.Queue) > 0 {
		act := sc.Queue[0]
		sc.Queue = sc.Queue[1:]
		count++
		if count == MaxActionLimit {
			return xerr.Newf(xerr.ActionOverflow, "entity %q hit the %d-action limit in one event", e.EntityName(), MaxActionLimit)
		}
		h, ok := s.actionHandlers[act.ActionType()]
		if !ok {
			return xerr.Newf(xerr.UnregisteredKind, "action type %q is not registered", act.ActionType())
		}
		if err := h(s, e, act); err != nil {
			return fmt.Errorf("apply %s for %q: %w", act.ActionType(), e.EntityName(), err)
		}
		metrics.ActionsProcessedTotal.WithLabelValues(act.ActionType()).Inc()
	}
	return nil
}

// TotalMoney sums every agent account. The monetary authority's negative
// balance should cancel the rest, keeping this at zero.
func (s *Simulation) TotalMoney() int64 {
	var total int64
	for _, a := range s.agents {
		total += a.Account.Money
	}
	return total
}
