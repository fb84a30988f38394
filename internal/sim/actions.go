package sim

import (
	"macrosim.com/internal/entity"
)

// Action is a state mutation produced by a decision callback. Callbacks only
// read simulation state and queue actions; the driver applies them in order
// after the callback returns.
type Action interface {
	ActionType() string
}

// ActionHandler applies one action on behalf of the acting entity.
type ActionHandler func(s *Simulation, e entity.Entity, act Action) error

// RegisterActionType binds a handler to an action type. Handling an action
// whose type was never registered is a fatal error.
func (s *Simulation) RegisterActionType(name string, h ActionHandler) {
	s.actionHandlers[name] = h
}

// Built-in action types.
const (
	ActionPayWages          = "pay_wages"
	ActionProduceFromLabour = "produce_from_labour"
	ActionNamedBuy          = "named_buy"
	ActionNamedSell         = "named_sell"
	ActionDiscardBuy        = "discard_buy"
	ActionDiscardSell       = "discard_sell"
	ActionScheduleCallback  = "schedule_callback"
	ActionScheduleDecision  = "schedule_decision"
)

// PayWages moves Payment from the acting employer to the household sector at
// the employer's location, drawing down the wage reservation first.
type PayWages struct {
	Payment int64
}

func (PayWages) ActionType() string { return ActionPayWages }

// ProduceFromLabour converts a workforce into inventory of a commodity. The
// output is floor(productivity * workers) units, carried at cost Payment.
type ProduceFromLabour struct {
	CommodityID entity.ID
	Workers     int64
	Payment     int64
}

func (ProduceFromLabour) ActionType() string { return ActionProduceFromLabour }

// PlaceNamedBuy submits a resting bid under a slot name, cancelling any
// earlier order the actor holds under the same name and side.
type PlaceNamedBuy struct {
	Name        string
	CommodityID entity.ID
	Price       int64
	Amount      int64
}

func (PlaceNamedBuy) ActionType() string { return ActionNamedBuy }

// PlaceNamedSell is the ask-side counterpart of PlaceNamedBuy.
type PlaceNamedSell struct {
	Name        string
	CommodityID entity.ID
	Price       int64
	Amount      int64
}

func (PlaceNamedSell) ActionType() string { return ActionNamedSell }

// PlaceDiscardBuy submits a bid that fills what it can immediately and never
// rests in the book.
type PlaceDiscardBuy struct {
	CommodityID entity.ID
	Price       int64
	Amount      int64
}

func (PlaceDiscardBuy) ActionType() string { return ActionDiscardBuy }

// PlaceDiscardSell is the ask-side counterpart of PlaceDiscardBuy.
type PlaceDiscardSell struct {
	CommodityID entity.ID
	Price       int64
	Amount      int64
}

func (PlaceDiscardSell) ActionType() string { return ActionDiscardSell }

// ScheduleCallback queues a plain follow-up event for the acting entity at
// the current time plus Delay.
type ScheduleCallback struct {
	Callback Callback
	Delay    float64
	Payload  map[string]interface{}
}

func (ScheduleCallback) ActionType() string { return ActionScheduleCallback }

// ScheduleDecision queues a follow-up decision event, with its own data
// requests, for the acting entity at the current time plus Delay.
type ScheduleDecision struct {
	Callback Callback
	Delay    float64
	Requests []DataRequest
}

func (ScheduleDecision) ActionType() string { return ActionScheduleDecision }

// Scratch is the per-entity staging area the driver clears before each
// decision event: resolved data requests land in Data, the callback appends
// to Queue, and the driver drains Queue in FIFO order.
type Scratch struct {
	Data  map[string]interface{}
	Queue []Action
}

// Reset clears both sides of the scratch space.
func (sc *Scratch) Reset() {
	sc.Data = make(map[string]interface{})
	sc.Queue = sc.Queue[:0]
}

// AddAction appends an action to the pending queue.
func (sc *Scratch) AddAction(a Action) {
	sc.Queue = append(sc.Queue, a)
}

// Value returns a resolved data request by name, or nil.
func (sc *Scratch) Value(name string) interface{} {
	if sc.Data == nil {
		return nil
	}
	return sc.Data[name]
}

// Actor is an entity that can be the target of decision events.
type Actor interface {
	entity.Entity
	ActionScratch() *Scratch
}
