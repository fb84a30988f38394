package sim

import (
	"sort"

	"macrosim.com/internal/entity"
)

// Callback is the decision logic bound to an event. For action events the
// callback must not mutate the ledger or the books directly: it reads the
// entity's scratch data and appends actions, which the pipeline then applies.
type Callback func(s *Simulation, ev *Event) error

// Event is a scheduled callback bound to a target entity. CallTime is in
// simulation days (1.0 = one day). Repeat == 0 means one-shot; a positive
// repeat re-queues the event at CallTime + Repeat after it fires.
type Event struct {
	TargetID entity.ID
	Callback Callback
	CallTime float64
	Repeat   float64
	Payload  map[string]interface{}

	// Action marks the event for the gather/decide/apply pipeline.
	// Requests are resolved into the target's scratch data before the
	// callback runs.
	Action   bool
	Requests []DataRequest

	seq uint64 // insertion order, breaks CallTime ties FIFO
}

// NewEvent builds a plain event.
func NewEvent(target entity.ID, cb Callback, callTime, repeat float64) *Event {
	return &Event{TargetID: target, Callback: cb, CallTime: callTime, Repeat: repeat}
}

// NewActionEvent builds a pipeline event. Data requests can be attached with
// AddRequest.
func NewActionEvent(target entity.ID, cb Callback, callTime, repeat float64) *Event {
	return &Event{TargetID: target, Callback: cb, CallTime: callTime, Repeat: repeat, Action: true}
}

// AddRequest attaches a data request whose result is stored in the target's
// scratch data under req.Name.
func (ev *Event) AddRequest(req DataRequest) {
	ev.Requests = append(ev.Requests, req)
}

// eventQueue is the global time-ordered event queue: sorted by CallTime with
// FIFO order among equal times (same stable-insertion discipline as the
// order queues).
type eventQueue struct {
	events  []*Event
	nextSeq uint64
}

func (q *eventQueue) Len() int { return len(q.events) }

// Push inserts the event after every queued event with the same or earlier
// CallTime.
func (q *eventQueue) Push(ev *Event) {
	ev.seq = q.nextSeq
	q.nextSeq++
	i := sort.Search(len(q.events), func(i int) bool {
		return ev.CallTime < q.events[i].CallTime
	})
	q.events = append(q.events, nil)
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = ev
}

// PeekTime returns the earliest fire time.
func (q *eventQueue) PeekTime() (float64, bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].CallTime, true
}

// PopReady removes and returns the earliest event if its fire time has been
// reached.
func (q *eventQueue) PopReady(now float64) *Event {
	if len(q.events) == 0 || q.events[0].CallTime > now {
		return nil
	}
	ev := q.events[0]
	copy(q.events, q.events[1:])
	q.events[len(q.events)-1] = nil
	q.events = q.events[:len(q.events)-1]
	return ev
}
