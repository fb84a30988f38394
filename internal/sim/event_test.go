package sim

import (
	"testing"

	"macrosim.com/internal/entity"
)

func TestEventQueueOrdersByTimeThenInsertion(t *testing.T) {
	var q eventQueue
	mk := func(at float64) *Event { return NewEvent(entity.None, nil, at, 0) }
	a, b, c, d := mk(2), mk(1), mk(2), mk(1)
	for _, ev := range []*Event{a, b, c, d} {
		q.Push(ev)
	}
	want := []*Event{b, d, a, c}
	for i, w := range want {
		got := q.PopReady(10)
		if got != w {
			t.Fatalf("pop %d: got seq %d at %g, want seq %d at %g", i, got.seq, got.CallTime, w.seq, w.CallTime)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue not drained")
	}
}

func TestPopReadyRespectsNow(t *testing.T) {
	var q eventQueue
	q.Push(NewEvent(entity.None, nil, 5, 0))
	if ev := q.PopReady(4.999); ev != nil {
		t.Fatalf("event fired early at %g", ev.CallTime)
	}
	if ev := q.PopReady(5); ev == nil {
		t.Fatalf("event not ready at its own fire time")
	}
	at, ok := q.PeekTime()
	if ok {
		t.Fatalf("peek on empty queue = %g", at)
	}
}
