package sim

import (
	"math"
	"testing"
)

func TestJitterSequenceIsDeterministic(t *testing.T) {
	want := []float64{
		0.5, 0.05, 0.55, 0.1, 0.6, 0.15, 0.65, 0.2, 0.7, 0.25,
		0.75, 0.3, 0.8, 0.35, 0.85, 0.4, 0.9, 0.45, 0.95, 1.0,
		0.0, 0.5, 0.05, 0.55, 0.1, 0.6, 0.15, 0.65, 0.2, 0.7,
	}
	var j jitterSource
	for i, w := range want {
		got := j.next(0, 1)
		if math.Abs(got-w) > 1e-12 {
			t.Fatalf("draw %d = %g, want %g", i, got, w)
		}
	}
}

func TestJitterInterpolatesWindow(t *testing.T) {
	var j jitterSource
	if got := j.next(2, 4); math.Abs(got-3) > 1e-12 {
		t.Fatalf("first draw over [2,4] = %g, want 3", got)
	}
	if got := j.next(10, 10); got != 10 {
		t.Fatalf("degenerate window = %g, want 10", got)
	}
}

func TestJitterReset(t *testing.T) {
	var j jitterSource
	first := j.next(0, 1)
	j.next(0, 1)
	j.reset()
	if got := j.next(0, 1); got != first {
		t.Fatalf("after reset = %g, want %g", got, first)
	}
}
