package sim

// jitterTable is the fixed phase-offset sequence used to spread recurring
// events across their first-call window. The offsets alternate between the
// low and high halves of the unit interval so schedules spread out instead
// of clustering near one end. The sequence is deterministic and owned per
// simulation, which is what makes identical setup sequences produce
// identical schedules.
var jitterTable = buildJitterTable()

func buildJitterTable() []float64 {
	t := make([]float64, 0, 21)
	for i := 0; i < 10; i++ {
		t = append(t, float64(i)/20.0)
		t = append(t, 0.5+float64(i)/20.0)
	}
	t = append(t, 1.0)
	return t
}

// jitterSource cycles through jitterTable. The zero value starts a fresh
// sequence (the first draw is table index 1, value 0.5).
type jitterSource struct {
	last int
}

func (j *jitterSource) reset() { j.last = 0 }

// next linearly interpolates the next offset across [lo, hi].
func (j *jitterSource) next(lo, hi float64) float64 {
	j.last++
	if j.last == len(jitterTable) {
		j.last = 0
	}
	return lo + jitterTable[j.last]*(hi-lo)
}
