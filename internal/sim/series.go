package sim

// SeriesPoint is one observation of a named time series.
type SeriesPoint struct {
	Time  float64
	Value float64
}

// TimeSeries collects named observations over simulation time, for run
// output and post-hoc analysis.
type TimeSeries struct {
	points map[string][]SeriesPoint
}

// NewTimeSeries returns an empty collection.
func NewTimeSeries() *TimeSeries {
	return &TimeSeries{points: make(map[string][]SeriesPoint)}
}

// Append records one observation for name at time t.
func (ts *TimeSeries) Append(name string, t, value float64) {
	ts.points[name] = append(ts.points[name], SeriesPoint{Time: t, Value: value})
}

// Get returns the observations recorded for name, in append order.
func (ts *TimeSeries) Get(name string) []SeriesPoint {
	return ts.points[name]
}

// Names returns every series name with at least one observation.
func (ts *TimeSeries) Names() []string {
	out := make([]string, 0, len(ts.points))
	for k := range ts.points {
		out = append(out, k)
	}
	return out
}

// Last returns the most recent observation for name.
func (ts *TimeSeries) Last(name string) (SeriesPoint, bool) {
	pts := ts.points[name]
	if len(pts) == 0 {
		return SeriesPoint{}, false
	}
	return pts[len(pts)-1], true
}

// SeriesSet records one observation at the current simulation time.
func (s *Simulation) SeriesSet(name string, value float64) {
	s.Series.Append(name, s.Time, value)
}
