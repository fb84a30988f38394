package sim

import (
	"time"
)

// TimeMode selects how simulation time advances.
type TimeMode int

const (
	// TimeModeSim jumps the clock straight to the next ready event. Used by
	// batch runs and tests.
	TimeModeSim TimeMode = iota
	// TimeModeRealtime scales the monotonic wall clock by DayLength so
	// interactive clients see the simulation advance in real time.
	TimeModeRealtime
)

// DefaultDayLength is the wall seconds per simulation day in realtime mode.
const DefaultDayLength = 20.0

// Pause freezes the realtime clock. Events keep their scheduled times and
// simply stop becoming ready.
func (s *Simulation) Pause() {
	if s.paused {
		return
	}
	s.paused = true
}

// Unpause resumes the realtime clock from where it froze.
func (s *Simulation) Unpause() {
	if !s.paused {
		return
	}
	s.paused = false
	s.lastTick = time.Now()
}

// Paused reports whether the clock is frozen.
func (s *Simulation) Paused() bool { return s.paused }

// IncrementTime advances the realtime clock by the monotonic wall time since
// the previous tick, scaled by DayLength. The advance is clamped to the next
// scheduled event so no event's firing time is skipped over. While paused
// the clock does not move but the tick origin keeps sliding, so unpausing
// never replays the paused interval.
func (s *Simulation) IncrementTime() {
	now := time.Now()
	if s.timeMode != TimeModeRealtime || s.paused {
		s.lastTick = now
		return
	}
	elapsed := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	target := s.Time + elapsed/s.DayLength
	if next, ok := s.queue.PeekTime(); ok && target > next && next > s.Time {
		target = next
	}
	if target > s.Time {
		s.setTime(target)
	}
}

// AdvanceTime moves the sim-mode clock forward to t. Moves backwards are
// ignored; the clock is monotone.
func (s *Simulation) AdvanceTime(t float64) {
	if t > s.Time {
		s.setTime(t)
	}
}

// AdvanceToNextEvent jumps the sim-mode clock to the earliest scheduled
// event, reporting whether there was one.
func (s *Simulation) AdvanceToNextEvent() bool {
	next, ok := s.queue.PeekTime()
	if !ok {
		return false
	}
	s.AdvanceTime(next)
	return true
}
