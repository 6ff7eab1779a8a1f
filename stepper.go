package kinetix

import "time"

// Stepper feeds a variable frame clock into fixed-size simulation steps. The
// world itself only exposes Step(dt); this is the conventional driver on top:
// accumulate wall time, run as many fixed steps as fit, carry the remainder.
type Stepper struct {
	world       *World
	fixedDt     float32
	accumulator float32
	maxCatchUp  int

	last time.Time
}

// NewStepper creates a driver stepping the world at the given frequency.
// maxCatchUp caps the steps run per Advance so a long stall cannot spiral.
func NewStepper(w *World, hz float32, maxCatchUp int) *Stepper {
	if hz <= 0 {
		hz = 60
	}
	if maxCatchUp <= 0 {
		maxCatchUp = 4
	}
	return &Stepper{
		world:      w,
		fixedDt:    1 / hz,
		maxCatchUp: maxCatchUp,
	}
}

func (s *Stepper) FixedDt() float32 { return s.fixedDt }

// Advance consumes one frame delta and returns the number of fixed steps run.
func (s *Stepper) Advance(frameDt float32) int {
	if frameDt <= 0 {
		return 0
	}
	s.accumulator += frameDt

	steps := 0
	for s.accumulator >= s.fixedDt && steps < s.maxCatchUp {
		s.world.Step(s.fixedDt)
		s.accumulator -= s.fixedDt
		steps++
	}
	if steps == s.maxCatchUp {
		// Drop the backlog instead of death-spiraling.
		s.accumulator = 0
	}
	return steps
}

// Tick measures the delta since the previous Tick with the wall clock and
// advances by it.
func (s *Stepper) Tick() int {
	now := time.Now()
	if s.last.IsZero() {
		s.last = now
		return 0
	}
	dt := float32(now.Sub(s.last).Seconds())
	s.last = now
	return s.Advance(dt)
}
