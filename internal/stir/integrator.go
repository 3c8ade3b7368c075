package stir

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/geom"
)

// Direction is a rotational sense viewed from above (looking down -Y).
type Direction int

const (
	// Clockwise rotation.
	Clockwise Direction = iota + 1
	// CounterClockwise rotation.
	CounterClockwise
)

// ParseDirection accepts "cw"/"clockwise" and "ccw"/"counterclockwise"
// (case-insensitive, dashes and underscores ignored).
func ParseDirection(s string) (Direction, error) {
	switch strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(s)) {
	case "cw", "clockwise":
		return Clockwise, nil
	case "ccw", "counterclockwise":
		return CounterClockwise, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Handedness decides which rotational sense a positive bearing delta is.
//
// In a right-handed +Y-up frame (mathgl, OpenGL) the bearing grows
// counter-clockwise when viewed from above. Left-handed hosts see the same
// numeric growth as clockwise. Checkpoint directions are always read through
// the same Handedness as the accumulator, so the mapping is never implicit.
type Handedness int

const (
	// RightHanded maps positive deltas to CounterClockwise.
	RightHanded Handedness = iota
	// LeftHanded maps positive deltas to Clockwise.
	LeftHanded
)

// ParseHandedness accepts "right" / "left" (and the empty string, meaning
// RightHanded).
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(s) {
	case "", "right", "right_handed":
		return RightHanded, nil
	case "left", "left_handed":
		return LeftHanded, nil
	}
	return 0, fmt.Errorf("unknown handedness %q", s)
}

func (h Handedness) String() string {
	if h == LeftHanded {
		return "left"
	}
	return "right"
}

// DirectionOf returns the sense a non-zero delta represents.
func (h Handedness) DirectionOf(delta float64) Direction {
	positive := CounterClockwise
	if h == LeftHanded {
		positive = Clockwise
	}
	if delta > 0 {
		return positive
	}
	if positive == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// State is the per-engine stirring state.
//
// INVARIANT: CW and CCW never decrease except through Reset.
type State struct {
	Active        bool
	PreviousAngle float64
	CW            float64
	CCW           float64
}

// Reset zeroes both accumulators together.
func (s *State) Reset() {
	s.CW, s.CCW = 0, 0
}

// Total returns the accumulated degrees for d.
func (s *State) Total(d Direction) float64 {
	switch d {
	case Clockwise:
		return s.CW
	case CounterClockwise:
		return s.CCW
	}
	return 0
}

// Accumulate credits |delta| to the bucket for its direction unless it is
// below threshold. It is a rectified integrator: reversing never drains the
// opposite bucket. Returns true when a bucket was credited.
func Accumulate(delta, threshold float64, s *State, h Handedness) bool {
	if math.Abs(delta) < threshold || delta == 0 {
		return false
	}
	switch h.DirectionOf(delta) {
	case Clockwise:
		s.CW += math.Abs(delta)
	case CounterClockwise:
		s.CCW += math.Abs(delta)
	}
	return true
}

// Integrator bundles the jitter threshold and handedness used by an engine.
type Integrator struct {
	Threshold  float64
	Handedness Handedness
}

// Begin takes the baseline bearing for a new stretch of sampling.
func (in Integrator) Begin(point mgl64.Vec3, frame geom.Frame, s *State) {
	s.PreviousAngle = Bearing(point, frame)
	s.Active = true
}

// Update samples point, advances the baseline and accumulates the delta.
// The baseline moves even when the delta is filtered as jitter.
func (in Integrator) Update(point mgl64.Vec3, frame geom.Frame, s *State) (delta float64, credited bool) {
	angle, delta := Sample(point, frame, s.PreviousAngle)
	s.PreviousAngle = angle
	return delta, Accumulate(delta, in.Threshold, s, in.Handedness)
}
