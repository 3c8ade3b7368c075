// Package checkpoint sequences the ordered rotation milestones of a brew.
//
// A Sequencer holds a cursor into a fixed list of checkpoints. Each call to
// Evaluate looks only at the checkpoint under the cursor, so checkpoint i can
// never be reached before checkpoint i-1.
//
// INVARIANTS:
//   - reached flags always form a prefix of trues
//   - at most one advance per Evaluate call
//   - both accumulators are reset together on every advance
package checkpoint

import (
	"fmt"

	"github.com/roach88/cauldron/internal/stir"
)

// Tolerance absorbs float accumulation error when comparing a total against
// the required degrees. 1e-6 degrees is far below any physical motion.
const Tolerance = 1e-6

// Checkpoint is one rotation milestone.
type Checkpoint struct {
	Direction         stir.Direction
	RequiredRotations float64

	// OnReached, if set, is invoked with the checkpoint index when it is
	// passed. It runs synchronously inside Evaluate.
	OnReached func(index int)

	reached bool
}

// RequiredDegrees is RequiredRotations expressed in degrees.
func (c Checkpoint) RequiredDegrees() float64 {
	return c.RequiredRotations * 360
}

// Sequencer advances through checkpoints strictly in order.
type Sequencer struct {
	checkpoints []Checkpoint
	next        int
}

// NewSequencer validates and copies checkpoints. The caller's slice is never
// mutated afterwards.
func NewSequencer(checkpoints []Checkpoint) (*Sequencer, error) {
	cps := make([]Checkpoint, len(checkpoints))
	copy(cps, checkpoints)

	for i := range cps {
		if !(cps[i].RequiredRotations > 0) {
			return nil, fmt.Errorf("checkpoint %d: required rotations must be positive, got %v", i, cps[i].RequiredRotations)
		}
		if cps[i].Direction != stir.Clockwise && cps[i].Direction != stir.CounterClockwise {
			return nil, fmt.Errorf("checkpoint %d: invalid direction %v", i, cps[i].Direction)
		}
		cps[i].reached = false
	}

	return &Sequencer{checkpoints: cps}, nil
}

// Evaluate checks the pending checkpoint against the accumulated totals in
// state.
//
// The pending checkpoint is only evaluable once more ingredients have been
// added than its index (next < ingredientsAdded). When its directional total
// reaches RequiredDegrees the checkpoint is marked reached, OnReached fires,
// the cursor advances and both accumulators in state are reset.
//
// Returns true if a checkpoint was passed. Never errors.
func (s *Sequencer) Evaluate(state *stir.State, ingredientsAdded int) bool {
	if s.Done() {
		return false
	}
	if s.next >= ingredientsAdded {
		return false
	}

	cp := &s.checkpoints[s.next]
	if state.Total(cp.Direction)+Tolerance < cp.RequiredDegrees() {
		return false
	}

	index := s.next
	cp.reached = true
	s.next++
	state.Reset()

	if cp.OnReached != nil {
		cp.OnReached(index)
	}
	return true
}

// Next returns the index of the pending checkpoint, or Len() when done.
func (s *Sequencer) Next() int { return s.next }

// Len returns the number of checkpoints.
func (s *Sequencer) Len() int { return len(s.checkpoints) }

// Done reports whether every checkpoint has been reached.
func (s *Sequencer) Done() bool { return s.next >= len(s.checkpoints) }

// Reached reports whether checkpoint i has been passed. Out of range indexes
// report false.
func (s *Sequencer) Reached(i int) bool {
	if i < 0 || i >= len(s.checkpoints) {
		return false
	}
	return s.checkpoints[i].reached
}

// Checkpoint returns a copy of checkpoint i.
func (s *Sequencer) Checkpoint(i int) (Checkpoint, bool) {
	if i < 0 || i >= len(s.checkpoints) {
		return Checkpoint{}, false
	}
	return s.checkpoints[i], true
}
