package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/ingredient"
)

// SignalType distinguishes queued host signals.
type SignalType int

const (
	// SignalEnter is the stirrer entering the stir zone.
	SignalEnter SignalType = iota + 1
	// SignalExit is the stirrer leaving the stir zone.
	SignalExit
	// SignalIngredient is an object entering the ingredient zone.
	SignalIngredient
)

func (t SignalType) String() string {
	switch t {
	case SignalEnter:
		return "enter"
	case SignalExit:
		return "exit"
	case SignalIngredient:
		return "ingredient"
	}
	return "unknown"
}

// Signal is a host trigger waiting for the next tick.
//
// Position is the object's world position when the signal was delivered;
// the gate judges that copy, not wherever the object has moved since.
type Signal struct {
	Type     SignalType
	Object   *ingredient.Object
	Position mgl64.Vec3
}

// signalQueue is a FIFO of signals delivered between ticks.
//
// It is not synchronised: the engine's callers deliver signals and ticks from
// one goroutine.
type signalQueue struct {
	signals []Signal
}

func newSignalQueue() *signalQueue {
	return &signalQueue{signals: make([]Signal, 0, 8)}
}

func (q *signalQueue) Enqueue(s Signal) {
	q.signals = append(q.signals, s)
}

// TryDequeue removes and returns the front signal.
func (q *signalQueue) TryDequeue() (Signal, bool) {
	if len(q.signals) == 0 {
		return Signal{}, false
	}

	s := q.signals[0]

	// Nil out the slot so the backing array does not keep the object alive.
	q.signals[0] = Signal{}

	if len(q.signals) == 1 {
		q.signals = q.signals[:0]
	} else {
		q.signals = q.signals[1:]
	}
	return s, true
}

func (q *signalQueue) Len() int { return len(q.signals) }

// Clear drops every pending signal.
func (q *signalQueue) Clear() {
	clear(q.signals)
	q.signals = q.signals[:0]
}
