package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/geom"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded engine run.
type Session struct {
	ID   string
	Name string

	// Config is the engine config rendered as YAML.
	Config string

	Placement   geom.Placement
	Fingerprint string

	// CreatedSeq orders sessions within a journal. Assigned by CreateSession.
	CreatedSeq int64
}

// InputKind names a journalled engine input.
type InputKind string

const (
	InputEnter      InputKind = "enter"
	InputExit       InputKind = "exit"
	InputTick       InputKind = "tick"
	InputIngredient InputKind = "ingredient"
)

// Validate rejects kinds the schema's CHECK constraint would refuse.
func (k InputKind) Validate() error {
	switch k {
	case InputEnter, InputExit, InputTick, InputIngredient:
		return nil
	}
	return fmt.Errorf("unknown input kind %q", string(k))
}

// Input is one signal or tick delivered to the engine.
//
// Position is the stirrer position before a tick, or the object position
// for an ingredient. Dt is only meaningful for ticks.
type Input struct {
	Seq        int64
	Kind       InputKind
	Position   mgl64.Vec3
	Object     string
	Ingredient string
	Dt         time.Duration
}

// Output is one published engine event.
type Output struct {
	Seq        int64
	Tick       uint64
	Kind       string
	Checkpoint int
	Ingredient string
	Object     string
	Reason     string
}

// OutputFromEvent flattens e into its journal row.
func OutputFromEvent(e event.Event) Output {
	return Output{
		Seq:        e.Seq,
		Tick:       e.Tick,
		Kind:       e.Kind.String(),
		Checkpoint: e.Checkpoint,
		Ingredient: e.Ingredient,
		Object:     e.Object,
		Reason:     e.Reason,
	}
}

// Event rebuilds the bus event o was recorded from.
func (o Output) Event() (event.Event, error) {
	kind, err := event.ParseKind(o.Kind)
	if err != nil {
		return event.Event{}, fmt.Errorf("output %d: %w", o.Seq, err)
	}
	return event.Event{
		Kind:       kind,
		Seq:        o.Seq,
		Tick:       o.Tick,
		Checkpoint: o.Checkpoint,
		Ingredient: o.Ingredient,
		Object:     o.Object,
		Reason:     o.Reason,
	}, nil
}

// Events converts a slice of outputs back into events.
func Events(outputs []Output) ([]event.Event, error) {
	events := make([]event.Event, 0, len(outputs))
	for _, o := range outputs {
		e, err := o.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
