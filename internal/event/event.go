// Package event carries the stirring core's outputs to its collaborators.
//
// Events are published synchronously on a Bus. Every published event is
// stamped with a strictly increasing sequence number kept by the bus and
// with the engine tick it happened in. Wall-clock time is never used for
// ordering, so a replayed session yields the same stream.
package event

import "fmt"

// Kind identifies an event.
type Kind int

const (
	// StirZoneEntered fires when the stirrer enters the stir zone.
	StirZoneEntered Kind = iota + 1
	// StirZoneExited fires when the stirrer leaves the stir zone.
	StirZoneExited
	// CheckpointReached fires once per checkpoint, with strictly increasing
	// indexes.
	CheckpointReached
	// IngredientAdded fires once per accepted object.
	IngredientAdded
	// IngredientRejected fires when the gate refuses an object.
	IngredientRejected
	// PotionFinished fires exactly once per engine.
	PotionFinished
)

var kindNames = map[Kind]string{
	StirZoneEntered:    "stir_zone_entered",
	StirZoneExited:     "stir_zone_exited",
	CheckpointReached:  "checkpoint_reached",
	IngredientAdded:    "ingredient_added",
	IngredientRejected: "ingredient_rejected",
	PotionFinished:     "potion_finished",
}

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	StirZoneEntered,
	StirZoneExited,
	CheckpointReached,
	IngredientAdded,
	IngredientRejected,
	PotionFinished,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind whose String form is s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is one output of the stirring core. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind Kind

	// Seq is assigned by the Bus on publish.
	Seq int64
	// Tick is the engine tick the event was produced in (1-based; 0 means
	// before the first tick).
	Tick uint64

	// Checkpoint is the index for CheckpointReached.
	Checkpoint int
	// Ingredient is the type for IngredientAdded and IngredientRejected.
	Ingredient string
	// Object is the object ID for IngredientAdded and IngredientRejected.
	Object string
	// Reason is set for IngredientRejected.
	Reason string
}

func (e Event) String() string {
	switch e.Kind {
	case CheckpointReached:
		return fmt.Sprintf("#%d t%d %s index=%d", e.Seq, e.Tick, e.Kind, e.Checkpoint)
	case IngredientAdded:
		return fmt.Sprintf("#%d t%d %s ingredient=%s object=%s", e.Seq, e.Tick, e.Kind, e.Ingredient, e.Object)
	case IngredientRejected:
		return fmt.Sprintf("#%d t%d %s object=%s reason=%s", e.Seq, e.Tick, e.Kind, e.Object, e.Reason)
	}
	return fmt.Sprintf("#%d t%d %s", e.Seq, e.Tick, e.Kind)
}
