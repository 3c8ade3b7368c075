// Package ingredient classifies objects dropped into the cauldron and counts
// accepted ingredients towards a finished brew.
package ingredient

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/geom"
)

// Type tags an ingredient object.
type Type string

const (
	DriedWorm       Type = "dried_worm"
	FirebloomPetals Type = "firebloom_petals"
	DragonsTooth    Type = "dragons_tooth"
)

// KnownTypes lists every ingredient type, in declaration order.
var KnownTypes = []Type{DriedWorm, FirebloomPetals, DragonsTooth}

// ParseType returns the Type named s, or an error for an unknown name.
func ParseType(s string) (Type, error) {
	for _, t := range KnownTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown ingredient type %q", s)
}

// Object is a droppable ingredient in the scene. Position is in world space.
// The processed marker lives
// with the object so that the same object is never counted twice, no matter
// which gate sees it.
type Object struct {
	ID       string
	Type     Type
	Position mgl64.Vec3

	processed bool
}

// Processed reports whether a gate has already accepted the object.
func (o *Object) Processed() bool { return o.processed }

// RejectReason explains why a gate refused an object.
type RejectReason string

const (
	ReasonOutOfBounds      RejectReason = "out_of_bounds"
	ReasonAlreadyProcessed RejectReason = "already_processed"
	ReasonUntagged         RejectReason = "untagged"
	ReasonUnknownType      RejectReason = "unknown_type"
)

// Listener receives gate outcomes synchronously, in the order they happen.
type Listener interface {
	IngredientAdded(obj *Object)
	IngredientRejected(obj *Object, reason RejectReason)
	PotionFinished()
}

// Remover disposes of accepted objects. The gate only schedules removal; the
// host decides when the object actually disappears.
type Remover interface {
	Remove(obj *Object)
}

// BrewState is the gate's running count.
type BrewState struct {
	Added    int
	Required int
	Finished bool
}

// Gate accepts each tagged object at most once and reports a finished brew
// exactly once, when Added first reaches Required.
//
// The acceptance volume is expressed in the cauldron's local frame, so it
// follows the vessel wherever the host places it.
type Gate struct {
	bounds   geom.Bounds
	accepted map[Type]bool
	brew     BrewState
	listener Listener
	remover  Remover
	logger   *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithListener sets the outcome listener.
func WithListener(l Listener) GateOption {
	return func(g *Gate) { g.listener = l }
}

// WithRemover sets the object remover.
func WithRemover(r Remover) GateOption {
	return func(g *Gate) { g.remover = r }
}

// WithLogger sets the logger used for rejections. Default: slog.Default().
func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// WithAcceptedTypes restricts the gate to the given types. Without this
// option every tagged object is accepted.
func WithAcceptedTypes(types ...Type) GateOption {
	return func(g *Gate) {
		g.accepted = make(map[Type]bool, len(types))
		for _, t := range types {
			g.accepted[t] = true
		}
	}
}

// NewGate builds a gate over the vessel-local acceptance volume bounds that
// finishes the brew after required acceptances.
func NewGate(bounds geom.Bounds, required int, opts ...GateOption) (*Gate, error) {
	if required <= 0 {
		return nil, fmt.Errorf("required ingredient count must be positive, got %d", required)
	}
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("acceptance bounds: %w", err)
	}

	g := &Gate{
		bounds: bounds,
		brew:   BrewState{Required: required},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// OnZoneEnter classifies obj, which entered the zone at local, its position
// in the cauldron's frame at the moment of entry. On acceptance the object is
// marked processed, the count goes up, the listener hears IngredientAdded,
// removal is scheduled and, the first time the count reaches Required,
// PotionFinished fires.
//
// Returns whether obj was accepted and its type.
func (g *Gate) OnZoneEnter(obj *Object, local mgl64.Vec3) (bool, Type) {
	if obj == nil {
		return false, ""
	}
	if reason, ok := g.classify(obj, local); !ok {
		g.logger.Debug("ingredient rejected", "object", obj.ID, "type", string(obj.Type), "reason", string(reason))
		if g.listener != nil {
			g.listener.IngredientRejected(obj, reason)
		}
		return false, obj.Type
	}

	obj.processed = true
	g.brew.Added++
	g.logger.Debug("ingredient added", "object", obj.ID, "type", string(obj.Type), "added", g.brew.Added)

	if g.listener != nil {
		g.listener.IngredientAdded(obj)
	}
	if g.remover != nil {
		g.remover.Remove(obj)
	}

	if !g.brew.Finished && g.brew.Added >= g.brew.Required {
		g.brew.Finished = true
		g.logger.Debug("potion finished", "added", g.brew.Added)
		if g.listener != nil {
			g.listener.PotionFinished()
		}
	}
	return true, obj.Type
}

func (g *Gate) classify(obj *Object, local mgl64.Vec3) (RejectReason, bool) {
	switch {
	case obj.processed:
		return ReasonAlreadyProcessed, false
	case obj.Type == "":
		return ReasonUntagged, false
	case g.accepted != nil && !g.accepted[obj.Type]:
		return ReasonUnknownType, false
	case !g.bounds.Contains(local):
		return ReasonOutOfBounds, false
	}
	return "", true
}

// Brew returns a copy of the running count.
func (g *Gate) Brew() BrewState { return g.brew }

// Added returns the number of accepted objects.
func (g *Gate) Added() int { return g.brew.Added }
