// Package config describes one cauldron: its stir clamp, jitter threshold,
// handedness, checkpoint sequence, ingredient gate and narration lines.
//
// A Config is loaded from YAML (strict, unknown keys rejected) or from CUE
// (unified with the embedded #Cauldron schema), then validated on the Go side.
// Validation failures are *ConfigError values carrying the offending field
// and, for CUE input, the source position.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cauldron/internal/checkpoint"
	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/geom"
	"github.com/roach88/cauldron/internal/ingredient"
	"github.com/roach88/cauldron/internal/stir"
)

// Config is the full description of a cauldron.
type Config struct {
	Name            string       `yaml:"name" json:"name"`
	Clamp           Clamp        `yaml:"clamp" json:"clamp"`
	JitterThreshold float64      `yaml:"jitter_threshold" json:"jitter_threshold"`
	Handedness      string       `yaml:"handedness,omitempty" json:"handedness,omitempty"`
	Checkpoints     []Checkpoint `yaml:"checkpoints" json:"checkpoints"`
	Ingredients     Ingredients  `yaml:"ingredients" json:"ingredients"`
	Narration       Narration    `yaml:"narration,omitempty" json:"narration,omitempty"`
}

// Clamp is the cylindrical stir zone, in frame-local units.
type Clamp struct {
	Radius    float64 `yaml:"radius" json:"radius"`
	MinHeight float64 `yaml:"min_height" json:"min_height"`
	MaxHeight float64 `yaml:"max_height" json:"max_height"`
}

// Checkpoint is one rotation milestone. Direction is "cw" or "ccw".
type Checkpoint struct {
	Direction         string  `yaml:"direction" json:"direction"`
	RequiredRotations float64 `yaml:"required_rotations" json:"required_rotations"`
}

// Ingredients configures the gate. An empty Accepted list accepts every
// known type.
type Ingredients struct {
	Required int      `yaml:"required" json:"required"`
	Accepted []string `yaml:"accepted,omitempty" json:"accepted,omitempty"`
	Bounds   Box      `yaml:"bounds" json:"bounds"`
}

// Box is an axis-aligned acceptance volume given by two [x, y, z] corners in
// the cauldron's local frame.
type Box struct {
	Min []float64 `yaml:"min" json:"min"`
	Max []float64 `yaml:"max" json:"max"`
}

// Narration lists voice lines triggered by engine events.
type Narration struct {
	Lines []Line `yaml:"lines,omitempty" json:"lines,omitempty"`
}

// Line is a voice line played when an event of kind On fires. Ingredient and
// Checkpoint narrow the match for ingredient_added and checkpoint_reached.
// Times are in seconds.
type Line struct {
	On            string  `yaml:"on" json:"on"`
	Ingredient    string  `yaml:"ingredient,omitempty" json:"ingredient,omitempty"`
	Checkpoint    *int    `yaml:"checkpoint,omitempty" json:"checkpoint,omitempty"`
	Clip          string  `yaml:"clip" json:"clip"`
	Duration      float64 `yaml:"duration" json:"duration"`
	DelayBefore   float64 `yaml:"delay_before,omitempty" json:"delay_before,omitempty"`
	DelayAfter    float64 `yaml:"delay_after,omitempty" json:"delay_after,omitempty"`
	BlockMovement bool    `yaml:"block_movement,omitempty" json:"block_movement,omitempty"`
}

// Timing converts the line's second-based times into durations.
func (l Line) Timing() (before, length, after time.Duration) {
	return seconds(l.DelayBefore), seconds(l.Duration), seconds(l.DelayAfter)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Default returns the stock cauldron: a half-metre stir radius between 0.2
// and 1.0 above the rim frame, a half-degree jitter threshold, three
// ingredients and one checkpoint per ingredient.
func Default() *Config {
	return &Config{
		Name: "cauldron",
		Clamp: Clamp{
			Radius:    0.5,
			MinHeight: 0.2,
			MaxHeight: 1.0,
		},
		JitterThreshold: 0.5,
		Handedness:      stir.RightHanded.String(),
		Checkpoints: []Checkpoint{
			{Direction: "cw", RequiredRotations: 1},
			{Direction: "ccw", RequiredRotations: 1},
			{Direction: "cw", RequiredRotations: 2},
		},
		Ingredients: Ingredients{
			Required: 3,
			Accepted: []string{
				string(ingredient.DriedWorm),
				string(ingredient.FirebloomPetals),
				string(ingredient.DragonsTooth),
			},
			Bounds: Box{
				Min: []float64{-0.6, 0, -0.6},
				Max: []float64{0.6, 1.2, 0.6},
			},
		},
	}
}

// Validate checks every field and returns the first problem as a
// *ConfigError.
func (c *Config) Validate() error {
	clamp := c.ClampConfig()
	if !(clamp.Radius > 0) {
		return newError("clamp.radius", "must be positive, got %v", clamp.Radius)
	}
	if math.IsNaN(clamp.MinHeight) {
		return newError("clamp.min_height", "must be a number")
	}
	if math.IsNaN(clamp.MaxHeight) {
		return newError("clamp.max_height", "must be a number")
	}
	if clamp.MinHeight > clamp.MaxHeight {
		return newError("clamp.max_height", "must be >= min_height (%v), got %v", clamp.MinHeight, clamp.MaxHeight)
	}
	if !(c.JitterThreshold >= 0) {
		return newError("jitter_threshold", "must not be negative, got %v", c.JitterThreshold)
	}
	if _, err := stir.ParseHandedness(c.Handedness); err != nil {
		return newError("handedness", "%v", err)
	}

	if len(c.Checkpoints) == 0 {
		return newError("checkpoints", "at least one checkpoint is required")
	}
	for i, cp := range c.Checkpoints {
		if _, err := stir.ParseDirection(cp.Direction); err != nil {
			return newError(fmt.Sprintf("checkpoints[%d].direction", i), "%v", err)
		}
		if !(cp.RequiredRotations > 0) {
			return newError(fmt.Sprintf("checkpoints[%d].required_rotations", i), "must be positive, got %v", cp.RequiredRotations)
		}
	}

	if c.Ingredients.Required <= 0 {
		return newError("ingredients.required", "must be positive, got %d", c.Ingredients.Required)
	}
	for i, name := range c.Ingredients.Accepted {
		if _, err := ingredient.ParseType(name); err != nil {
			return newError(fmt.Sprintf("ingredients.accepted[%d]", i), "%v", err)
		}
	}
	if len(c.Ingredients.Bounds.Min) != 3 {
		return newError("ingredients.bounds.min", "must have 3 components, got %d", len(c.Ingredients.Bounds.Min))
	}
	if len(c.Ingredients.Bounds.Max) != 3 {
		return newError("ingredients.bounds.max", "must have 3 components, got %d", len(c.Ingredients.Bounds.Max))
	}
	if err := c.AcceptanceBounds().Validate(); err != nil {
		return newError("ingredients.bounds", "%v", err)
	}

	for i, l := range c.Narration.Lines {
		if err := l.validate(); err != nil {
			err.Field = fmt.Sprintf("narration.lines[%d].%s", i, err.Field)
			return err
		}
	}
	return nil
}

func (l Line) validate() *ConfigError {
	kind, err := event.ParseKind(l.On)
	if err != nil {
		return newError("on", "%v", err)
	}
	if l.Ingredient != "" {
		if kind != event.IngredientAdded && kind != event.IngredientRejected {
			return newError("ingredient", "only applies to ingredient events, not %s", kind)
		}
		if _, err := ingredient.ParseType(l.Ingredient); err != nil {
			return newError("ingredient", "%v", err)
		}
	}
	if l.Checkpoint != nil {
		if kind != event.CheckpointReached {
			return newError("checkpoint", "only applies to checkpoint_reached, not %s", kind)
		}
		if *l.Checkpoint < 0 {
			return newError("checkpoint", "must not be negative, got %d", *l.Checkpoint)
		}
	}
	if l.Clip == "" {
		return newError("clip", "is required")
	}
	if l.Duration < 0 || l.DelayBefore < 0 || l.DelayAfter < 0 {
		return newError("duration", "times must not be negative")
	}
	return nil
}

// ClampConfig returns the geometry form of the clamp.
func (c *Config) ClampConfig() geom.ClampConfig {
	return geom.ClampConfig{
		Radius:    c.Clamp.Radius,
		MinHeight: c.Clamp.MinHeight,
		MaxHeight: c.Clamp.MaxHeight,
	}
}

// Integrator returns the integrator settings. Call Validate first; an
// unknown handedness falls back to right-handed.
func (c *Config) Integrator() stir.Integrator {
	h, _ := stir.ParseHandedness(c.Handedness)
	return stir.Integrator{Threshold: c.JitterThreshold, Handedness: h}
}

// Sequence returns the checkpoint list for a checkpoint.Sequencer. Call
// Validate first; entries with an unknown direction are left zero and will
// be rejected by checkpoint.NewSequencer.
func (c *Config) Sequence() []checkpoint.Checkpoint {
	out := make([]checkpoint.Checkpoint, len(c.Checkpoints))
	for i, cp := range c.Checkpoints {
		d, _ := stir.ParseDirection(cp.Direction)
		out[i] = checkpoint.Checkpoint{Direction: d, RequiredRotations: cp.RequiredRotations}
	}
	return out
}

// AcceptanceBounds returns the vessel-local ingredient acceptance volume.
func (c *Config) AcceptanceBounds() geom.Bounds {
	return geom.Bounds{Min: vec3(c.Ingredients.Bounds.Min), Max: vec3(c.Ingredients.Bounds.Max)}
}

// AcceptedTypes returns the accepted ingredient types, or every known type
// when the list is empty.
func (c *Config) AcceptedTypes() []ingredient.Type {
	if len(c.Ingredients.Accepted) == 0 {
		return append([]ingredient.Type(nil), ingredient.KnownTypes...)
	}
	out := make([]ingredient.Type, 0, len(c.Ingredients.Accepted))
	for _, name := range c.Ingredients.Accepted {
		out = append(out, ingredient.Type(name))
	}
	return out
}

// YAML renders the config as YAML, in field order.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func vec3(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}
