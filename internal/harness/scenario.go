package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/geom"
)

// Scenario scripts one engine run: host movements and signals in order,
// then assertions on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an inline engine config. Keys it leaves out keep their
	// defaults. Mutually exclusive with ConfigFile.
	Config *yaml.Node `yaml:"config,omitempty"`

	// ConfigFile is a YAML or CUE config path, relative to the scenario file.
	ConfigFile string `yaml:"config_file,omitempty"`

	// Frame places the cauldron. Defaults to the world origin, unrotated.
	Frame *FrameSpec `yaml:"frame,omitempty"`

	// Stir is where the scripted stirrer sits relative to the frame when a
	// step gives only an angle.
	Stir *StirSpec `yaml:"stir,omitempty"`

	// FrameMS is the per-tick dt in milliseconds. Defaults to 20.
	FrameMS int `yaml:"frame_ms,omitempty"`

	// Steps drive the engine, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state, spoken
	Assertions []Assertion `yaml:"assertions"`

	// SessionID is an optional fixed journal session ID for deterministic
	// recordings. Defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`
}

// FrameSpec is the YAML form of a geom.Placement.
type FrameSpec struct {
	Position []float64 `yaml:"position,omitempty"`
	Yaw      float64   `yaml:"yaw,omitempty"`
}

// StirSpec is the stirrer's radius and height in frame-local space.
type StirSpec struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

// Step is one scripted host action. Exactly one field must be set.
type Step struct {
	Enter      *EnterStep      `yaml:"enter,omitempty"`
	Exit       *ExitStep       `yaml:"exit,omitempty"`
	Tick       *TickStep       `yaml:"tick,omitempty"`
	Ingredient *IngredientStep `yaml:"ingredient,omitempty"`
	Idle       *IdleStep       `yaml:"idle,omitempty"`
}

// EnterStep optionally moves the stirrer, signals zone entry and ticks once.
type EnterStep struct {
	Angle *float64 `yaml:"angle,omitempty"`
}

// ExitStep signals zone exit and ticks once.
type ExitStep struct{}

// TickStep moves the stirrer and ticks once per entry. Angles are bearings
// in degrees at the scenario's stir radius and height; positions are world
// coordinates. Exactly one list must be set.
type TickStep struct {
	Angles    []float64   `yaml:"angles,omitempty"`
	Positions [][]float64 `yaml:"positions,omitempty"`
}

// IngredientStep drops an object into the acceptance volume and ticks once.
// Presenting the same object ID again reuses the object, processed marker
// included.
// IngredientStep drops an object at a world position.
type IngredientStep struct {
	Object   string    `yaml:"object"`
	Type     string    `yaml:"type"`
	Position []float64 `yaml:"position"`
}

// IdleStep ticks without moving anything.
type IdleStep struct {
	Ticks int `yaml:"ticks"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event of Event matching the optional fields appears
	// - "trace_order": Events appear as a subsequence of the trace
	// - "trace_count": Event appears exactly Count times
	// - "final_state": the engine snapshot matches Expect (subset)
	// - "spoken": narration started exactly Clips, in order
	Type string `yaml:"type"`

	Event      string `yaml:"event,omitempty"`
	Checkpoint *int   `yaml:"checkpoint,omitempty"`
	Ingredient string `yaml:"ingredient,omitempty"`
	Object     string `yaml:"object,omitempty"`
	Reason     string `yaml:"reason,omitempty"`

	// Events is the expected kind order (used by trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect holds snapshot fields (used by final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Clips is the expected narration (used by spoken).
	Clips []string `yaml:"clips,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertSpoken        = "spoken"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// ConfigFile is resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ConfigFile != "" && !filepath.IsAbs(scenario.ConfigFile) {
		scenario.ConfigFile = filepath.Join(filepath.Dir(path), scenario.ConfigFile)
	}
	if scenario.ConfigFile != "" {
		if _, err := os.Stat(scenario.ConfigFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.ConfigFile)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates a scenario. Unknown keys are
// rejected, including inside the inline config.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Config != nil {
		if _, err := scenario.LoadConfig(); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	return &scenario, nil
}

// LoadConfig resolves the engine config: inline, from ConfigFile, or the
// defaults when neither is given.
func (s *Scenario) LoadConfig() (*config.Config, error) {
	switch {
	case s.Config != nil:
		data, err := yaml.Marshal(s.Config)
		if err != nil {
			return nil, fmt.Errorf("inline config: %w", err)
		}
		return config.ParseYAMLWithDefaults(data)
	case s.ConfigFile != "":
		return config.Load(s.ConfigFile)
	}
	return config.Default(), nil
}

// Placement returns the frame placement, defaulting to the origin.
func (s *Scenario) Placement() geom.Placement {
	if s.Frame == nil {
		return geom.Placement{}
	}
	return geom.Placement{Position: vec3(s.Frame.Position), Yaw: s.Frame.Yaw}
}

// stirAt returns the scripted stirrer radius and height. Unset values sit
// the stirrer well inside cfg's clamp.
func (s *Scenario) stirAt(cfg *config.Config) (radius, height float64) {
	radius = cfg.Clamp.Radius * 0.6
	height = (cfg.Clamp.MinHeight + cfg.Clamp.MaxHeight) / 2
	if s.Stir != nil {
		if s.Stir.Radius > 0 {
			radius = s.Stir.Radius
		}
		if s.Stir.Height != 0 {
			height = s.Stir.Height
		}
	}
	return radius, height
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config != nil && s.ConfigFile != "" {
		return fmt.Errorf("config and config_file are mutually exclusive")
	}

	if s.FrameMS < 0 {
		return fmt.Errorf("frame_ms must be non-negative")
	}

	if s.Frame != nil && s.Frame.Position != nil && len(s.Frame.Position) != 3 {
		return fmt.Errorf("frame.position must have 3 components")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	set := 0
	for _, present := range []bool{
		step.Enter != nil,
		step.Exit != nil,
		step.Tick != nil,
		step.Ingredient != nil,
		step.Idle != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of enter, exit, tick, ingredient, idle is required")
	}

	switch {
	case step.Tick != nil:
		hasAngles, hasPositions := len(step.Tick.Angles) > 0, len(step.Tick.Positions) > 0
		if hasAngles == hasPositions {
			return fmt.Errorf("tick: exactly one of angles or positions is required")
		}
		for i, p := range step.Tick.Positions {
			if len(p) != 3 {
				return fmt.Errorf("tick.positions[%d]: must have 3 components", i)
			}
		}

	case step.Ingredient != nil:
		if step.Ingredient.Object == "" {
			return fmt.Errorf("ingredient: object is required")
		}
		if len(step.Ingredient.Position) != 3 {
			return fmt.Errorf("ingredient: position must have 3 components")
		}

	case step.Idle != nil:
		if step.Idle.Ticks <= 0 {
			return fmt.Errorf("idle: ticks must be positive")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if _, err := event.ParseKind(a.Event); err != nil {
			return fmt.Errorf("assertions[%d]: trace_contains: %w", index, err)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
		for _, name := range a.Events {
			if _, err := event.ParseKind(name); err != nil {
				return fmt.Errorf("assertions[%d]: trace_order: %w", index, err)
			}
		}
	case AssertTraceCount:
		if _, err := event.ParseKind(a.Event); err != nil {
			return fmt.Errorf("assertions[%d]: trace_count: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			if _, ok := snapshotFields[key]; !ok {
				return fmt.Errorf("assertions[%d]: unknown final_state field %q", index, key)
			}
		}
	case AssertSpoken:
		// An empty clip list asserts silence.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func vec3(v []float64) (out mgl64.Vec3) {
	copy(out[:], v)
	return out
}
