package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/geom"
	"github.com/roach88/cauldron/internal/ingredient"
	"github.com/roach88/cauldron/internal/narration"
	"github.com/roach88/cauldron/internal/store"
	"github.com/roach88/cauldron/internal/testutil"
	"github.com/roach88/cauldron/internal/trace"
)

// Harness plays the host for one scenario run: it owns the frame, the
// scripted stirrer and the narration speaker, and feeds the engine a
// deterministic frame clock.
type Harness struct {
	engine   *engine.Engine
	bus      *event.Bus
	frame    geom.Frame
	stirrer  *testutil.Stirrer
	remover  *testutil.Remover
	clock    *testutil.DeterministicClock
	queue    *narration.Queue
	narrator *narration.Narrator
	speaker  *recordingSpeaker
	recorder *store.Recorder
	logger   *slog.Logger

	radius, height float64
	objects        map[string]*ingredient.Object
	trace          []event.Event
}

// Option configures a run.
type Option func(*runOptions)

type runOptions struct {
	store  *store.Store
	ids    store.SessionIDGenerator
	logger *slog.Logger
}

// WithJournal records the run as a session in st. IDs come from ids, or
// from the scenario's fixed session ID when ids is nil.
func WithJournal(st *store.Store, ids store.SessionIDGenerator) Option {
	return func(o *runOptions) {
		o.store = st
		o.ids = ids
	}
}

// WithLogger sets the logger handed to the engine and narration.
// Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh engine with a deterministic frame clock, so the
// same scenario always yields the same trace.
//
// Execution flow:
// 1. Resolve the config and frame placement
// 2. Build the engine, narration and (optionally) the journal recorder
// 3. Execute steps in order
// 4. Evaluate assertions against the trace and final snapshot
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a context for journal writes.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := scenario.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h, err := newHarness(cfg, scenario, o.logger)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	if o.store != nil {
		ids := o.ids
		if ids == nil {
			ids = testutil.NewFixedSessionGenerator(scenario.SessionID)
		}
		if err := h.startRecording(ctx, o.store, ids, cfg, scenario); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("scenario %s: steps[%d]: %w", scenario.Name, i, err)
		}
	}
	h.narrator.Close()

	result := NewResult()
	result.Trace = append(result.Trace, h.trace...)
	result.Spoken = append(result.Spoken, h.speaker.clips...)
	result.Removed = h.remover.Removed()
	result.Final = h.engine.Snapshot()

	fp, err := trace.Fingerprint(h.trace)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	result.Fingerprint = trace.FormatFingerprint(fp)

	if h.recorder != nil {
		sess, err := h.recorder.Close()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: journal: %w", scenario.Name, err)
		}
		result.SessionID = sess.ID
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"events", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(cfg *config.Config, scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	placement := scenario.Placement()
	radius, height := scenario.stirAt(cfg)

	h := &Harness{
		bus:     event.NewBus(),
		frame:   placement.Frame(),
		remover: &testutil.Remover{},
		clock:   testutil.NewDeterministicClock(time.Duration(scenario.FrameMS) * time.Millisecond),
		speaker: &recordingSpeaker{},
		logger:  logger,
		radius:  radius,
		height:  height,
		objects: make(map[string]*ingredient.Object),
	}
	h.stirrer = testutil.NewStirrer(h.frame.PointOnBearing(0, radius, height))

	// The trace subscription goes first so narration sees events after
	// they are recorded.
	h.bus.SubscribeAll(func(e event.Event) { h.trace = append(h.trace, e) })

	h.engine = engine.New(cfg, testutil.StaticFrame{F: h.frame}, h.stirrer,
		engine.WithBus(h.bus),
		engine.WithLogger(logger),
		engine.WithRemover(h.remover),
	)
	if err := h.engine.Err(); err != nil {
		return nil, err
	}

	rules, err := narration.RulesFrom(cfg.Narration.Lines)
	if err != nil {
		return nil, err
	}
	h.queue = narration.NewQueue(h.speaker, narration.WithLogger(logger))
	h.narrator = narration.NewNarrator(h.bus, h.queue, rules, logger)
	return h, nil
}

func (h *Harness) startRecording(ctx context.Context, st *store.Store, ids store.SessionIDGenerator, cfg *config.Config, scenario *Scenario) error {
	doc, err := cfg.YAML()
	if err != nil {
		return err
	}
	rec, err := st.Record(ctx, h.bus, store.Session{
		ID:        ids.Generate(),
		Name:      scenario.Name,
		Config:    string(doc),
		Placement: scenario.Placement(),
	})
	if err != nil {
		return err
	}
	h.recorder = rec
	return nil
}

func (h *Harness) execute(step Step) error {
	switch {
	case step.Enter != nil:
		if step.Enter.Angle != nil {
			h.moveTo(*step.Enter.Angle)
		}
		h.input(store.Input{Kind: store.InputEnter})
		h.engine.EnterStirZone()
		h.tick()

	case step.Exit != nil:
		h.input(store.Input{Kind: store.InputExit})
		h.engine.ExitStirZone()
		h.tick()

	case step.Tick != nil:
		for _, a := range step.Tick.Angles {
			h.moveTo(a)
			h.tick()
		}
		for _, p := range step.Tick.Positions {
			h.stirrer.MoveTo(vec3(p))
			h.tick()
		}

	case step.Ingredient != nil:
		obj := h.object(step.Ingredient.Object, ingredient.Type(step.Ingredient.Type), vec3(step.Ingredient.Position))
		h.input(store.Input{
			Kind:       store.InputIngredient,
			Position:   obj.Position,
			Object:     obj.ID,
			Ingredient: string(obj.Type),
		})
		h.engine.IngredientEntered(obj)
		h.tick()

	case step.Idle != nil:
		for i := 0; i < step.Idle.Ticks; i++ {
			h.tick()
		}

	default:
		return fmt.Errorf("empty step")
	}

	if h.recorder != nil {
		return h.recorder.Err()
	}
	return nil
}

// object returns the scene object with id, creating it on first sight.
// Later sightings move it but keep its processed marker.
func (h *Harness) object(id string, typ ingredient.Type, pos mgl64.Vec3) *ingredient.Object {
	obj, ok := h.objects[id]
	if !ok {
		obj = &ingredient.Object{ID: id, Type: typ}
		h.objects[id] = obj
	}
	obj.Position = pos
	return obj
}

func (h *Harness) moveTo(bearing float64) {
	h.stirrer.MoveTo(h.frame.PointOnBearing(bearing, h.radius, h.height))
}

func (h *Harness) tick() {
	dt := h.clock.Frame()
	h.input(store.Input{Kind: store.InputTick, Position: h.stirrer.Position(), Dt: dt})
	h.clock.Advance(dt)
	h.engine.Tick(dt)
	h.queue.Step(dt)
}

func (h *Harness) input(in store.Input) {
	if h.recorder != nil {
		h.recorder.Input(in)
	}
}

// recordingSpeaker stands in for the host's audio source.
type recordingSpeaker struct {
	clips []string
}

func (s *recordingSpeaker) Play(clip string) { s.clips = append(s.clips, clip) }
func (s *recordingSpeaker) Stop()            {}
