package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/cauldron/internal/checkpoint"
	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/geom"
	"github.com/roach88/cauldron/internal/ingredient"
	"github.com/roach88/cauldron/internal/stir"
)

// FrameSource provides the cauldron's reference frame. It is read on every
// tick and on zone entry; the engine never writes it.
type FrameSource interface {
	Frame() geom.Frame
}

// Stirrer is the tracked stirring tool.
type Stirrer interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
}

// Engine drives the stirring core for one cauldron.
//
// Thread-safety model: none. Deliver signals and call Tick from a single
// goroutine.
//
// INVARIANTS:
//   - stir accumulators only change inside Tick
//   - checkpoint events carry strictly increasing indexes
//   - an inert engine never publishes
type Engine struct {
	frames  FrameSource
	stirrer Stirrer

	clamp      geom.ClampConfig
	integrator stir.Integrator
	state      stir.State
	sequencer  *checkpoint.Sequencer
	gate       *ingredient.Gate

	bus     *event.Bus
	remover ingredient.Remover
	logger  *slog.Logger
	queue   *signalQueue

	tick    uint64
	elapsed time.Duration

	err error
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus publishes events on b instead of a private bus.
func WithBus(b *event.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRemover sets the host hook that disposes of accepted ingredients.
func WithRemover(r ingredient.Remover) Option {
	return func(e *Engine) { e.remover = r }
}

// New builds an engine for cfg.
//
// New never fails outright. If frames or stirrer is nil, or cfg is invalid,
// the problem is logged once at error level and the returned engine is inert:
// see Err.
func New(cfg *config.Config, frames FrameSource, stirrer Stirrer, opts ...Option) *Engine {
	e := &Engine{
		frames:  frames,
		stirrer: stirrer,
		logger:  slog.Default(),
		queue:   newSignalQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = event.NewBus()
	}

	if err := e.init(cfg); err != nil {
		e.err = fmt.Errorf("%w: %w", ErrInert, err)
		e.logger.Error("engine inert", "error", err)
	}
	return e
}

func (e *Engine) init(cfg *config.Config) error {
	if e.frames == nil {
		return newInitError(ErrCodeMissingFrame, "frame source is required", nil)
	}
	if e.stirrer == nil {
		return newInitError(ErrCodeMissingStirrer, "stirrer is required", nil)
	}
	if cfg == nil {
		return newInitError(ErrCodeInvalidConfig, "config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return newInitError(ErrCodeInvalidConfig, "invalid config", err)
	}

	e.clamp = cfg.ClampConfig()
	e.integrator = cfg.Integrator()

	cps := cfg.Sequence()
	for i := range cps {
		cps[i].OnReached = e.checkpointReached
	}
	seq, err := checkpoint.NewSequencer(cps)
	if err != nil {
		return newInitError(ErrCodeInvalidConfig, "checkpoints", err)
	}
	e.sequencer = seq

	gate, err := ingredient.NewGate(cfg.AcceptanceBounds(), cfg.Ingredients.Required,
		ingredient.WithListener(gateRelay{e}),
		ingredient.WithRemover(e.remover),
		ingredient.WithLogger(e.logger),
		ingredient.WithAcceptedTypes(cfg.AcceptedTypes()...),
	)
	if err != nil {
		return newInitError(ErrCodeInvalidConfig, "ingredient gate", err)
	}
	e.gate = gate

	e.logger.Debug("engine ready",
		"name", cfg.Name,
		"checkpoints", seq.Len(),
		"required", cfg.Ingredients.Required,
		"handedness", e.integrator.Handedness.String(),
	)
	return nil
}

// Err returns nil for a working engine, or the initialisation problem
// wrapped in ErrInert.
func (e *Engine) Err() error { return e.err }

// Inert reports whether the engine failed to initialise.
func (e *Engine) Inert() bool { return e.err != nil }

// Bus returns the bus events are published on.
func (e *Engine) Bus() *event.Bus { return e.bus }

// EnterStirZone queues a zone entry for the next tick.
func (e *Engine) EnterStirZone() bool {
	return e.deliver(Signal{Type: SignalEnter})
}

// ExitStirZone queues a zone exit for the next tick.
func (e *Engine) ExitStirZone() bool {
	return e.deliver(Signal{Type: SignalExit})
}

// IngredientEntered queues obj for the ingredient gate, capturing its
// current world position. The gate decides on the next tick, measuring that
// position in the cauldron frame of that tick; the return value only reports
// whether the signal was queued.
func (e *Engine) IngredientEntered(obj *ingredient.Object) bool {
	if obj == nil {
		return false
	}
	return e.deliver(Signal{Type: SignalIngredient, Object: obj, Position: obj.Position})
}

func (e *Engine) deliver(s Signal) bool {
	if e.Inert() {
		return false
	}
	e.queue.Enqueue(s)
	return true
}

// Pending returns the number of signals waiting for the next tick.
func (e *Engine) Pending() int { return e.queue.Len() }

// Tick advances the engine by one frame: pending signals, then clamp,
// integrate and evaluate while the stirrer is inside the stir zone.
func (e *Engine) Tick(dt time.Duration) {
	if e.Inert() {
		return
	}

	e.tick++
	e.elapsed += dt
	e.bus.SetTick(e.tick)

	for {
		s, ok := e.queue.TryDequeue()
		if !ok {
			break
		}
		e.apply(s)
	}

	if !e.state.Active {
		return
	}

	frame := e.frames.Frame()
	point := e.clampStirrer(frame)
	if delta, credited := e.integrator.Update(point, frame, &e.state); credited {
		e.logger.Debug("stir",
			"tick", e.tick,
			"delta", delta,
			"cw", e.state.CW,
			"ccw", e.state.CCW,
		)
	}
	e.sequencer.Evaluate(&e.state, e.gate.Added())
}

func (e *Engine) apply(s Signal) {
	switch s.Type {
	case SignalEnter:
		if e.state.Active {
			return
		}
		frame := e.frames.Frame()
		e.integrator.Begin(e.clampStirrer(frame), frame, &e.state)
		e.logger.Debug("stir zone entered", "tick", e.tick, "baseline", e.state.PreviousAngle)
		e.bus.Publish(event.Event{Kind: event.StirZoneEntered})

	case SignalExit:
		if !e.state.Active {
			return
		}
		e.state.Active = false
		e.logger.Debug("stir zone exited", "tick", e.tick, "cw", e.state.CW, "ccw", e.state.CCW)
		e.bus.Publish(event.Event{Kind: event.StirZoneExited})

	case SignalIngredient:
		e.gate.OnZoneEnter(s.Object, e.frames.Frame().ToLocal(s.Position))
	}
}

// clampStirrer projects the stirrer into the stir zone, writing the
// corrected position back only when it changed.
func (e *Engine) clampStirrer(frame geom.Frame) mgl64.Vec3 {
	p := e.stirrer.Position()
	c := geom.Clamp(p, frame, e.clamp)
	if c != p {
		e.stirrer.SetPosition(c)
	}
	return c
}

func (e *Engine) checkpointReached(index int) {
	e.logger.Info("checkpoint reached", "index", index, "tick", e.tick)
	e.bus.Publish(event.Event{Kind: event.CheckpointReached, Checkpoint: index})
}

// gateRelay forwards gate outcomes onto the bus.
type gateRelay struct{ e *Engine }

func (r gateRelay) IngredientAdded(obj *ingredient.Object) {
	r.e.bus.Publish(event.Event{
		Kind:       event.IngredientAdded,
		Ingredient: string(obj.Type),
		Object:     obj.ID,
	})
}

func (r gateRelay) IngredientRejected(obj *ingredient.Object, reason ingredient.RejectReason) {
	r.e.bus.Publish(event.Event{
		Kind:       event.IngredientRejected,
		Ingredient: string(obj.Type),
		Object:     obj.ID,
		Reason:     string(reason),
	})
}

func (r gateRelay) PotionFinished() {
	r.e.logger.Info("potion finished", "tick", r.e.tick)
	r.e.bus.Publish(event.Event{Kind: event.PotionFinished})
}

// Snapshot is a read-only view of engine state.
type Snapshot struct {
	Tick           uint64
	Elapsed        time.Duration
	Active         bool
	Angle          float64
	CW             float64
	CCW            float64
	NextCheckpoint int
	Checkpoints    int
	Added          int
	Required       int
	Finished       bool
}

// Snapshot returns the current state. An inert engine returns the zero
// Snapshot.
func (e *Engine) Snapshot() Snapshot {
	if e.Inert() {
		return Snapshot{}
	}
	brew := e.gate.Brew()
	return Snapshot{
		Tick:           e.tick,
		Elapsed:        e.elapsed,
		Active:         e.state.Active,
		Angle:          e.state.PreviousAngle,
		CW:             e.state.CW,
		CCW:            e.state.CCW,
		NextCheckpoint: e.sequencer.Next(),
		Checkpoints:    e.sequencer.Len(),
		Added:          brew.Added,
		Required:       brew.Required,
		Finished:       brew.Finished,
	}
}

// Reached reports whether checkpoint i has been passed.
func (e *Engine) Reached(i int) bool {
	if e.Inert() {
		return false
	}
	return e.sequencer.Reached(i)
}
