package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cauldron/internal/config"
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/ingredient"
	"github.com/roach88/cauldron/internal/store"
	"github.com/roach88/cauldron/internal/testutil"
	"github.com/roach88/cauldron/internal/trace"
)

// ReplayResult compares a journalled session with a fresh re-run of its
// inputs.
type ReplayResult struct {
	Session  store.Session
	Recorded []event.Event
	Replayed []event.Event

	// Fingerprint is the fingerprint of Replayed.
	Fingerprint string

	// Divergence is the index of the first differing event, or -1.
	Divergence int
}

// Match reports whether the replay reproduced the recording exactly.
func (r *ReplayResult) Match() bool {
	return r.Divergence < 0 && r.Fingerprint == r.Session.Fingerprint
}

// Replay re-runs a journalled session's inputs through a fresh engine built
// from the recorded config and placement. Narration is not replayed.
func Replay(ctx context.Context, st *store.Store, sessionID string, logger *slog.Logger) (*ReplayResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sess, err := st.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cfg, err := config.ParseYAML([]byte(sess.Config))
	if err != nil {
		return nil, fmt.Errorf("session %s: recorded config: %w", sess.ID, err)
	}
	inputs, err := st.ReadInputs(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	outputs, err := st.ReadOutputs(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	recorded, err := store.Events(outputs)
	if err != nil {
		return nil, err
	}

	if sess.Fingerprint == "" {
		// The recording was interrupted before Close; compare against
		// what did reach the journal.
		fp, err := trace.Fingerprint(recorded)
		if err != nil {
			return nil, err
		}
		sess.Fingerprint = trace.FormatFingerprint(fp)
	}

	replayed, err := replayInputs(cfg, sess, inputs, logger)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}

	fp, err := trace.Fingerprint(replayed)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{
		Session:     sess,
		Recorded:    recorded,
		Replayed:    replayed,
		Fingerprint: trace.FormatFingerprint(fp),
		Divergence:  divergence(recorded, replayed),
	}
	logger.Debug("session replayed",
		"session", sess.ID,
		"inputs", len(inputs),
		"events", len(replayed),
		"match", result.Match(),
	)
	return result, nil
}

func replayInputs(cfg *config.Config, sess store.Session, inputs []store.Input, logger *slog.Logger) ([]event.Event, error) {
	frame := sess.Placement.Frame()
	stirrer := testutil.NewStirrer(frame.Position)
	bus := event.NewBus()

	events := []event.Event{}
	bus.SubscribeAll(func(e event.Event) { events = append(events, e) })

	eng := engine.New(cfg, testutil.StaticFrame{F: frame}, stirrer,
		engine.WithBus(bus),
		engine.WithLogger(logger),
		engine.WithRemover(&testutil.Remover{}),
	)
	if err := eng.Err(); err != nil {
		return nil, err
	}

	objects := make(map[string]*ingredient.Object)
	for _, in := range inputs {
		switch in.Kind {
		case store.InputEnter:
			eng.EnterStirZone()
		case store.InputExit:
			eng.ExitStirZone()
		case store.InputIngredient:
			obj, ok := objects[in.Object]
			if !ok {
				obj = &ingredient.Object{ID: in.Object, Type: ingredient.Type(in.Ingredient)}
				objects[in.Object] = obj
			}
			obj.Position = in.Position
			eng.IngredientEntered(obj)
		case store.InputTick:
			stirrer.MoveTo(in.Position)
			eng.Tick(in.Dt)
		default:
			return nil, fmt.Errorf("input %d: unknown kind %q", in.Seq, in.Kind)
		}
	}
	return events, nil
}

// divergence returns the first index where a and b differ, or -1.
func divergence(a, b []event.Event) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
