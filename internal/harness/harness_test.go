package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/event"
	"github.com/roach88/cauldron/internal/store"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestRun_GatedCheckpoint(t *testing.T) {
	s := mustParse(t, `
name: gated
description: a full turn before any ingredient never fires
config:
  handedness: left
  checkpoints:
    - {direction: cw, required_rotations: 1}
steps:
  - enter: {angle: 0}
  - tick: {angles: [90, 180, -90, 0]}
  - ingredient: {object: w, type: dried_worm, position: [0, 0.5, 0]}
assertions:
  - {type: trace_order, events: [stir_zone_entered, ingredient_added, checkpoint_reached]}
  - {type: final_state, expect: {tick: 6, next_checkpoint: 1, cw: 0}}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	assert.Equal(t, []event.Kind{
		event.StirZoneEntered,
		event.IngredientAdded,
		event.CheckpointReached,
	}, kinds(result.Trace))
	assert.Equal(t, uint64(6), result.Trace[2].Tick, "fires on the ingredient's tick")
	assert.Equal(t, []string{"w"}, result.Removed)
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	s := mustParse(t, `
name: failing
description: assertions that cannot hold
steps:
  - idle: {ticks: 2}
assertions:
  - {type: trace_contains, event: potion_finished}
  - {type: final_state, expect: {tick: 3}}
  - {type: spoken, clips: [hello]}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "trace_contains")
	assert.Contains(t, result.Errors[1], `field "tick"`)
	assert.Contains(t, result.Errors[2], "hello")
}

func TestRun_ClampsScriptedPositions(t *testing.T) {
	s := mustParse(t, `
name: clamp
description: a stirrer dragged outside the cylinder is pulled back in
steps:
  - enter: {angle: 0}
  - tick: {positions: [[3, 0.5, 0]]}
assertions:
  - {type: final_state, expect: {active: true, angle: 90}}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_JitterIsFiltered(t *testing.T) {
	s := mustParse(t, `
name: jitter
description: sub-threshold wobble never accumulates
steps:
  - enter: {angle: 0}
  - tick: {angles: [0.2, 0.4, 0.6, 0.8, 1.0]}
assertions:
  - {type: final_state, expect: {cw: 0, ccw: 0, angle: 1.0}}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_RotatedFrame(t *testing.T) {
	s := mustParse(t, `
name: rotated
description: bearings are measured in the cauldron's own frame
frame:
  position: [4, 1, -2]
  yaw: 120
config:
  checkpoints:
    - {direction: ccw, required_rotations: 0.5}
  ingredients:
    required: 1
    bounds: {min: [-1, 0, -1], max: [1, 2, 1]}
steps:
  - ingredient: {object: w, type: dried_worm, position: [4, 1.5, -2]}
  - enter: {angle: 0}
  - tick: {angles: [60, 120, 180]}
assertions:
  - {type: trace_count, event: checkpoint_reached, count: 1}
  - {type: trace_count, event: potion_finished, count: 1}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	s := mustParse(t, minimalScenario)

	a, err := Run(s)
	require.NoError(t, err)
	b, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, a.Trace, b.Trace)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Len(t, a.Fingerprint, 16)
}

func TestRun_JournalAndReplay(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s, err := LoadScenario("../../testdata/scenarios/full_brew.yaml")
	require.NoError(t, err)

	result, err := Run(s, WithJournal(st, store.NewFixedGenerator("session-1")))
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)
	assert.Equal(t, "session-1", result.SessionID)

	ctx := context.Background()
	sess, err := st.ReadSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "full_brew", sess.Name)
	assert.Equal(t, result.Fingerprint, sess.Fingerprint)

	outputs, err := st.ReadOutputs(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, outputs, len(result.Trace))

	replay, err := Replay(ctx, st, "session-1", nil)
	require.NoError(t, err)
	assert.True(t, replay.Match())
	assert.Equal(t, -1, replay.Divergence)
	assert.Equal(t, result.Trace, replay.Replayed)
}

func TestRun_JournalDefaultsToScenarioSessionID(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := mustParse(t, minimalScenario+"session_id: fixed-1\n")
	result, err := Run(s, WithJournal(st, nil))
	require.NoError(t, err)
	assert.Equal(t, "fixed-1", result.SessionID)
}

func TestReplay_DetectsDivergence(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := mustParse(t, minimalScenario)
	_, err = Run(s, WithJournal(st, store.NewFixedGenerator("s")))
	require.NoError(t, err)

	// Tamper with the recording: the replay cannot produce this event.
	ctx := context.Background()
	require.NoError(t, st.WriteOutput(ctx, "s", store.Output{Seq: 99, Tick: 1, Kind: "potion_finished"}))

	replay, err := Replay(ctx, st, "s", nil)
	require.NoError(t, err)
	assert.False(t, replay.Match())
	assert.Equal(t, 1, replay.Divergence)
}

func TestReplay_UnknownSession(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = Replay(context.Background(), st, "nope", nil)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
