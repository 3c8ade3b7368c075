// Package harness runs scripted scenarios against a real stirring engine.
//
// A scenario plays the host: it moves a scripted stirrer around the
// cauldron, signals zone entry and exit, and drops ingredients. The harness
// ticks the engine once per scripted movement with a fixed frame time, then
// checks assertions against the published events and the final snapshot.
//
// # Scenario Format
//
//	name: wraparound
//	description: one clockwise turn across the +/-180 seam
//	config:
//	  handedness: left
//	  checkpoints:
//	    - {direction: cw, required_rotations: 1}
//	steps:
//	  - ingredient: {object: worm-1, type: dried_worm, position: [0, 0.5, 0]}
//	  - enter: {angle: 10}
//	  - tick: {angles: [40, 90, 160, -170, -40, 10]}
//	assertions:
//	  - {type: trace_count, event: checkpoint_reached, count: 1}
//
// Inline config keys overlay the defaults; config_file loads a YAML or CUE
// file instead.
//
// # Determinism
//
// The harness uses:
//   - A deterministic frame clock (testutil.DeterministicClock)
//   - A fresh event bus and logical clock per run
//   - A fixed journal session ID (scenario.session_id) unless one is supplied
//
// The same scenario therefore yields byte-identical traces, which golden
// files under testdata/golden pin down.
//
// # Replay
//
// Runs journalled with WithJournal can be re-run from the store with
// Replay, which rebuilds the engine from the recorded config and compares
// fingerprints.
package harness
